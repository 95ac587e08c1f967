// Package mission defines the denormalized mission record fetched from the
// engagement backend and the completion aggregation over it.
package mission

// Flag values. Any value other than the ones below means "not done".
const (
	StatusYes        = "yes"
	StatusInProgress = "inProgress"
	StatusNo         = "no"

	// NOG-only states.
	StatusCollaborateur = "collaborateur"
	StatusAssocie       = "associe"
	StatusRedaction     = "redaction"
)

// Flag is one workflow indicator: a tri-state (or multi-state for NOG) value
// plus the per-user access level gating its document modal.
type Flag struct {
	Value  string `json:"value"`
	Access string `json:"access"`
}

// BeforePhase holds the indicators checked before the mission starts.
// ConflictCheck and LabClient are client-scoped, LabGroup and the two
// cartography flags are group/client-scoped: their values are repeated on
// every record of the same client or group.
type BeforePhase struct {
	ConflictCheck  Flag `json:"conflictCheck"`
	LabGroup       Flag `json:"labGroup"`
	LabClient      Flag `json:"labClient"`
	CartoLabGroup  Flag `json:"cartographyLabGroup"`
	CartoLabClient Flag `json:"cartographyLabClient"`
	QAM            Flag `json:"qam"`
	LDM            Flag `json:"ldm"`
}

// DuringPhase holds the indicators checked while the mission runs.
type DuringPhase struct {
	NOG         Flag `json:"nog"`
	Checklist   Flag `json:"checklist"`
	Review      Flag `json:"review"`
	Supervision Flag `json:"supervision"`
}

// AfterPhase holds the closing indicators. CR and EndOfRelation exist in the
// upstream payload but are excluded from every denominator.
type AfterPhase struct {
	NDS           Flag `json:"nds"`
	QMM           Flag `json:"qmm"`
	Plaquette     Flag `json:"plaquette"`
	Restitution   Flag `json:"restitution"`
	CR            Flag `json:"cr"`
	EndOfRelation Flag `json:"endOfClientRelationship"`
}

// Record is one mission for one client within one group, flattened the way
// the engagement backend sends it. Group- and client-scoped flags are
// repeated identically on every record sharing that group/client.
type Record struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`

	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`

	MissionID string `json:"missionId"`
	Code      string `json:"code"`
	Label     string `json:"label"`
	Millesime string `json:"millesime"`
	ProfileID string `json:"profileId"`

	// Classification attributes, used only by the filter panel.
	Bureau         string `json:"bureau"`
	EtatMission    string `json:"etatMission"`
	EtatDossier    string `json:"etatDossier"`
	FormeJuridique string `json:"formeJuridique"`
	SectionNAF     string `json:"sectionNaf"`
	MoisCloture    string `json:"moisCloture"`
	AssocieID      string `json:"associeId"`
	DMCMID         string `json:"dmcmId"`
	DMCM2ID        string `json:"dmcm2Id"`

	Before BeforePhase `json:"beforeMission"`
	During DuringPhase `json:"duringMission"`
	After  AfterPhase  `json:"afterMission"`
}

// Phase identifies one of the three workflow stages.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseDuring Phase = "during"
	PhaseAfter  Phase = "after"
)

// Scope says at which hierarchy level a flag is meaningful. Group- and
// client-scoped flags must be read from exactly one representative record
// per group/client, never summed per mission.
type Scope int

const (
	ScopeMission Scope = iota
	ScopeClient
	ScopeGroup
)

// Canonical field names, shared by the status endpoint, the recap counts and
// the persistence layer.
const (
	FieldConflictCheck  = "conflictCheck"
	FieldLabGroup       = "labGroup"
	FieldLabClient      = "labClient"
	FieldCartoLabGroup  = "cartographyLabGroup"
	FieldCartoLabClient = "cartographyLabClient"
	FieldQAM            = "qam"
	FieldLDM            = "ldm"
	FieldNOG            = "nog"
	FieldChecklist      = "checklist"
	FieldReview         = "review"
	FieldSupervision    = "supervision"
	FieldNDS            = "nds"
	FieldQMM            = "qmm"
	FieldPlaquette      = "plaquette"
	FieldRestitution    = "restitution"
	FieldCR             = "cr"
	FieldEndOfRelation  = "endOfClientRelationship"
)

type fieldInfo struct {
	scope Scope
	ref   func(*Record) *Flag
}

// fields maps a canonical field name to its scope and a setter closure, so
// status propagation dispatches through a table instead of stringly-typed
// branching.
var fields = map[string]fieldInfo{
	FieldConflictCheck:  {ScopeClient, func(r *Record) *Flag { return &r.Before.ConflictCheck }},
	FieldLabGroup:       {ScopeGroup, func(r *Record) *Flag { return &r.Before.LabGroup }},
	FieldLabClient:      {ScopeClient, func(r *Record) *Flag { return &r.Before.LabClient }},
	FieldCartoLabGroup:  {ScopeGroup, func(r *Record) *Flag { return &r.Before.CartoLabGroup }},
	FieldCartoLabClient: {ScopeClient, func(r *Record) *Flag { return &r.Before.CartoLabClient }},
	FieldQAM:            {ScopeMission, func(r *Record) *Flag { return &r.Before.QAM }},
	FieldLDM:            {ScopeMission, func(r *Record) *Flag { return &r.Before.LDM }},
	FieldNOG:            {ScopeMission, func(r *Record) *Flag { return &r.During.NOG }},
	FieldChecklist:      {ScopeMission, func(r *Record) *Flag { return &r.During.Checklist }},
	FieldReview:         {ScopeMission, func(r *Record) *Flag { return &r.During.Review }},
	FieldSupervision:    {ScopeMission, func(r *Record) *Flag { return &r.During.Supervision }},
	FieldNDS:            {ScopeMission, func(r *Record) *Flag { return &r.After.NDS }},
	FieldQMM:            {ScopeMission, func(r *Record) *Flag { return &r.After.QMM }},
	FieldPlaquette:      {ScopeMission, func(r *Record) *Flag { return &r.After.Plaquette }},
	FieldRestitution:    {ScopeMission, func(r *Record) *Flag { return &r.After.Restitution }},
	FieldCR:             {ScopeMission, func(r *Record) *Flag { return &r.After.CR }},
	FieldEndOfRelation:  {ScopeMission, func(r *Record) *Flag { return &r.After.EndOfRelation }},
}

// Fields lists the canonical flag names in phase order.
func Fields() []string {
	return []string{
		FieldConflictCheck, FieldLabGroup, FieldLabClient,
		FieldCartoLabGroup, FieldCartoLabClient, FieldQAM, FieldLDM,
		FieldNOG, FieldChecklist, FieldReview, FieldSupervision,
		FieldNDS, FieldQMM, FieldPlaquette, FieldRestitution,
		FieldCR, FieldEndOfRelation,
	}
}

// FlagRef returns a pointer to the named flag on r, or nil when the field
// name is unknown.
func FlagRef(r *Record, field string) *Flag {
	info, ok := fields[field]
	if !ok {
		return nil
	}
	return info.ref(r)
}

// FieldScope reports at which level the named field lives.
func FieldScope(field string) (Scope, bool) {
	info, ok := fields[field]
	if !ok {
		return ScopeMission, false
	}
	return info.scope, true
}

// KnownField reports whether field is one of the canonical flag names.
func KnownField(field string) bool {
	_, ok := fields[field]
	return ok
}
