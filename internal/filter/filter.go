// Package filter applies the side panel's categorical filters to the flat
// mission list.
package filter

import "missiontrack/api/internal/mission"

// Dimension keys, aligned with the option endpoints consumed by the panel.
const (
	DimGroupe         = "groupe"
	DimDossier        = "dossier"
	DimBureau         = "bureau"
	DimEtatMission    = "etat_mission"
	DimEtatDossier    = "etat_dossier"
	DimAssocie        = "associe"
	DimFormeJuridique = "forme_juridique"
	DimSectionNAF     = "section_naf"
	DimMoisCloture    = "mois_cloture"
	DimCodeMission    = "code_mission"
	DimMillesime      = "millesime"
	DimDMCM           = "dmcm"
)

// Option is one selectable {value,label} pair for a dimension.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Active maps a dimension key to its accepted values. An empty list leaves
// the dimension inactive.
type Active map[string][]string

// attributes returns the record attributes a dimension matches against. The
// dmcm dimension is the only one reading two attributes: a mission passes
// when either matches (OR inside the dimension, AND across dimensions).
var attributes = map[string]func(*mission.Record) []string{
	DimGroupe:         func(r *mission.Record) []string { return []string{r.GroupID} },
	DimDossier:        func(r *mission.Record) []string { return []string{r.ClientID} },
	DimBureau:         func(r *mission.Record) []string { return []string{r.Bureau} },
	DimEtatMission:    func(r *mission.Record) []string { return []string{r.EtatMission} },
	DimEtatDossier:    func(r *mission.Record) []string { return []string{r.EtatDossier} },
	DimAssocie:        func(r *mission.Record) []string { return []string{r.AssocieID} },
	DimFormeJuridique: func(r *mission.Record) []string { return []string{r.FormeJuridique} },
	DimSectionNAF:     func(r *mission.Record) []string { return []string{r.SectionNAF} },
	DimMoisCloture:    func(r *mission.Record) []string { return []string{r.MoisCloture} },
	DimCodeMission:    func(r *mission.Record) []string { return []string{r.Code} },
	DimMillesime:      func(r *mission.Record) []string { return []string{r.Millesime} },
	DimDMCM:           func(r *mission.Record) []string { return []string{r.DMCMID, r.DMCM2ID} },
}

// Dimensions lists the known dimension keys.
func Dimensions() []string {
	return []string{
		DimGroupe, DimDossier, DimBureau, DimEtatMission, DimEtatDossier,
		DimAssocie, DimFormeJuridique, DimSectionNAF, DimMoisCloture,
		DimCodeMission, DimMillesime, DimDMCM,
	}
}

// Known reports whether the dimension key is one the panel serves.
func Known(dimension string) bool {
	_, ok := attributes[dimension]
	return ok
}

// Apply keeps the missions passing every active dimension, preserving the
// input order. Matching is exact value membership, never substring. Unknown
// dimension keys are ignored. A nil or all-empty map returns the input
// unchanged.
func Apply(missions []mission.Record, active Active) []mission.Record {
	if !anyActive(active) {
		return missions
	}
	out := make([]mission.Record, 0, len(missions))
	for i := range missions {
		if matches(&missions[i], active) {
			out = append(out, missions[i])
		}
	}
	return out
}

func anyActive(active Active) bool {
	for dim, values := range active {
		if len(values) > 0 && Known(dim) {
			return true
		}
	}
	return false
}

func matches(r *mission.Record, active Active) bool {
	for dim, accepted := range active {
		if len(accepted) == 0 {
			continue
		}
		extract, ok := attributes[dim]
		if !ok {
			continue
		}
		if !anyMember(extract(r), accepted) {
			return false
		}
	}
	return true
}

func anyMember(values, accepted []string) bool {
	for _, v := range values {
		for _, a := range accepted {
			if v == a {
				return true
			}
		}
	}
	return false
}
