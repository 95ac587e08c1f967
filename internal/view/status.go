package view

import "missiontrack/api/internal/mission"

// Level identifies the hierarchy level a status change targets.
type Level int

const (
	LevelGroup Level = iota
	LevelClient
	LevelMission
)

// ParseLevel maps the wire-level strings onto the tagged variant.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "group", "Groupe":
		return LevelGroup, true
	case "client", "Dossier":
		return LevelClient, true
	case "mission", "Mission":
		return LevelMission, true
	}
	return LevelMission, false
}

// StatusPatch describes one flag change to replay onto the trees after the
// backend accepted it, so the aggregation reflects the change without a
// refetch.
type StatusPatch struct {
	Level    Level
	TargetID string
	Field    string
	Value    string
}

func (p StatusPatch) matches(r *mission.Record) bool {
	switch p.Level {
	case LevelGroup:
		return r.GroupID == p.TargetID
	case LevelClient:
		return r.ClientID == p.TargetID
	case LevelMission:
		return r.MissionID == p.TargetID
	}
	return false
}

// ApplyStatus overwrites the named flag on every record matching the patch
// target, dispatching through the mission field table. It returns the number
// of records touched; zero means the target or field was unknown and nothing
// changed. Patching every matching record keeps the denormalization
// invariant: a client-scoped flag stays identical on all of the client's
// missions.
func (t *Tree) ApplyStatus(patch StatusPatch) int {
	if !mission.KnownField(patch.Field) {
		return 0
	}
	patched := 0
	for _, g := range t.Groups {
		for _, c := range g.Clients {
			for i := range c.Missions {
				r := &c.Missions[i]
				if !patch.matches(r) {
					continue
				}
				mission.FlagRef(r, patch.Field).Value = patch.Value
				patched++
			}
		}
	}
	return patched
}

// ApplyStatusFlat replays the same patch onto a flat record slice, used to
// keep the service's backing list consistent with the trees.
func ApplyStatusFlat(missions []mission.Record, patch StatusPatch) int {
	if !mission.KnownField(patch.Field) {
		return 0
	}
	patched := 0
	for i := range missions {
		if !patch.matches(&missions[i]) {
			continue
		}
		mission.FlagRef(&missions[i], patch.Field).Value = patch.Value
		patched++
	}
	return patched
}
