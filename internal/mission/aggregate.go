package mission

import "fmt"

// Completion is a summed numerator/denominator for one node and phase.
// Summing counts (rather than averaging per-mission percentages) weights
// every flag equally, which is what the dashboard shows.
type Completion struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Percent returns the completion ratio 0-100, rounded up. An empty
// denominator yields 0, never a division error.
func (c Completion) Percent() int {
	if c.Total == 0 {
		return 0
	}
	return (c.Done*100 + c.Total - 1) / c.Total
}

// Literal returns the "done / total" tooltip string, empty when there is
// nothing to count.
func (c Completion) Literal() string {
	if c.Total == 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d", c.Done, c.Total)
}

func (c Completion) add(other Completion) Completion {
	return Completion{Done: c.Done + other.Done, Total: c.Total + other.Total}
}

func done(value string) bool {
	return value == StatusYes
}

// nogDone treats partner approval the same as done.
func nogDone(value string) bool {
	return value == StatusYes || value == StatusAssocie
}

func countFlag(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

// MissionCompletion counts only the mission's own flags for the given phase:
// qam+ldm before, nog+review+supervision during, nds+qmm+plaquette+
// restitution after. Checklist, cr and the scoped before-flags are excluded
// from mission denominators.
func MissionCompletion(r Record, phase Phase) Completion {
	switch phase {
	case PhaseBefore:
		return Completion{
			Done:  countFlag(done(r.Before.QAM.Value)) + countFlag(done(r.Before.LDM.Value)),
			Total: 2,
		}
	case PhaseDuring:
		return Completion{
			Done: countFlag(nogDone(r.During.NOG.Value)) +
				countFlag(done(r.During.Review.Value)) +
				countFlag(done(r.During.Supervision.Value)),
			Total: 3,
		}
	case PhaseAfter:
		return Completion{
			Done: countFlag(done(r.After.NDS.Value)) +
				countFlag(done(r.After.QMM.Value)) +
				countFlag(done(r.After.Plaquette.Value)) +
				countFlag(done(r.After.Restitution.Value)),
			Total: 4,
		}
	}
	return Completion{}
}

// ClientCompletion aggregates over all of one client's missions. For the
// before phase the client-scoped conflictCheck and labClient are counted
// exactly once, read from the first record. During/after have no scoped
// terms, so the result is the flag-weighted sum of the missions' own counts.
func ClientCompletion(missions []Record, phase Phase) Completion {
	if len(missions) == 0 {
		return Completion{}
	}
	var total Completion
	for _, r := range missions {
		total = total.add(MissionCompletion(r, phase))
	}
	if phase == PhaseBefore {
		first := missions[0]
		total.Done += countFlag(done(first.Before.ConflictCheck.Value))
		total.Done += countFlag(done(first.Before.LabClient.Value))
		total.Total += 2
	}
	return total
}

// GroupCompletion aggregates over all missions of one group. For the before
// phase the client-scoped flags are counted once per distinct client and the
// group's labGroup once, giving a denominator of 2M + 2C + 1.
func GroupCompletion(missions []Record, phase Phase) Completion {
	if len(missions) == 0 {
		return Completion{}
	}
	if phase != PhaseBefore {
		var total Completion
		for _, r := range missions {
			total = total.add(MissionCompletion(r, phase))
		}
		return total
	}

	var total Completion
	for _, clientMissions := range groupByClient(missions) {
		total = total.add(ClientCompletion(clientMissions, PhaseBefore))
	}
	total.Done += countFlag(done(missions[0].Before.LabGroup.Value))
	total.Total++
	return total
}

// groupByClient splits a group's missions per client, preserving first-seen
// order so the representative record stays the first one.
func groupByClient(missions []Record) [][]Record {
	index := make(map[string]int)
	var out [][]Record
	for _, r := range missions {
		i, ok := index[r.ClientID]
		if !ok {
			i = len(out)
			index[r.ClientID] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], r)
	}
	return out
}

// RecapCount is the per-flag "k of n" summary shown in group and client
// summary cells.
type RecapCount struct {
	Done     int  `json:"done"`
	Total    int  `json:"total"`
	Complete bool `json:"complete"`
}

// Recap counts how many units under the given missions have the single named
// flag set to done. Mission-scoped flags count missions; client-scoped flags
// count distinct clients (read once per client); group-scoped flags count
// distinct groups. Unknown fields return a zero count.
func Recap(missions []Record, field string) RecapCount {
	info, ok := fields[field]
	if !ok || len(missions) == 0 {
		return RecapCount{}
	}

	var units []Record
	switch info.scope {
	case ScopeMission:
		units = missions
	case ScopeClient:
		for _, clientMissions := range groupByClient(missions) {
			units = append(units, clientMissions[0])
		}
	case ScopeGroup:
		seen := make(map[string]bool)
		for _, r := range missions {
			if !seen[r.GroupID] {
				seen[r.GroupID] = true
				units = append(units, r)
			}
		}
	}

	count := RecapCount{Total: len(units)}
	for i := range units {
		if done(info.ref(&units[i]).Value) {
			count.Done++
		}
	}
	count.Complete = count.Done == count.Total
	return count
}
