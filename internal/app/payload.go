package app

import (
	"missiontrack/api/internal/filter"
	"missiontrack/api/internal/mission"
	"missiontrack/api/internal/paging"
)

// PhaseView is the rendered completion of one phase: the ceiling percent for
// the progress bar and the exact "done / total" literal for the tooltip.
type PhaseView struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Literal string `json:"literal"`
}

// CompletionView carries one PhaseView per workflow phase.
type CompletionView struct {
	Before PhaseView `json:"before"`
	During PhaseView `json:"during"`
	After  PhaseView `json:"after"`
}

type MissionView struct {
	mission.Record
	Completion CompletionView `json:"completion"`
}

type ClientView struct {
	ClientID     string         `json:"clientId"`
	ClientName   string         `json:"clientName"`
	Expanded     bool           `json:"expanded"`
	MissionCount int            `json:"missionCount"`
	Completion   CompletionView `json:"completion"`
	Missions     []MissionView  `json:"missions,omitempty"`
}

type GroupView struct {
	GroupID      string         `json:"groupId"`
	GroupName    string         `json:"groupName"`
	Expanded     bool           `json:"expanded"`
	ClientCount  int            `json:"clientCount"`
	MissionCount int            `json:"missionCount"`
	Completion   CompletionView `json:"completion"`
	Clients      []ClientView   `json:"clients,omitempty"`
}

// DashboardPayload is the full projection returned by every dashboard
// operation, so the client never has to merge partial updates.
type DashboardPayload struct {
	Groups       []GroupView   `json:"groups"`
	Filters      filter.Active `json:"filters"`
	Pager        paging.Pager  `json:"pager"`
	TotalPages   int           `json:"totalPages"`
	VisiblePages []string      `json:"visiblePages"`
	AllExpanded  bool          `json:"allExpanded"`
	Generation   int           `json:"generation"`
}

func phaseView(c mission.Completion) PhaseView {
	return PhaseView{Done: c.Done, Total: c.Total, Percent: c.Percent(), Literal: c.Literal()}
}

func missionCompletion(r mission.Record) CompletionView {
	return CompletionView{
		Before: phaseView(mission.MissionCompletion(r, mission.PhaseBefore)),
		During: phaseView(mission.MissionCompletion(r, mission.PhaseDuring)),
		After:  phaseView(mission.MissionCompletion(r, mission.PhaseAfter)),
	}
}

func clientCompletion(missions []mission.Record) CompletionView {
	return CompletionView{
		Before: phaseView(mission.ClientCompletion(missions, mission.PhaseBefore)),
		During: phaseView(mission.ClientCompletion(missions, mission.PhaseDuring)),
		After:  phaseView(mission.ClientCompletion(missions, mission.PhaseAfter)),
	}
}

func groupCompletion(missions []mission.Record) CompletionView {
	return CompletionView{
		Before: phaseView(mission.GroupCompletion(missions, mission.PhaseBefore)),
		During: phaseView(mission.GroupCompletion(missions, mission.PhaseDuring)),
		After:  phaseView(mission.GroupCompletion(missions, mission.PhaseAfter)),
	}
}

// buildPayload renders the paginated tree. Percentages are computed from the
// page window; client and mission counts come from the complete tree so a
// group spanning a page boundary still shows its full totals.
func buildPayload(st *dashboardState) DashboardPayload {
	payload := DashboardPayload{
		Groups:       []GroupView{},
		Filters:      st.filters,
		Pager:        st.pager,
		TotalPages:   st.pager.TotalPages(),
		VisiblePages: st.pager.VisiblePages(),
		AllExpanded:  st.complete.AllExpanded(),
		Generation:   st.generation,
	}

	for _, g := range st.paginated.Groups {
		gv := GroupView{
			GroupID:    g.GroupID,
			GroupName:  g.GroupName,
			Expanded:   g.Expanded,
			Completion: groupCompletion(g.GroupMissions()),
		}
		if full := st.complete.FindGroup(g.GroupID); full != nil {
			gv.ClientCount, gv.MissionCount = full.Counts()
		} else {
			gv.ClientCount, gv.MissionCount = g.Counts()
		}

		if g.Expanded {
			for _, c := range g.Clients {
				cv := ClientView{
					ClientID:     c.ClientID,
					ClientName:   c.ClientName,
					Expanded:     c.Expanded,
					MissionCount: len(c.Missions),
					Completion:   clientCompletion(c.Missions),
				}
				if full := st.complete.FindClient(g.GroupID, c.ClientID); full != nil {
					cv.MissionCount = len(full.Missions)
				}
				if c.Expanded {
					for _, m := range c.Missions {
						cv.Missions = append(cv.Missions, MissionView{
							Record:     m,
							Completion: missionCompletion(m),
						})
					}
				}
				gv.Clients = append(gv.Clients, cv)
			}
		}
		payload.Groups = append(payload.Groups, gv)
	}

	return payload
}
