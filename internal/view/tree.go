// Package view maintains the dual-tree projection of the dashboard table:
// a complete tree built from the whole filtered mission list, authoritative
// for expand/collapse state and summary counts, and a paginated tree rebuilt
// from the current page window. The two trees are independent ownership
// domains reconciled by group/client identifiers, never by shared pointers.
package view

import "missiontrack/api/internal/mission"

// ClientGroup collects the missions of one client within a group.
type ClientGroup struct {
	ClientID   string           `json:"clientId"`
	ClientName string           `json:"clientName"`
	Expanded   bool             `json:"expanded"`
	Missions   []mission.Record `json:"missions"`
}

// Group collects the clients of one holding-style group.
type Group struct {
	GroupID   string         `json:"groupId"`
	GroupName string         `json:"groupName"`
	Expanded  bool           `json:"expanded"`
	Clients   []*ClientGroup `json:"clients"`
}

// Tree is one projection of the mission list.
type Tree struct {
	Groups []*Group `json:"groups"`
}

// Build groups the flat records by group then client, preserving first-seen
// order. Every node starts with the given expanded default; records are
// copied so the tree owns its data.
func Build(missions []mission.Record, expanded bool) *Tree {
	tree := &Tree{}
	groupIndex := make(map[string]*Group)
	clientIndex := make(map[string]map[string]*ClientGroup)

	for _, r := range missions {
		g, ok := groupIndex[r.GroupID]
		if !ok {
			g = &Group{GroupID: r.GroupID, GroupName: r.GroupName, Expanded: expanded}
			groupIndex[r.GroupID] = g
			clientIndex[r.GroupID] = make(map[string]*ClientGroup)
			tree.Groups = append(tree.Groups, g)
		}
		c, ok := clientIndex[r.GroupID][r.ClientID]
		if !ok {
			c = &ClientGroup{ClientID: r.ClientID, ClientName: r.ClientName, Expanded: expanded}
			clientIndex[r.GroupID][r.ClientID] = c
			g.Clients = append(g.Clients, c)
		}
		c.Missions = append(c.Missions, r)
	}
	return tree
}

// FindGroup returns the group node with the given id, or nil.
func (t *Tree) FindGroup(groupID string) *Group {
	for _, g := range t.Groups {
		if g.GroupID == groupID {
			return g
		}
	}
	return nil
}

// FindClient returns the client node under the given group, or nil.
func (t *Tree) FindClient(groupID, clientID string) *ClientGroup {
	g := t.FindGroup(groupID)
	if g == nil {
		return nil
	}
	for _, c := range g.Clients {
		if c.ClientID == clientID {
			return c
		}
	}
	return nil
}

// Missions returns all records in the tree in render order.
func (t *Tree) Missions() []mission.Record {
	var out []mission.Record
	for _, g := range t.Groups {
		for _, c := range g.Clients {
			out = append(out, c.Missions...)
		}
	}
	return out
}

// GroupMissions returns the records under one group in render order.
func (g *Group) GroupMissions() []mission.Record {
	var out []mission.Record
	for _, c := range g.Clients {
		out = append(out, c.Missions...)
	}
	return out
}

// Counts returns the client and mission totals of the group, shown in the
// group summary row. On the complete tree these are the authoritative
// totals.
func (g *Group) Counts() (clients, missions int) {
	clients = len(g.Clients)
	for _, c := range g.Clients {
		missions += len(c.Missions)
	}
	return clients, missions
}

// SyncFrom copies expand flags from the complete tree onto t, matching
// group and client nodes by id. Nodes without a counterpart keep their
// default (expanded), which only happens if the trees were built out of
// sequence.
func (t *Tree) SyncFrom(complete *Tree) {
	for _, g := range t.Groups {
		source := complete.FindGroup(g.GroupID)
		if source == nil {
			g.Expanded = true
			continue
		}
		g.Expanded = source.Expanded
		for _, c := range g.Clients {
			sourceClient := complete.FindClient(g.GroupID, c.ClientID)
			if sourceClient == nil {
				c.Expanded = true
				continue
			}
			c.Expanded = sourceClient.Expanded
		}
	}
}

// ToggleGroup flips the group's expanded flag on both trees. Callers must
// have already filtered out clicks originating from status-cell controls;
// the projector assumes the toggle is intentional. Returns false when the
// group exists in neither tree.
func ToggleGroup(paginated, complete *Tree, groupID string) bool {
	source := complete.FindGroup(groupID)
	if source == nil {
		return false
	}
	source.Expanded = !source.Expanded
	if g := paginated.FindGroup(groupID); g != nil {
		g.Expanded = source.Expanded
	}
	return true
}

// ToggleClient flips the client's expanded flag on both trees, matching by
// the (groupId, clientId) pair.
func ToggleClient(paginated, complete *Tree, groupID, clientID string) bool {
	source := complete.FindClient(groupID, clientID)
	if source == nil {
		return false
	}
	source.Expanded = !source.Expanded
	if c := paginated.FindClient(groupID, clientID); c != nil {
		c.Expanded = source.Expanded
	}
	return true
}

// SetAll sets every group and client node of both trees to the given state.
// This backs the single expand-all/collapse-all button, so no per-node
// gating applies.
func SetAll(complete, paginated *Tree, expanded bool) {
	for _, t := range []*Tree{complete, paginated} {
		if t == nil {
			continue
		}
		for _, g := range t.Groups {
			g.Expanded = expanded
			for _, c := range g.Clients {
				c.Expanded = expanded
			}
		}
	}
}

// AllExpanded reports whether every group and every client of the tree is
// expanded. Driven off the complete tree, it selects the label of the
// expand-all toggle.
func (t *Tree) AllExpanded() bool {
	for _, g := range t.Groups {
		if !g.Expanded {
			return false
		}
		for _, c := range g.Clients {
			if !c.Expanded {
				return false
			}
		}
	}
	return true
}

// ExpandedKeys returns the node keys currently expanded, for persistence.
// Group keys are "g:<groupId>", client keys "c:<groupId>/<clientId>".
func (t *Tree) ExpandedKeys() map[string]bool {
	out := make(map[string]bool)
	for _, g := range t.Groups {
		out["g:"+g.GroupID] = g.Expanded
		for _, c := range g.Clients {
			out["c:"+g.GroupID+"/"+c.ClientID] = c.Expanded
		}
	}
	return out
}

// RestoreExpanded applies a previously persisted key set onto the tree.
// Unknown keys are ignored; nodes absent from the set keep their current
// state.
func (t *Tree) RestoreExpanded(keys map[string]bool) {
	if len(keys) == 0 {
		return
	}
	for _, g := range t.Groups {
		if v, ok := keys["g:"+g.GroupID]; ok {
			g.Expanded = v
		}
		for _, c := range g.Clients {
			if v, ok := keys["c:"+g.GroupID+"/"+c.ClientID]; ok {
				c.Expanded = v
			}
		}
	}
}
