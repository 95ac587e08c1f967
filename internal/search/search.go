package search

// Result is a single typeahead hit returned to the caller.
type Result struct {
	MissionID  string `json:"missionId"`
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Code       string `json:"code"`
	Label      string `json:"label"`
	Millesime  string `json:"millesime"`
}

// Query describes a search request.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a mission search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// MissionRecord is the data we index for a mission.
type MissionRecord struct {
	ID         string `json:"id"`
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Code       string `json:"code"`
	Label      string `json:"label"`
	Millesime  string `json:"millesime"`
}
