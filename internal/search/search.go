package search

// Result is a single search hit returned to the caller.
type Result struct {
	TaskID       string `json:"taskId"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	SectionID    string `json:"sectionId"`
	SectionTitle string `json:"sectionTitle"`
}

// Query describes a search request.
type Query struct {
	Text  string
	Limit int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over the task catalog.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// TaskRecord is the data we index for a checklist task.
type TaskRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	SectionID    string `json:"sectionId"`
	SectionTitle string `json:"sectionTitle"`
}
