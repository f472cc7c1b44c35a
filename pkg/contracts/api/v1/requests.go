// Package api contains API contract definitions for the dashboard.
// Version v1 represents the current stable API version.
package api

// LoadURLRequest asks the server to fetch a CSV from a remote URL
type LoadURLRequest struct {
	URL string `json:"url" validate:"omitempty,url,httpurl"`
}

// LoadResponse describes the dataset produced by a successful load
type LoadResponse struct {
	DatasetID string `json:"dataset_id"`
	Label     string `json:"label"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Rows      int    `json:"rows"`
	Dropped   int    `json:"dropped"`
	LoadedAt  string `json:"loaded_at"`
}
