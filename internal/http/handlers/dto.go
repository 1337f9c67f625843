package handlers

// MergeResponse is the success body of POST /api/document-merge.
type MergeResponse struct {
	Success  bool     `json:"success"`
	Document string   `json:"document"`
	Fields   []string `json:"fields"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
