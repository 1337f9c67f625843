package domain

// MergeRequest is a decoded and validated mail-merge request.
type MergeRequest struct {
	Template []byte
	Data     map[string]string
}

// MergeResult holds the populated document and the merge fields found in the template.
type MergeResult struct {
	Document []byte
	Fields   []string
}

// Merger is the mail-merge capability used by the HTTP layer.
type Merger interface {
	// ListFields enumerates the merge-field names present in the template.
	ListFields(template []byte) ([]string, error)
	// Merge returns a copy of the template with every field named in values
	// replaced by its value.
	Merge(template []byte, values map[string]string) ([]byte, error)
}
