package model

// Link is a hyperlink found in an HTML document
type Link struct {
	URL        string `json:"url"`            // Absolute URL after resolving against the base
	Host       string `json:"host,omitempty"` // Lowercased host
	Text       string `json:"text,omitempty"` // Anchor text
	IsSameHost bool   `json:"is_same_host"`   // Same host as the document base
}
