package models

// Account is an existing ledger account as returned by the backend.
type Account struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Currency string `json:"currency" yaml:"currency"`
}

// Category is an existing ledger category. Top-level categories carry their
// subcategories in Children.
type Category struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Type     string     `json:"type" yaml:"type"`
	ParentID *string    `json:"parent_id" yaml:"parent_id,omitempty"`
	Children []Category `json:"children,omitempty" yaml:"children,omitempty"`
}
