// Package domain contains the core business entities for the Libris catalog.
package domain

// Author represents a book author in the catalog.
//
// Authors come into existence implicitly the first time a book is added under
// a previously unseen name; the only mutation afterwards is the birth year.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Born *int32 `json:"born,omitempty"`
}
