package domain

import "slices"

// Book represents a catalog entry. Books reference their author by ID and are
// immutable once created; there is no edit or delete operation.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int32    `json:"published"`
	AuthorID  string   `json:"author_id"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether the book carries the exact genre label.
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genres, genre)
}
