package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/id"
)

// findOrCreateAttempts bounds the retry loop when concurrent creates race on
// the same author name.
const findOrCreateAttempts = 3

// AuthorByName looks up an author by exact name.
// Returns ErrNotFound when no author carries the name.
func (s *Store) AuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.Authors.GetByIndex(ctx, "name", name)
}

// FindOrCreateAuthor returns the author with the given name, creating it with
// the supplied birth year when absent. The born value is only applied on
// creation; an existing author keeps its stored year.
//
// Concurrent calls for the same new name are arbitrated by the unique name
// index: the loser of the race observes the conflict and re-reads the winner,
// so at most one author record exists per name.
func (s *Store) FindOrCreateAuthor(ctx context.Context, name string, born *int32) (*domain.Author, bool, error) {
	for attempt := 0; attempt < findOrCreateAttempts; attempt++ {
		author, err := s.Authors.GetByIndex(ctx, "name", name)
		if err == nil {
			return author, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, fmt.Errorf("lookup author %q: %w", name, err)
		}

		authorID, err := id.Generate("author")
		if err != nil {
			return nil, false, err
		}

		created := &domain.Author{ID: authorID, Name: name, Born: born}
		err = s.Authors.Create(ctx, authorID, created)
		if err == nil {
			return created, true, nil
		}
		if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrConflict) {
			// Lost the race; retry the lookup against the winner.
			continue
		}
		return nil, false, fmt.Errorf("create author %q: %w", name, err)
	}

	// Every attempt raced both the lookup and the create.
	return nil, false, fmt.Errorf("find-or-create author %q: %w", name, ErrConflict)
}

// BooksByAuthor returns all books referencing the given author id.
func (s *Store) BooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0)
	for book, err := range s.Books.ListByIndex(ctx, "author", authorID) {
		if err != nil {
			return nil, fmt.Errorf("list books by author: %w", err)
		}
		books = append(books, book)
	}
	return books, nil
}

// CountBooksByAuthor counts the books referencing the given author id.
// Computed per call; callers accept the scan cost at this scale.
func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	count := 0
	for _, err := range s.Books.ListByIndex(ctx, "author", authorID) {
		if err != nil {
			return 0, fmt.Errorf("count books by author: %w", err)
		}
		count++
	}
	return count, nil
}

// Genres scans every book and returns the distinct genre labels in first-seen
// order. There is no caching; every call walks the collection.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	genres := make([]string, 0)

	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("scan genres: %w", err)
		}
		for _, genre := range book.Genres {
			if seen[genre] {
				continue
			}
			seen[genre] = true
			genres = append(genres, genre)
		}
	}

	return genres, nil
}
