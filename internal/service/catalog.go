package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/broker"
	"github.com/librisapp/libris-server/internal/domain"
	domainerrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/store"
)

// TopicBookAdded is the broker topic carrying newly added books.
const TopicBookAdded = "book.added"

// CatalogService handles books, authors, and genre queries.
type CatalogService struct {
	store  *store.Store
	broker *broker.Broker
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store, broker *broker.Broker, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// AuthorInput names a book's author. Born only applies when the author is
// created by this call; an existing author keeps its stored year.
type AuthorInput struct {
	Name string `json:"name" validate:"required"`
	Born *int32 `json:"born"`
}

// AddBookRequest contains new book data. The author is named, not
// referenced: an unknown name creates the author on the fly.
type AddBookRequest struct {
	Title     string      `json:"title" validate:"required"`
	Author    AuthorInput `json:"author"`
	Published int32       `json:"published"`
	Genres    []string    `json:"genres"`
}

// BookFilter narrows AllBooks. Nil fields match everything. The author
// filter dominates: when both are set the genre is ignored.
type BookFilter struct {
	Author *string
	Genre  *string
}

// AddBook persists a new book for the authenticated user and publishes it
// to subscribers. The named author is created if absent; an existing
// author is reused as-is.
func (s *CatalogService) AddBook(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	author, created, err := s.store.FindOrCreateAuthor(ctx, req.Author.Name, req.Author.Born)
	if err != nil {
		return nil, domainerrors.Validation("Saving author failed").
			WithInvalidArgs(map[string]any{"author": req.Author.Name}).
			WithCause(err)
	}
	if created {
		s.logger.Info("author created",
			slog.String("author_id", author.ID),
			slog.String("name", author.Name),
		)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		ID:        bookID,
		Title:     req.Title,
		Published: req.Published,
		AuthorID:  author.ID,
		Genres:    req.Genres,
	}

	if err := s.store.Books.Create(ctx, book.ID, book); err != nil {
		return nil, domainerrors.Validation("Saving book failed").
			WithInvalidArgs(map[string]any{"title": req.Title, "author": req.Author.Name}).
			WithCause(err)
	}

	s.logger.Info("book added",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
		slog.String("author_id", author.ID),
	)

	// Publish only after the book is durably stored.
	s.broker.Publish(TopicBookAdded, book)

	return book, nil
}

// EditAuthor sets an author's birth year for the authenticated user. The
// year is overwritten unconditionally, including back to unset. An unknown
// name yields no author and no error.
func (s *CatalogService) EditAuthor(ctx context.Context, name string, setBornTo *int32) (*domain.Author, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	author, err := s.store.AuthorByName(ctx, name)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	author.Born = setBornTo
	if err := s.store.Authors.Update(ctx, author.ID, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	s.logger.Info("author updated",
		slog.String("author_id", author.ID),
		slog.String("name", author.Name),
	)

	return author, nil
}

// CountBooks returns the number of books in the catalog.
func (s *CatalogService) CountBooks(ctx context.Context) (int, error) {
	return s.store.Books.Count(ctx)
}

// CountAuthors returns the number of authors in the catalog.
func (s *CatalogService) CountAuthors(ctx context.Context) (int, error) {
	return s.store.Authors.Count(ctx)
}

// AllBooks lists books matching the filter. Filtering by an unknown author
// name yields an empty list, not an error.
func (s *CatalogService) AllBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	if filter.Author != nil {
		author, err := s.store.AuthorByName(ctx, *filter.Author)
		if err != nil {
			if domainerrors.Is(err, store.ErrNotFound) {
				return []*domain.Book{}, nil
			}
			return nil, fmt.Errorf("lookup author: %w", err)
		}
		return s.store.BooksByAuthor(ctx, author.ID)
	}

	books := []*domain.Book{}
	for book, err := range s.store.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		if filter.Genre != nil && !book.HasGenre(*filter.Genre) {
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

// AllAuthors lists every author in the catalog.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors := []*domain.Author{}
	for author, err := range s.store.Authors.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list authors: %w", err)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// AuthorByID fetches a single author.
func (s *CatalogService) AuthorByID(ctx context.Context, id string) (*domain.Author, error) {
	return s.store.Authors.Get(ctx, id)
}

// BookCountFor returns the number of books by one author.
func (s *CatalogService) BookCountFor(ctx context.Context, authorID string) (int, error) {
	return s.store.CountBooksByAuthor(ctx, authorID)
}

// Genres lists every distinct genre label across the catalog.
func (s *CatalogService) Genres(ctx context.Context) ([]string, error) {
	return s.store.Genres(ctx)
}
