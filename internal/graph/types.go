package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/service"
)

// BookResolver resolves the Book type.
type BookResolver struct {
	book    *domain.Book
	catalog *service.CatalogService
}

func (r *BookResolver) ID() graphql.ID {
	return graphql.ID(r.book.ID)
}

func (r *BookResolver) Title() string {
	return r.book.Title
}

func (r *BookResolver) Published() int32 {
	return r.book.Published
}

func (r *BookResolver) Genres() []string {
	return r.book.Genres
}

// Author resolves the book's author record. Books store the author by ID,
// so this is a lookup per book.
func (r *BookResolver) Author(ctx context.Context) (*AuthorResolver, error) {
	author, err := r.catalog.AuthorByID(ctx, r.book.AuthorID)
	if err != nil {
		return nil, err
	}
	return &AuthorResolver{author: author, catalog: r.catalog}, nil
}

// AuthorResolver resolves the Author type.
type AuthorResolver struct {
	author  *domain.Author
	catalog *service.CatalogService
}

func (r *AuthorResolver) ID() graphql.ID {
	return graphql.ID(r.author.ID)
}

func (r *AuthorResolver) Name() string {
	return r.author.Name
}

func (r *AuthorResolver) Born() *int32 {
	return r.author.Born
}

// BookCount counts the author's books on demand.
func (r *AuthorResolver) BookCount(ctx context.Context) (int32, error) {
	count, err := r.catalog.BookCountFor(ctx, r.author.ID)
	if err != nil {
		return 0, err
	}
	return int32(count), nil
}

// UserResolver resolves the User type.
type UserResolver struct {
	user *domain.User
}

func (r *UserResolver) ID() graphql.ID {
	return graphql.ID(r.user.ID)
}

func (r *UserResolver) Username() string {
	return r.user.Username
}

func (r *UserResolver) FavoriteGenre() string {
	return r.user.FavoriteGenre
}

// TokenResolver resolves the Token type returned by login.
type TokenResolver struct {
	value string
	user  *domain.User
}

func (r *TokenResolver) Value() string {
	return r.value
}

func (r *TokenResolver) User() *UserResolver {
	return &UserResolver{user: r.user}
}
