// Package graph defines the GraphQL schema and its resolvers. Resolvers
// stay thin: argument shapes in, service calls, resolver wrappers out.
package graph

import (
	"context"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/broker"
	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/service"
)

// Resolver is the root resolver for queries, mutations, and subscriptions.
type Resolver struct {
	catalog *service.CatalogService
	auth    *service.AuthService
	broker  *broker.Broker
	logger  *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(catalog *service.CatalogService, authSvc *service.AuthService, broker *broker.Broker, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		auth:    authSvc,
		broker:  broker,
		logger:  logger,
	}
}

// NewSchema parses the schema against the root resolver. Panics on a
// schema/resolver mismatch, so a bad build fails at startup.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r, graphql.UseStringDescriptions())
}

// BookCount resolves Query.bookCount.
func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	count, err := r.catalog.CountBooks(ctx)
	if err != nil {
		return 0, err
	}
	return int32(count), nil
}

// AuthorCount resolves Query.authorCount.
func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	count, err := r.catalog.CountAuthors(ctx)
	if err != nil {
		return 0, err
	}
	return int32(count), nil
}

// AllBooks resolves Query.allBooks with optional author and genre filters.
func (r *Resolver) AllBooks(ctx context.Context, args struct {
	Author *string
	Genre  *string
}) ([]*BookResolver, error) {
	books, err := r.catalog.AllBooks(ctx, service.BookFilter{
		Author: args.Author,
		Genre:  args.Genre,
	})
	if err != nil {
		return nil, err
	}
	return r.wrapBooks(books), nil
}

// AllAuthors resolves Query.allAuthors.
func (r *Resolver) AllAuthors(ctx context.Context) ([]*AuthorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*AuthorResolver, 0, len(authors))
	for _, author := range authors {
		resolvers = append(resolvers, &AuthorResolver{author: author, catalog: r.catalog})
	}
	return resolvers, nil
}

// AllGenres resolves Query.allGenres.
func (r *Resolver) AllGenres(ctx context.Context) ([]string, error) {
	return r.catalog.Genres(ctx)
}

// Me resolves Query.me to the authenticated user, or null for anonymous
// requests.
func (r *Resolver) Me(ctx context.Context) (*UserResolver, error) {
	user, ok := auth.UserFrom(ctx)
	if !ok {
		return nil, nil
	}
	return &UserResolver{user: user}, nil
}

// AuthorInput mirrors the schema's AuthorInput object.
type AuthorInput struct {
	Name string
	Born *int32
}

// AddBook resolves Mutation.addBook.
func (r *Resolver) AddBook(ctx context.Context, args struct {
	Title     string
	Author    AuthorInput
	Published int32
	Genres    []string
}) (*BookResolver, error) {
	book, err := r.catalog.AddBook(ctx, service.AddBookRequest{
		Title:     args.Title,
		Author:    service.AuthorInput{Name: args.Author.Name, Born: args.Author.Born},
		Published: args.Published,
		Genres:    args.Genres,
	})
	if err != nil {
		return nil, err
	}
	return &BookResolver{book: book, catalog: r.catalog}, nil
}

// EditAuthor resolves Mutation.editAuthor. An unknown name resolves to
// null rather than an error.
func (r *Resolver) EditAuthor(ctx context.Context, args struct {
	Name      string
	SetBornTo *int32
}) (*AuthorResolver, error) {
	author, err := r.catalog.EditAuthor(ctx, args.Name, args.SetBornTo)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, nil
	}
	return &AuthorResolver{author: author, catalog: r.catalog}, nil
}

// CreateUser resolves Mutation.createUser.
func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username      string
	FavoriteGenre string
}) (*UserResolver, error) {
	user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
		Username:      args.Username,
		FavoriteGenre: args.FavoriteGenre,
	})
	if err != nil {
		return nil, err
	}
	return &UserResolver{user: user}, nil
}

// Login resolves Mutation.login.
func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*TokenResolver, error) {
	result, err := r.auth.Login(ctx, service.LoginRequest{
		Username: args.Username,
		Password: args.Password,
	})
	if err != nil {
		return nil, err
	}
	return &TokenResolver{value: result.Token, user: result.User}, nil
}

// BookAdded resolves Subscription.bookAdded. Each subscriber gets its own
// broker subscription; it detaches when the client disconnects.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan *BookResolver, error) {
	sub := r.broker.Subscribe(service.TopicBookAdded)
	out := make(chan *BookResolver)

	go func() {
		defer sub.Cancel()
		defer close(out)

		for {
			select {
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				book, ok := msg.Payload.(*domain.Book)
				if !ok {
					r.logger.Error("unexpected payload on book topic")
					continue
				}
				select {
				case out <- &BookResolver{book: book, catalog: r.catalog}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (r *Resolver) wrapBooks(books []*domain.Book) []*BookResolver {
	resolvers := make([]*BookResolver, 0, len(books))
	for _, book := range books {
		resolvers = append(resolvers, &BookResolver{book: book, catalog: r.catalog})
	}
	return resolvers
}
