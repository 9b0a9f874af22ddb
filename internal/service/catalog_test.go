package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
	domainerrors "github.com/librisapp/libris-server/internal/errors"
)

func ptr[T any](v T) *T { return &v }

func addTestBook(t *testing.T, env *testEnv, ctx context.Context, title, author string, published int32, genres ...string) *domain.Book {
	t.Helper()

	book, err := env.Catalog.AddBook(ctx, AddBookRequest{
		Title:     title,
		Author:    AuthorInput{Name: author},
		Published: published,
		Genres:    genres,
	})
	require.NoError(t, err)
	return book
}

func TestAddBook(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	book := addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy", "classic")

	assert.True(t, strings.HasPrefix(book.ID, "book-"))
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, int32(1937), book.Published)
	assert.Equal(t, []string{"fantasy", "classic"}, book.Genres)

	author, err := env.Store.AuthorByName(ctx, "J. R. R. Tolkien")
	require.NoError(t, err)
	assert.Equal(t, author.ID, book.AuthorID)
	assert.Nil(t, author.Born)
}

func TestAddBook_RequiresAuthentication(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.Catalog.AddBook(context.Background(), AddBookRequest{
		Title:  "The Hobbit",
		Author: AuthorInput{Name: "J. R. R. Tolkien"},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthenticated))

	// The check runs before any write: neither an author nor a book
	// exists afterwards.
	books, err := env.Catalog.CountBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, books)

	authors, err := env.Catalog.CountAuthors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, authors)
}

func TestAddBook_MissingTitle(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	_, err := env.Catalog.AddBook(ctx, AddBookRequest{
		Author: AuthorInput{Name: "Stephen King"},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestAddBook_ShortNamesAccepted(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	// Titles and author names have no length floor.
	book := addTestBook(t, env, ctx, "T1", "A", 2000, "sci-fi")
	assert.Equal(t, "T1", book.Title)

	author, err := env.Catalog.AuthorByID(ctx, book.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, "A", author.Name)
}

func TestAddBook_BornAppliesOnlyOnCreation(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	first, err := env.Catalog.AddBook(ctx, AddBookRequest{
		Title:     "The Hobbit",
		Author:    AuthorInput{Name: "J. R. R. Tolkien"},
		Published: 1937,
		Genres:    []string{"fantasy"},
	})
	require.NoError(t, err)

	author, err := env.Catalog.AuthorByID(ctx, first.AuthorID)
	require.NoError(t, err)
	assert.Nil(t, author.Born)

	// A birth year supplied for an existing author is silently ignored.
	_, err = env.Catalog.AddBook(ctx, AddBookRequest{
		Title:     "The Silmarillion",
		Author:    AuthorInput{Name: "J. R. R. Tolkien", Born: ptr(int32(1892))},
		Published: 1977,
		Genres:    []string{"fantasy"},
	})
	require.NoError(t, err)

	author, err = env.Catalog.AuthorByID(ctx, first.AuthorID)
	require.NoError(t, err)
	assert.Nil(t, author.Born)

	count, err := env.Catalog.BookCountFor(ctx, first.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddBook_ReusesExistingAuthor(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	first := addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")
	second := addTestBook(t, env, ctx, "The Silmarillion", "J. R. R. Tolkien", 1977, "fantasy")

	assert.Equal(t, first.AuthorID, second.AuthorID)

	count, err := env.Catalog.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddBook_PublishesAfterPersist(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	sub := env.Broker.Subscribe(TopicBookAdded)
	defer sub.Cancel()

	book := addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")

	select {
	case msg := <-sub.C:
		published, ok := msg.Payload.(*domain.Book)
		require.True(t, ok)
		assert.Equal(t, book.ID, published.ID)

		// The published book is already readable.
		_, err := env.Store.Books.Get(ctx, published.ID)
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published book")
	}
}

func TestAddBook_ConcurrentNewAuthor(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	// Concurrent adds racing on a brand-new author name must not lose a
	// book, and the unique name index collapses the race to one author.
	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = env.Catalog.AddBook(ctx, AddBookRequest{
				Title:     fmt.Sprintf("Volume %d", n),
				Author:    AuthorInput{Name: "Émile Zola"},
				Published: 1871,
				Genres:    []string{"classic"},
			})
		}(i)
	}
	wg.Wait()

	for n, err := range errs {
		require.NoError(t, err, "add %d failed", n)
	}

	books, err := env.Catalog.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, books)

	authors, err := env.Catalog.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, authors)

	author, err := env.Store.AuthorByName(ctx, "Émile Zola")
	require.NoError(t, err)

	count, err := env.Catalog.BookCountFor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, count)
}

func TestEditAuthor(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")

	author, err := env.Catalog.EditAuthor(ctx, "J. R. R. Tolkien", ptr(int32(1892)))
	require.NoError(t, err)
	require.NotNil(t, author.Born)
	assert.Equal(t, int32(1892), *author.Born)

	// The year can be cleared again.
	author, err = env.Catalog.EditAuthor(ctx, "J. R. R. Tolkien", nil)
	require.NoError(t, err)
	assert.Nil(t, author.Born)
}

func TestEditAuthor_UnknownNameYieldsNil(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	author, err := env.Catalog.EditAuthor(ctx, "Nobody", ptr(int32(1900)))
	require.NoError(t, err)
	assert.Nil(t, author)
}

func TestEditAuthor_RequiresAuthentication(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.Catalog.EditAuthor(context.Background(), "J. R. R. Tolkien", ptr(int32(1892)))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthenticated))
}

func TestCounts(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")
	addTestBook(t, env, ctx, "The Silmarillion", "J. R. R. Tolkien", 1977, "fantasy")
	addTestBook(t, env, ctx, "Good Omens", "Terry Pratchett", 1990, "comedy", "fantasy")

	books, err := env.Catalog.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, books)

	authors, err := env.Catalog.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, authors)
}

func TestAllBooks_Filters(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy", "classic")
	addTestBook(t, env, ctx, "The Silmarillion", "J. R. R. Tolkien", 1977, "fantasy")
	addTestBook(t, env, ctx, "Good Omens", "Terry Pratchett", 1990, "comedy", "fantasy")

	all, err := env.Catalog.AllBooks(ctx, BookFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byAuthor, err := env.Catalog.AllBooks(ctx, BookFilter{Author: ptr("J. R. R. Tolkien")})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byGenre, err := env.Catalog.AllBooks(ctx, BookFilter{Genre: ptr("comedy")})
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "Good Omens", byGenre[0].Title)

	// The author filter dominates: the genre argument is ignored when
	// both are supplied.
	both, err := env.Catalog.AllBooks(ctx, BookFilter{Author: ptr("J. R. R. Tolkien"), Genre: ptr("comedy")})
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestAllBooks_UnknownAuthorYieldsEmpty(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")

	books, err := env.Catalog.AllBooks(ctx, BookFilter{Author: ptr("Nobody")})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestAllAuthors(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")
	addTestBook(t, env, ctx, "Good Omens", "Terry Pratchett", 1990, "comedy")

	authors, err := env.Catalog.AllAuthors(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 2)
}

func TestBookCountFor(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	book := addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy")
	addTestBook(t, env, ctx, "The Silmarillion", "J. R. R. Tolkien", 1977, "fantasy")

	count, err := env.Catalog.BookCountFor(ctx, book.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGenres(t *testing.T) {
	env := setupTestEnv(t)
	ctx, _ := authedContext(t, env)

	addTestBook(t, env, ctx, "The Hobbit", "J. R. R. Tolkien", 1937, "fantasy", "classic")
	addTestBook(t, env, ctx, "Good Omens", "Terry Pratchett", 1990, "comedy", "fantasy")

	genres, err := env.Catalog.Genres(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fantasy", "classic", "comedy"}, genres)
}
