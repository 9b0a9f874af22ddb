package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "libris-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestEntity_CreateAndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := &domain.User{ID: "user-001", Username: "mika", FavoriteGenre: "sci-fi"}

	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	got, err := s.Users.Get(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, "mika", got.Username)
	assert.Equal(t, "sci-fi", got.FavoriteGenre)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.Users.Get(context.Background(), "user-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_Create_DuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := &domain.User{ID: "user-001", Username: "mika", FavoriteGenre: "sci-fi"}
	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	err := s.Users.Create(ctx, user.ID, user)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEntity_Create_UniqueIndexConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, "user-001", &domain.User{ID: "user-001", Username: "mika", FavoriteGenre: "sci-fi"}))

	err := s.Users.Create(ctx, "user-002", &domain.User{ID: "user-002", Username: "mika", FavoriteGenre: "crime"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEntity_GetByIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, "user-001", &domain.User{ID: "user-001", Username: "mika", FavoriteGenre: "sci-fi"}))

	got, err := s.Users.GetByIndex(ctx, "username", "mika")
	require.NoError(t, err)
	assert.Equal(t, "user-001", got.ID)

	_, err = s.Users.GetByIndex(ctx, "username", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_Update_ReindexesUniqueValues(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	author := &domain.Author{ID: "author-001", Name: "Ursula K. Le Guin"}
	require.NoError(t, s.Authors.Create(ctx, author.ID, author))

	author.Name = "U. K. Le Guin"
	require.NoError(t, s.Authors.Update(ctx, author.ID, author))

	_, err := s.Authors.GetByIndex(ctx, "name", "Ursula K. Le Guin")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Authors.GetByIndex(ctx, "name", "U. K. Le Guin")
	require.NoError(t, err)
	assert.Equal(t, "author-001", got.ID)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.Authors.Update(context.Background(), "author-missing", &domain.Author{ID: "author-missing", Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for _, name := range []string{"ada", "brin", "chen"} {
		u := &domain.User{ID: "user-" + name, Username: name, FavoriteGenre: "sci-fi"}
		require.NoError(t, s.Users.Create(ctx, u.ID, u))
	}

	var usernames []string
	for u, err := range s.Users.List(ctx) {
		require.NoError(t, err)
		usernames = append(usernames, u.Username)
	}
	assert.ElementsMatch(t, []string{"ada", "brin", "chen"}, usernames)
}

func TestEntity_ListByIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	books := []*domain.Book{
		{ID: "book-001", Title: "A", Published: 1969, AuthorID: "author-x", Genres: []string{"sci-fi"}},
		{ID: "book-002", Title: "B", Published: 1974, AuthorID: "author-x", Genres: []string{"sci-fi"}},
		{ID: "book-003", Title: "C", Published: 1985, AuthorID: "author-y", Genres: []string{"crime"}},
	}
	for _, b := range books {
		require.NoError(t, s.Books.Create(ctx, b.ID, b))
	}

	var titles []string
	for b, err := range s.Books.ListByIndex(ctx, "author", "author-x") {
		require.NoError(t, err)
		titles = append(titles, b.Title)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, titles)

	count := 0
	for _, err := range s.Books.ListByIndex(ctx, "author", "author-none") {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestEntity_Count(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	n, err := s.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i, title := range []string{"A", "B", "C", "D"} {
		b := &domain.Book{ID: "book-00" + string(rune('1'+i)), Title: title, Published: 2000, AuthorID: "author-x"}
		require.NoError(t, s.Books.Create(ctx, b.ID, b))
	}

	n, err = s.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestEntity_Delete(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, "user-001", &domain.User{ID: "user-001", Username: "mika", FavoriteGenre: "sci-fi"}))

	require.NoError(t, s.Users.Delete(ctx, "user-001"))

	_, err := s.Users.Get(ctx, "user-001")
	assert.ErrorIs(t, err, ErrNotFound)

	// The username is released for reuse.
	_, err = s.Users.GetByIndex(ctx, "username", "mika")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Users.Create(ctx, "user-002", &domain.User{ID: "user-002", Username: "mika", FavoriteGenre: "crime"}))
}

func TestEntity_Delete_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.Users.Delete(context.Background(), "user-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
