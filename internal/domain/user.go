package domain

// User represents a registered account. No password is stored; login checks a
// process-wide shared secret, so the record only carries profile data.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FavoriteGenre string `json:"favorite_genre"`
}
