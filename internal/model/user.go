package model

// User is an account that may read contact messages when admin auth is enabled.
// Password holds a bcrypt hash, never the plain text.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}
