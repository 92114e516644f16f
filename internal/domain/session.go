package domain

import "time"

// Session carries the backend credentials of one logged-in user. It is passed
// explicitly to every outbound call.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session holds a bearer token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Credentials is the login request body. Username falls back to Email.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginName returns the name sent to the backend.
func (c Credentials) LoginName() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Email
}
