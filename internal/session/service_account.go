package session

import (
	"context"
	"errors"
	"sync"

	"cot-dashboard/internal/domain"
)

var ErrNoServiceAccount = errors.New("service account credentials not configured")

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
}

// ServiceAccount logs in lazily with fixed credentials and reuses the session
// for jobs, the bot and the MCP server. Invalidate forces a fresh login.
type ServiceAccount struct {
	auth  Authenticator
	creds domain.Credentials

	mu   sync.Mutex
	sess *domain.Session
}

func NewServiceAccount(auth Authenticator, username, password string) *ServiceAccount {
	return &ServiceAccount{auth: auth, creds: domain.Credentials{Username: username, Password: password}}
}

func (a *ServiceAccount) Configured() bool {
	return a != nil && a.creds.LoginName() != "" && a.creds.Password != ""
}

func (a *ServiceAccount) Session(ctx context.Context) (domain.Session, error) {
	if !a.Configured() {
		return domain.Session{}, ErrNoServiceAccount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess != nil {
		return *a.sess, nil
	}
	sess, err := a.auth.Login(ctx, a.creds)
	if err != nil {
		return domain.Session{}, err
	}
	a.sess = &sess
	return sess, nil
}

func (a *ServiceAccount) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sess = nil
}
