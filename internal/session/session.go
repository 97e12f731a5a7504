// Package session holds the identity and notification list of one client
// session. A Session is created when the session starts and its identity is
// replaced on login and logout; every replacement advances the epoch so
// work started under an earlier identity can detect that it is stale.
package session

import (
	"errors"
	"sync"

	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

// ErrStale is returned for results computed for an identity the session no
// longer holds. Callers discard such results.
var ErrStale = errors.New("session identity changed while the request was in flight")

type Session struct {
	mu            sync.RWMutex
	user          *models.User
	token         string
	epoch         uint64
	notifications []models.Notification
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// ForUser returns a session already logged in as user.
func ForUser(user *models.User, token string) *Session {
	s := New()
	s.Login(user, token)
	return s
}

func (s *Session) Login(user *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user != nil {
		u := *user
		user = &u
	}
	s.user = user
	s.token = token
	s.epoch++
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.epoch++
}

// User returns a copy of the current user, or nil when anonymous.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *Session) Authenticated() bool {
	return s.UserID() != ""
}

func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Current returns ErrStale unless the session is still at epoch.
func (s *Session) Current(epoch uint64) error {
	if s.Epoch() != epoch {
		return ErrStale
	}
	return nil
}

// Notify appends n, assigning an id when it has none, and returns the id.
func (s *Session) Notify(n models.Notification) string {
	if n.ID == "" {
		n.ID = utils.NewID()
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return n.ID
}

// Dismiss removes the notification with the given id and reports whether it existed.
func (s *Session) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

// Notifications returns the pending notifications, oldest first.
func (s *Session) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
