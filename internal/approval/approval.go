// Package approval manages which registered users may use the admin console.
package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/store"
)

// UsersCollection holds user profiles written at sign-up.
const UsersCollection = "users"

// User is a user profile document.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name,omitempty"`
	Role       auth.Role  `json:"role"`
	Approved   bool       `json:"approved"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// State filters users by approval.
type State string

const (
	StateAll      State = "all"
	StatePending  State = "pending"
	StateApproved State = "approved"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	State  State
	Role   auth.Role
	Search string // email or name substring, case-insensitive
}

// Service approves and revokes console access.
type Service struct {
	docs   store.DocumentStore
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the service.
func NewService(docs store.DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, now: func() time.Time { return time.Now().UTC() }, logger: logger}
}

// Approve grants access to id.
func (s *Service) Approve(ctx context.Context, id, by string) error {
	now := s.now()
	patch := map[string]any{"approved": true, "approvedBy": by, "approvedAt": now}
	if err := s.docs.Update(ctx, UsersCollection, id, patch); err != nil {
		return fmt.Errorf("approve user %s: %w", id, err)
	}
	s.logger.Info("user approved", "user_id", id, "by", by)
	return nil
}

// Revoke withdraws access from id.
func (s *Service) Revoke(ctx context.Context, id, by string) error {
	patch := map[string]any{"approved": false, "approvedBy": by, "approvedAt": nil}
	if err := s.docs.Update(ctx, UsersCollection, id, patch); err != nil {
		return fmt.Errorf("revoke user %s: %w", id, err)
	}
	s.logger.Info("user revoked", "user_id", id, "by", by)
	return nil
}

// List returns matching users, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]User, error) {
	docs, err := s.docs.ListAll(ctx, UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	users := make([]User, 0, len(docs))
	for _, d := range docs {
		var u User
		if err := json.Unmarshal(d.Data, &u); err != nil {
			s.logger.Warn("skipping undecodable user", "id", d.ID, "error", err)
			continue
		}
		u.ID = d.ID
		if !f.matches(u, search) {
			continue
		}
		users = append(users, u)
	}

	slices.SortStableFunc(users, func(a, b User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return users, nil
}

func (f Filter) matches(u User, search string) bool {
	switch f.State {
	case StatePending:
		if u.Approved {
			return false
		}
	case StateApproved:
		if !u.Approved {
			return false
		}
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if search != "" &&
		!strings.Contains(strings.ToLower(u.Email), search) &&
		!strings.Contains(strings.ToLower(u.Name), search) {
		return false
	}
	return true
}

// IsApproved reports whether the user exists and is approved. Owners are
// always approved.
func (s *Service) IsApproved(ctx context.Context, id string) (bool, error) {
	doc, err := s.docs.Get(ctx, UsersCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %s: %w", id, err)
	}
	var u User
	if err := json.Unmarshal(doc.Data, &u); err != nil {
		s.logger.Warn("undecodable user", "id", id, "error", err)
		return false, nil
	}
	return u.Approved || u.Role == auth.RoleOwner, nil
}
