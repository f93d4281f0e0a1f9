// Package services implements the learner and admin operations on top of
// the document store. Every call that touches user data takes an explicit
// Session; there is no process wide current user.
package services

import (
	"errors"
	"time"

	"skillsync/backend/models"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrForbidden       = errors.New("admin access required")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrStaleToggle     = errors.New("lesson state changed since it was loaded")
	ErrInvalidAvatar   = errors.New("avatar must be an image data URL")
	ErrInvalidRole     = errors.New("unknown role")
)

// Session is the signed-in identity a request acts as.
type Session struct {
	UserID string
	Email  string
	Role   string
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

func (s *Session) uid() (string, error) {
	if s == nil || s.UserID == "" {
		return "", ErrUnauthenticated
	}
	return s.UserID, nil
}

func current(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
