package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/identity"
	"skillsync/backend/models"
)

const maxAvatarBytes = 2 << 20

// IdentityRemover forgets the sign-in methods attached to a user.
type IdentityRemover interface {
	RemoveIdentities(ctx context.Context, uid, email string) error
}

type Accounts struct {
	store          *docstore.Store
	identities     IdentityRemover
	logger         *log.Logger
	bootstrapAdmin string

	Now func() time.Time
}

func NewAccounts(store *docstore.Store, identities IdentityRemover, bootstrapAdminEmail string, logger *log.Logger) *Accounts {
	return &Accounts{
		store:          store,
		identities:     identities,
		logger:         logger,
		bootstrapAdmin: models.NormalizeEmail(bootstrapAdminEmail),
	}
}

// EnsureProfile creates users/{uid} from the identity claims on first
// sign-in. An existing profile only has empty fields filled in.
func (a *Accounts) EnsureProfile(ctx context.Context, id *identity.Identity) (*models.User, error) {
	var user models.User
	_, err := a.store.Mutate(ctx, models.UserPath(id.UID), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			user = a.newUser(id.UID, id.Email, id.DisplayName, id.PhotoURL)
			return user, nil
		}
		user = models.User{}
		if err := cur.DataTo(&user); err != nil {
			return nil, err
		}
		if user.Name == "" {
			user.Name = displayName(id.DisplayName, id.Email)
		}
		if user.Email == "" {
			user.Email = id.Email
		}
		if user.Avatar == "" {
			user.Avatar = id.PhotoURL
		}
		if user.Role == "" {
			user.Role = models.RoleLearner
		}
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return &user, nil
}

func (a *Accounts) newUser(uid, email, name, avatar string) models.User {
	role := models.RoleLearner
	if a.bootstrapAdmin != "" && models.NormalizeEmail(email) == a.bootstrapAdmin {
		role = models.RoleAdmin
		a.logger.Printf("Granting admin role to bootstrap account %s", email)
	}
	return models.User{
		ID:        uid,
		Name:      displayName(name, email),
		Email:     email,
		Avatar:    avatar,
		Role:      role,
		CreatedAt: current(a.Now),
	}
}

// displayName falls back to the email local part, then "User".
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

// GetProfile reads the caller's profile. Profiles are only created at sign-in,
// so a missing document means the account was deleted.
func (a *Accounts) GetProfile(ctx context.Context, sess *Session) (*models.User, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	snap, err := a.store.Get(ctx, models.UserPath(uid))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, err
	}
	user.ID = uid
	return &user, nil
}

// Role returns the stored role of uid.
func (a *Accounts) Role(ctx context.Context, uid string) (string, error) {
	snap, err := a.store.Get(ctx, models.UserPath(uid))
	if err != nil {
		return "", err
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return "", err
	}
	return user.Role, nil
}

func (a *Accounts) UpdateName(ctx context.Context, sess *Session, name string) (*models.User, error) {
	return a.update(ctx, sess, func(u *models.User) {
		u.Name = strings.TrimSpace(name)
	})
}

// UpdateAvatar stores an image data URL as the avatar.
func (a *Accounts) UpdateAvatar(ctx context.Context, sess *Session, dataURL string) (*models.User, error) {
	if !strings.HasPrefix(dataURL, "data:image/") || !strings.Contains(dataURL, ",") || len(dataURL) > maxAvatarBytes {
		return nil, ErrInvalidAvatar
	}
	return a.update(ctx, sess, func(u *models.User) {
		u.Avatar = dataURL
	})
}

func (a *Accounts) update(ctx context.Context, sess *Session, edit func(*models.User)) (*models.User, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	var user models.User
	_, err = a.store.Mutate(ctx, models.UserPath(uid), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		user = models.User{}
		if err := cur.DataTo(&user); err != nil {
			return nil, err
		}
		edit(&user)
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

// DeleteAccount removes the caller's enrollments, progress records, user
// document and sign-in identities, in that order. Signing the session out is
// left to the caller.
func (a *Accounts) DeleteAccount(ctx context.Context, sess *Session) error {
	uid, err := sess.uid()
	if err != nil {
		return err
	}

	email := sess.Email
	if snap, err := a.store.Get(ctx, models.UserPath(uid)); err == nil {
		var user models.User
		if err := snap.DataTo(&user); err == nil && user.Email != "" {
			email = user.Email
		}
	}

	enrollments, err := a.store.DeleteCollection(ctx, models.EnrollmentsCollection(uid))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	progress, err := a.store.DeleteCollection(ctx, models.LessonProgressCollection(uid))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := a.store.Delete(ctx, models.UserPath(uid)); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if a.identities != nil {
		if err := a.identities.RemoveIdentities(ctx, uid, email); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
	}

	a.logger.Printf("Deleted account %s (%d enrollments, %d progress records)", uid, enrollments, progress)
	return nil
}

// Promote sets the role of an existing user.
func (a *Accounts) Promote(ctx context.Context, uid, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	var user models.User
	_, err := a.store.Mutate(ctx, models.UserPath(uid), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		user = models.User{}
		if err := cur.DataTo(&user); err != nil {
			return nil, err
		}
		user.Role = role
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("promote %s: %w", uid, err)
	}
	return &user, nil
}
