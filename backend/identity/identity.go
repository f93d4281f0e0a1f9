// Package identity signs users in with a password or a Google account and
// hands back an opaque user id plus profile claims.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skillsync/backend/docstore"
	"skillsync/backend/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrProvider           = errors.New("identity provider error")
)

const ProviderGoogle = "google"

// Identity is what a successful sign-in yields.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	Provider    string
}

// Directory removes stored identities when an account is deleted.
type Directory struct {
	store *docstore.Store
}

func NewDirectory(store *docstore.Store) *Directory {
	return &Directory{store: store}
}

// RemoveIdentities deletes the password credential for email (if it belongs
// to uid) and every federated link pointing at uid.
func (d *Directory) RemoveIdentities(ctx context.Context, uid, email string) error {
	if email != "" {
		path := models.CredentialPath(email)
		snap, err := d.store.Get(ctx, path)
		switch {
		case err == nil:
			var cred models.Credential
			if err := snap.DataTo(&cred); err != nil {
				return err
			}
			if cred.UID == uid {
				if err := d.store.Delete(ctx, path); err != nil {
					return fmt.Errorf("remove credential: %w", err)
				}
			}
		case !errors.Is(err, docstore.ErrNotFound):
			return err
		}
	}

	links, err := d.store.List(ctx, models.CollectionFederatedLinks)
	if err != nil {
		return err
	}
	for _, snap := range links {
		var link models.FederatedLink
		if err := snap.DataTo(&link); err != nil {
			return err
		}
		if link.UID != uid {
			continue
		}
		if err := d.store.Delete(ctx, snap.Path); err != nil {
			return fmt.Errorf("remove %s link: %w", link.Provider, err)
		}
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
