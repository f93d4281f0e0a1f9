package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type PasswordProvider struct {
	store *docstore.Store
	cost  int
}

func NewPasswordProvider(store *docstore.Store) *PasswordProvider {
	return &PasswordProvider{store: store, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (p *PasswordProvider) WithCost(cost int) *PasswordProvider {
	p.cost = cost
	return p
}

func (p *PasswordProvider) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	email = models.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := models.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	_, err = p.store.Create(ctx, models.CredentialPath(email), cred)
	if errors.Is(err, docstore.ErrExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	return &Identity{UID: cred.UID, Email: email, DisplayName: cred.DisplayName, Provider: "password"}, nil
}

func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email = models.NormalizeEmail(email)
	snap, err := p.store.Get(ctx, models.CredentialPath(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	var cred models.Credential
	if err := snap.DataTo(&cred); err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{UID: cred.UID, Email: cred.Email, DisplayName: cred.DisplayName, Provider: "password"}, nil
}
