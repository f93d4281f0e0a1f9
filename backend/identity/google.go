package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillsync/backend/config"
	"skillsync/backend/docstore"
	"skillsync/backend/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type GoogleProvider struct {
	oauth       *oauth2.Config
	client      *resty.Client
	userInfoURL string
	store       *docstore.Store
}

func NewGoogleProvider(cfg *config.Config, store *docstore.Store) *GoogleProvider {
	return NewGoogleProviderWithEndpoint(cfg, google.Endpoint, store)
}

// NewGoogleProviderWithEndpoint is NewGoogleProvider with the OAuth endpoint
// swapped out.
func NewGoogleProviderWithEndpoint(cfg *config.Config, endpoint oauth2.Endpoint, store *docstore.Store) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		client:      resty.New().SetTimeout(10 * time.Second),
		userInfoURL: cfg.GoogleUserInfoURL,
		store:       store,
	}
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the Google profile and maps it
// to a local user id, linking a new one on first sign-in.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrProvider, err)
	}

	var profile googleUser
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&profile).
		Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch userinfo: %v", ErrProvider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrProvider, resp.StatusCode())
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: userinfo without subject", ErrProvider)
	}

	uid, err := g.link(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UID:         uid,
		Email:       models.NormalizeEmail(profile.Email),
		DisplayName: profile.Name,
		PhotoURL:    profile.Picture,
		Provider:    ProviderGoogle,
	}, nil
}

func (g *GoogleProvider) link(ctx context.Context, profile googleUser) (string, error) {
	path := models.FederatedLinkPath(ProviderGoogle, profile.ID)
	var link models.FederatedLink
	_, err := g.store.Mutate(ctx, path, func(cur *docstore.Snapshot) (any, error) {
		if cur != nil {
			link = models.FederatedLink{}
			if err := cur.DataTo(&link); err != nil {
				return nil, err
			}
			link.Email = models.NormalizeEmail(profile.Email)
			return link, nil
		}
		link = models.FederatedLink{
			UID:       uuid.NewString(),
			Provider:  ProviderGoogle,
			Subject:   profile.ID,
			Email:     models.NormalizeEmail(profile.Email),
			CreatedAt: time.Now().UTC(),
		}
		return link, nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrVersionConflict) {
			return "", fmt.Errorf("%w: link busy, retry", ErrProvider)
		}
		return "", fmt.Errorf("link google account: %w", err)
	}
	return link.UID, nil
}
