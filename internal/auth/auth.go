// Package auth resolves bearer tokens issued by the hosted identity provider
// into user ids. Resolution is best-effort: checkout falls back to a guest
// order whenever it fails.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-storefront/internal/config"
)

var (
	ErrNoToken      = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type Resolver interface {
	ResolveUser(ctx context.Context, token string) (uuid.UUID, error)
}

// GoTrueResolver asks the provider's /auth/v1/user endpoint who owns a token,
// authenticating itself with the public anon key rather than the service key.
type GoTrueResolver struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewGoTrueResolver(cfg config.AuthConfig) *GoTrueResolver {
	return &GoTrueResolver{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (r *GoTrueResolver) ResolveUser(ctx context.Context, token string) (uuid.UUID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.anonKey != "" {
		req.Header.Set("apikey", r.anonKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("%w: provider returned %d", ErrInvalidToken, resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return uuid.Nil, fmt.Errorf("decode user: %w", err)
	}

	id, err := uuid.Parse(body.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id: %v", ErrInvalidToken, err)
	}

	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// UserFromRequest returns the caller's user id, or nil for guests. A missing
// resolver, a missing header and a rejected token all mean guest.
func UserFromRequest(ctx context.Context, resolver Resolver, r *http.Request) *uuid.UUID {
	if resolver == nil {
		return nil
	}

	token, err := BearerToken(r)
	if err != nil {
		return nil
	}

	id, err := resolver.ResolveUser(ctx, token)
	if err != nil {
		slog.Debug("Treating request as guest", "err", err)
		return nil
	}

	return &id
}
