package apiclient

import (
	"context"
	"net/http"

	"go-driveway/internal/storage"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
)

// TokenKey is the storage key holding the bearer token of the role.
func (r Role) TokenKey() string {
	if r == RoleOwner {
		return storage.KeyOwnerAccessToken
	}
	return storage.KeyUserAccessToken
}

// BearerToken attaches the token stored under key as a bearer credential and
// always asks for JSON. Storage failures abort the request unchanged.
func BearerToken(store storage.Store, key string) RequestInterceptor {
	return func(ctx context.Context, req *http.Request) error {
		token, ok, err := store.Get(ctx, key)
		if err != nil {
			return err
		}

		if ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		return nil
	}
}

// NewForRole builds a client that authenticates with the role's token.
func NewForRole(cfg Config, store storage.Store, role Role) (*Client, error) {
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}

	client.UseRequest(BearerToken(store, role.TokenKey()))
	return client, nil
}
