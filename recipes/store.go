// Package recipes defines the persistence collaborator for saved recipes and
// its Mongo-backed implementation.
package recipes

import (
	"context"

	"aichef/models"
)

// Principal is the authenticated caller a store acts for. Token is the bearer
// credential forwarded to remote stores; local stores only need UserID.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Token  string
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Store is the persistence API. Every method except ListShared acts on the
// principal's own recipes and fails with ErrUnauthorized for an anonymous
// principal.
type Store interface {
	Save(ctx context.Context, p Principal, r models.Recipe) (models.Recipe, error)
	ListByUser(ctx context.Context, p Principal) ([]models.Recipe, error)
	Delete(ctx context.Context, p Principal, id string) error
	SetFavorite(ctx context.Context, p Principal, id string, favorite bool) (models.Recipe, error)
	SetShared(ctx context.Context, p Principal, id string, shared bool) (models.Recipe, error)
	ListShared(ctx context.Context) ([]models.Recipe, error)
}
