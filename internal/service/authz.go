// Package service holds the publishing domain logic between the HTTP layer
// and the repositories.
package service

import (
	"errors"

	"conduit/internal/models"
)

var errNoActor = errors.New("mutation requires an authenticated user")

// CanModify reports whether actor may mutate a resource owned by ownerID.
// It never touches the store.
func CanModify(actor *models.User, ownerID uint) bool {
	return actor != nil && actor.ID != 0 && actor.ID == ownerID
}

// requireActor fails with an internal error when a mutating call arrives
// without a resolved user; authentication belongs to the caller.
func requireActor(actor *models.User) error {
	if actor == nil || actor.ID == 0 {
		return models.NewInternalError(errNoActor)
	}
	return nil
}
