package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/auth"
)

// ownerFromPath resolves the {id} path segment and rejects requests for
// anyone other than the authenticated user. Mismatches read as not-found so
// the route leaks nothing about other users.
func ownerFromPath(r *http.Request) (uuid.UUID, *AppError) {
	authUserID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}

	if userID != authUserID {
		return uuid.Nil, ErrResourceNotFound
	}

	return userID, nil
}
