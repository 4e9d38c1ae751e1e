package service

import (
	"errors"

	"github.com/rs/zerolog/log"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
	"go-label-ws/internal/stock"
	"go-label-ws/internal/ws"
)

var (
	ErrForbidden = apperror.New(apperror.KindForbidden, "admin role required")
)

// Caller is the authenticated user performing an operation.
type Caller struct {
	UserID string
	Name   string
	Email  string
	Role   model.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

func (c Caller) actor() stock.Actor {
	return stock.Actor{UserID: c.UserID, Name: model.DisplayName(c.Name, c.Email)}
}

func (c Caller) wsUser() *ws.User {
	if c.UserID == "" {
		return nil
	}
	return &ws.User{ID: c.UserID, Name: c.Name, Email: c.Email}
}

// storeErr turns a repository failure into notFound when the row is missing and
// into a logged transport error otherwise.
func storeErr(op string, err error, notFound error) error {
	if notFound != nil && errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	log.Error().Err(err).Str("op", op).Msg("store failure")
	return apperror.Transport(op, err)
}
