package handler

import (
	"context"

	"github.com/compass-ms/usernotify/shared/domain"
	"github.com/compass-ms/usernotify/users/internal/service"
)

// CepResolver turns a registration zip code into a full address.
type CepResolver interface {
	Lookup(cepCode string) (domain.Address, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	users  service.UserService
	cep    CepResolver
	health HealthChecker
}

func New(users service.UserService, cep CepResolver, health HealthChecker) *Handler {
	return &Handler{users: users, cep: cep, health: health}
}
