package setup

import (
	"github.com/compass-ms/usernotify/shared/config"
	"github.com/compass-ms/usernotify/shared/jwt"
	"github.com/compass-ms/usernotify/shared/middleware"
	"github.com/compass-ms/usernotify/users/internal/cep"
	"github.com/compass-ms/usernotify/users/internal/events"
	"github.com/compass-ms/usernotify/users/internal/handler"
	"github.com/compass-ms/usernotify/users/internal/service"
	"github.com/compass-ms/usernotify/users/internal/storage/pg"
)

// Dependencies holds everything the user service needs at runtime.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Broker  *events.AMQPBroker
	Handler *handler.Handler
	Auth    *middleware.Auth
}

// SetupDependencies initializes storage, the broker connection and the full
// handler chain.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	broker, err := events.NewAMQPBroker(cfg.Private.AmqpURL, cfg.Public.Queue)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.Public.JwtIssuer, cfg.JwtTTL())
	publisher := events.NewPublisher(broker, cfg.Public.Queue)
	users := service.NewUser(storage, jwtService, publisher)
	cepClient := cep.New(cfg.Public.CepBaseURL)

	h := handler.New(users, cepClient, storage)
	auth := middleware.NewAuth(jwtService, storage)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Broker:  broker,
		Handler: h,
		Auth:    auth,
	}, nil
}

// Cleanup releases held connections, broker first so in-flight publishes
// finish before the pool closes.
func (d *Dependencies) Cleanup() {
	if d.Broker != nil {
		d.Broker.Close()
	}
	if d.Storage != nil {
		d.Storage.Cleanup()
	}
}
