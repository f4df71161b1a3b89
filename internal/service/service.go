package service

import (
	"context"
	"time"

	"two_point_controller/internal/config"
	"two_point_controller/internal/endpoint"
	"two_point_controller/internal/logger"
	"two_point_controller/internal/models"
	"two_point_controller/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Controller exposes the controller attributes: live sensor/actuator values,
// the control difference and the runtime setpoint and enable flag.
type Controller interface {
	Attributes(ctx context.Context) (models.Attributes, error)
	SensorValue(ctx context.Context) (float64, error)
	ActorValue(ctx context.Context) float64
	Difference(ctx context.Context) (float64, error)
	Target() float64
	SetTarget(ctx context.Context, v float64) error
	Enabled() bool
	SetEnabled(ctx context.Context, enabled bool) error
	Writable() bool
}

// Regulator runs the control loop until ctx is canceled.
type Regulator interface {
	Run(ctx context.Context, interval time.Duration)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Controller
	Regulator
	EventLog
	Authorization
}

// Endpoints is the sensor/actuator pair the controller talks to.
type Endpoints struct {
	Sensor endpoint.Reader
	Actor  endpoint.ReadWriter
}

// NewService wires the repository layer and endpoints into concrete services.
// name identifies the controller instance in logs and events.
func NewService(repos *repository.Repository, ep Endpoints, cfg *config.Config, name string, log *logger.Logger) *Service {
	ctrl := NewControllerService(name, cfg.Controller, ep, repos.StateRepo, repos.EventRepo, log)
	return &Service{
		Controller:    ctrl,
		Regulator:     ctrl,
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, cfg.Auth.SigningKey, cfg.Auth.TokenTTL),
	}
}
