package service

import (
	"testing"

	"two_point_controller/internal/config"
	"two_point_controller/internal/repository"
)

func TestNewService_WiresOneControllerForAttributesAndLoop(t *testing.T) {
	cfg := &config.Config{
		Controller: testControllerConfig(),
		Auth:       config.AuthConfig{SigningKey: "k"},
	}
	repos := &repository.Repository{
		StateRepo: &memStateRepo{},
		EventRepo: &memEventRepo{},
		Auth:      &mockAuthRepo{},
	}

	s := NewService(repos, Endpoints{Sensor: &fakeSensor{}, Actor: &fakeActor{}}, cfg, "boiler", nil)

	ctrl, ok := s.Controller.(*ControllerService)
	if !ok {
		t.Fatalf("Controller is %T", s.Controller)
	}
	if reg, ok := s.Regulator.(*ControllerService); !ok || reg != ctrl {
		t.Fatalf("Regulator must be the same controller instance")
	}
	if ctrl.Name() != "boiler" {
		t.Fatalf("unexpected name %q", ctrl.Name())
	}
	if s.EventLog == nil || s.Authorization == nil {
		t.Fatalf("sub-services not wired")
	}
}
