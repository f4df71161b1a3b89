package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"two_point_controller/internal/config"
	"two_point_controller/internal/logger"
)

// Set is the sensor/actuator pair selected by configuration, plus whatever
// background resources their drivers need.
type Set struct {
	Sensor Reader
	Actor  ReadWriter

	plant     *Plant
	plantTick time.Duration
	closers   []io.Closer
}

// Open builds the configured drivers. The MQTT connection and the simulated
// plant are shared when both endpoints use the same driver.
func Open(cfg *config.Config, clientID string, log *logger.Logger) (*Set, error) {
	cc := cfg.Controller
	s := &Set{plantTick: cfg.Sim.Tick}

	var broker Broker
	mqttBroker := func() (Broker, error) {
		if broker != nil {
			return broker, nil
		}
		b, err := NewPahoBroker(MQTTOptions{
			Broker:         cfg.MQTT.Broker,
			ClientID:       firstNonEmpty(cfg.MQTT.ClientID, clientID),
			QoS:            cfg.MQTT.QoS,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		broker = b
		s.closers = append(s.closers, b)
		return b, nil
	}
	plant := func() *Plant {
		if s.plant == nil {
			s.plant = NewPlant(PlantParams{
				AmbientC:     cfg.Sim.AmbientC,
				InitialC:     cfg.Sim.InitialC,
				HeatCPerSec:  cfg.Sim.HeatCPerSec,
				DriftCPerSec: cfg.Sim.DriftCPerSec,
				OnValue:      cc.ActorOnValue,
				OffValue:     cc.ActorOffValue,
				TextValues:   cfg.Sim.TextValues,
			}, time.Now())
		}
		return s.plant
	}

	sensorAddr := Address{Device: cc.SensorDevice, Attribute: cc.SensorAttribute}
	switch cc.SensorDriver {
	case config.DriverSim:
		s.Sensor = plant().Sensor()
	case config.DriverMQTT:
		b, err := mqttBroker()
		if err != nil {
			return nil, err
		}
		t, err := NewTopic(b, sensorAddr, cfg.MQTT.StaleAfter)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Sensor = t
	default:
		return nil, fmt.Errorf("sensor driver %q is not supported", cc.SensorDriver)
	}

	actorAddr := Address{Device: cc.ActorDevice, Attribute: cc.ActorAttribute}
	switch cc.ActorDriver {
	case config.DriverSim:
		s.Actor = plant().Actor()
	case config.DriverMQTT:
		b, err := mqttBroker()
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		t, err := NewTopic(b, actorAddr, cfg.MQTT.StaleAfter)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Actor = t
	case config.DriverGPIO:
		sw, err := OpenSwitch(actorAddr, cc.ActorOnValue, cc.ActorOffValue)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, sw)
		s.Actor = sw
	default:
		_ = s.Close()
		return nil, fmt.Errorf("actor driver %q is not supported", cc.ActorDriver)
	}

	return s, nil
}

// Run drives background simulation until ctx is canceled. It returns
// immediately when no simulated endpoint is configured.
func (s *Set) Run(ctx context.Context) {
	if s.plant == nil {
		return
	}
	s.plant.Run(ctx, s.plantTick)
}

// Close releases driver resources.
func (s *Set) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
