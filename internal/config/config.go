// Package config loads the controller configuration. Values are read once at
// startup and treated as constants for the lifetime of the process.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"two_point_controller/internal/policy"
)

// Endpoint driver names.
const (
	DriverSim  = "sim"
	DriverMQTT = "mqtt"
	DriverGPIO = "gpio"
)

// State backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const envPrefix = "TPC"

// Config is the full application configuration.
type Config struct {
	Port       string           `mapstructure:"port"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Controller ControllerConfig `mapstructure:"controller"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Sim        SimConfig        `mapstructure:"sim"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// ControllerConfig mirrors the device properties of the two-point controller.
// Intervals expressed as plain numbers are seconds.
type ControllerConfig struct {
	Name string `mapstructure:"name"`

	ActorDriver     string `mapstructure:"actor_driver"`
	ActorDevice     string `mapstructure:"actor_device"`
	ActorAttribute  string `mapstructure:"actor_attribute"`
	SensorDriver    string `mapstructure:"sensor_driver"`
	SensorDevice    string `mapstructure:"sensor_device"`
	SensorAttribute string `mapstructure:"sensor_attribute"`

	Hysteresis              float64 `mapstructure:"hysteresis"`
	ActorMinControlInterval float64 `mapstructure:"actor_min_control_interval"`
	ActorOffValue           float64 `mapstructure:"actor_off_value"`
	ActorOnValue            float64 `mapstructure:"actor_on_value"`
	RegulateInterval        float64 `mapstructure:"regulate_interval"`

	SensorValueTargetInitial float64 `mapstructure:"sensor_value_target_initial"`
	EnabledInitial           bool    `mapstructure:"enabled_initial"`

	PersistenceEnabled   bool          `mapstructure:"persistence_enabled"`
	RuntimeWritable      bool          `mapstructure:"runtime_writable"`
	DebounceFailedWrites bool          `mapstructure:"debounce_failed_writes"`
	StateBackend         string        `mapstructure:"state_backend"`
	StateFile            string        `mapstructure:"state_file"`
	SaveTimeout          time.Duration `mapstructure:"save_timeout"`
	IOTimeout            time.Duration `mapstructure:"io_timeout"`
}

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	QoS            byte          `mapstructure:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
}

// SimConfig parameterises the in-process thermal plant used by the sim driver.
type SimConfig struct {
	AmbientC     float64       `mapstructure:"ambient_c"`
	InitialC     float64       `mapstructure:"initial_c"`
	HeatCPerSec  float64       `mapstructure:"heat_c_per_sec"`
	DriftCPerSec float64       `mapstructure:"drift_c_per_sec"`
	Tick         time.Duration `mapstructure:"tick"`
	TextValues   bool          `mapstructure:"text_values"`
}

// MinControlInterval returns ActorMinControlInterval as a duration.
func (c ControllerConfig) MinControlInterval() time.Duration {
	return seconds(c.ActorMinControlInterval)
}

// LoopInterval returns RegulateInterval as a duration.
func (c ControllerConfig) LoopInterval() time.Duration {
	return seconds(c.RegulateInterval)
}

// Stateful reports whether target/enabled are runtime state (writable and persisted)
// rather than fixed startup configuration.
func (c ControllerConfig) Stateful() bool {
	return c.RuntimeWritable
}

// Persistent reports whether target/enabled are mirrored to the state store.
// A fixed, non-writable target has nothing worth persisting.
func (c ControllerConfig) Persistent() bool {
	return c.RuntimeWritable && c.PersistenceEnabled
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// maxSeconds is the largest whole number of seconds a time.Duration holds.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// validSeconds reports whether f converts to a time.Duration without overflow.
func validSeconds(f float64) bool {
	return !math.IsNaN(f) && math.Abs(f) <= maxSeconds
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "controller.db")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("controller.actor_driver", DriverSim)
	v.SetDefault("controller.sensor_driver", DriverSim)
	v.SetDefault("controller.hysteresis", 0.0)
	v.SetDefault("controller.actor_min_control_interval", 0.0)
	v.SetDefault("controller.actor_off_value", -10.0)
	v.SetDefault("controller.actor_on_value", 10.0)
	v.SetDefault("controller.regulate_interval", 1.0)
	v.SetDefault("controller.sensor_value_target_initial", policy.TargetNoValue)
	v.SetDefault("controller.enabled_initial", false)
	v.SetDefault("controller.persistence_enabled", true)
	v.SetDefault("controller.runtime_writable", true)
	v.SetDefault("controller.debounce_failed_writes", false)
	v.SetDefault("controller.state_backend", BackendFile)
	v.SetDefault("controller.state_file", "state.json")
	v.SetDefault("controller.save_timeout", 2*time.Second)
	v.SetDefault("controller.io_timeout", 5*time.Second)

	v.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.connect_timeout", 10*time.Second)
	v.SetDefault("mqtt.stale_after", time.Minute)

	v.SetDefault("sim.ambient_c", 20.0)
	v.SetDefault("sim.initial_c", 20.0)
	v.SetDefault("sim.heat_c_per_sec", 0.5)
	v.SetDefault("sim.drift_c_per_sec", 0.1)
	v.SetDefault("sim.tick", time.Second)
	v.SetDefault("sim.text_values", false)
}

// Load reads the configuration from path. path may be a directory containing
// config.yml, a file path, or empty to search ./configs and the working directory.
// Environment variables prefixed TPC_ override file values (TPC_CONTROLLER_HYSTERESIS).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path == "":
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	case filepath.Ext(path) == "":
		v.AddConfigPath(path)
		v.SetConfigName("config")
	default:
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Defaults plus environment are a valid configuration.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every violation at once.
func (c *Config) Validate() error {
	var errs []error
	cc := c.Controller

	if cc.Hysteresis < 0 || math.IsNaN(cc.Hysteresis) || math.IsInf(cc.Hysteresis, 0) {
		errs = append(errs, fmt.Errorf("controller.hysteresis must be >= 0, got %v", cc.Hysteresis))
	}
	if cc.ActorMinControlInterval < 0 || !validSeconds(cc.ActorMinControlInterval) {
		errs = append(errs, fmt.Errorf("controller.actor_min_control_interval must be >= 0, got %v", cc.ActorMinControlInterval))
	}
	if !validSeconds(cc.RegulateInterval) || cc.LoopInterval() <= 0 {
		errs = append(errs, fmt.Errorf("controller.regulate_interval must be at least 1ns and fit a duration, got %v", cc.RegulateInterval))
	}
	if cc.ActorOnValue == cc.ActorOffValue {
		errs = append(errs, fmt.Errorf("controller.actor_on_value and actor_off_value must differ, both are %v", cc.ActorOnValue))
	}
	if cc.SaveTimeout <= 0 {
		errs = append(errs, errors.New("controller.save_timeout must be > 0"))
	}
	if cc.IOTimeout <= 0 {
		errs = append(errs, errors.New("controller.io_timeout must be > 0"))
	}

	errs = append(errs, checkEndpoint("sensor", cc.SensorDriver, cc.SensorDevice, cc.SensorAttribute, false)...)
	errs = append(errs, checkEndpoint("actor", cc.ActorDriver, cc.ActorDevice, cc.ActorAttribute, true)...)

	if cc.Persistent() {
		switch cc.StateBackend {
		case BackendFile:
			if strings.TrimSpace(cc.StateFile) == "" {
				errs = append(errs, errors.New("controller.state_file must be set for the file backend"))
			}
		case BackendSQLite:
		default:
			errs = append(errs, fmt.Errorf("controller.state_backend must be %q or %q, got %q", BackendFile, BackendSQLite, cc.StateBackend))
		}
	}

	if cc.ActorDriver == DriverMQTT || cc.SensorDriver == DriverMQTT {
		if strings.TrimSpace(c.MQTT.Broker) == "" {
			errs = append(errs, errors.New("mqtt.broker must be set when an mqtt driver is used"))
		}
		if c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
	}

	if c.Sim.Tick <= 0 && (cc.ActorDriver == DriverSim || cc.SensorDriver == DriverSim) {
		errs = append(errs, errors.New("sim.tick must be > 0"))
	}

	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		errs = append(errs, errors.New("auth.signing_key must be set"))
	}

	return errors.Join(errs...)
}

func checkEndpoint(role, driver, device, attribute string, writable bool) []error {
	var errs []error
	switch driver {
	case DriverSim:
		return nil
	case DriverMQTT:
	case DriverGPIO:
		if !writable {
			errs = append(errs, fmt.Errorf("controller.%s_driver %q cannot be used for the sensor", role, driver))
		}
	default:
		return []error{fmt.Errorf("controller.%s_driver: unknown driver %q", role, driver)}
	}
	if strings.TrimSpace(device) == "" {
		errs = append(errs, fmt.Errorf("controller.%s_device must be set for driver %q", role, driver))
	}
	if strings.TrimSpace(attribute) == "" {
		errs = append(errs, fmt.Errorf("controller.%s_attribute must be set for driver %q", role, driver))
	}
	return errs
}
