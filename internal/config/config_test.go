package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"two_point_controller/internal/policy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func validConfig() Config {
	return Config{
		Auth: AuthConfig{SigningKey: "k"},
		Controller: ControllerConfig{
			ActorDriver:      DriverSim,
			SensorDriver:     DriverSim,
			ActorOffValue:    -10,
			ActorOnValue:     10,
			RegulateInterval: 1,
			RuntimeWritable:  true,
			StateBackend:     BackendFile,
			StateFile:        "state.json",
			SaveTimeout:      time.Second,
			IOTimeout:        time.Second,
		},
		Sim: SimConfig{Tick: time.Second},
	}
}

func TestLoad_DefaultsAndFileValues(t *testing.T) {
	dir := writeConfig(t, `
auth:
  signing_key: secret
controller:
  hysteresis: 0.5
  actor_min_control_interval: 5
  regulate_interval: 0.25
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cc := cfg.Controller
	if cc.Hysteresis != 0.5 {
		t.Errorf("hysteresis = %v, want 0.5", cc.Hysteresis)
	}
	if got := cc.MinControlInterval(); got != 5*time.Second {
		t.Errorf("MinControlInterval = %v, want 5s", got)
	}
	if got := cc.LoopInterval(); got != 250*time.Millisecond {
		t.Errorf("LoopInterval = %v, want 250ms", got)
	}
	if cc.ActorOffValue != -10 || cc.ActorOnValue != 10 {
		t.Errorf("actor levels = %v/%v, want -10/10", cc.ActorOffValue, cc.ActorOnValue)
	}
	if cc.SensorValueTargetInitial != policy.TargetNoValue {
		t.Errorf("initial target = %v, want sentinel", cc.SensorValueTargetInitial)
	}
	if cc.EnabledInitial {
		t.Errorf("enabled_initial should default to false")
	}
	if !cc.Persistent() || !cc.Stateful() {
		t.Errorf("stateful variant expected by default")
	}
	if cc.StateBackend != BackendFile || cc.StateFile != "state.json" {
		t.Errorf("state backend defaults: %q %q", cc.StateBackend, cc.StateFile)
	}
	if cfg.Port != "8080" || cfg.Log.Level != "info" {
		t.Errorf("ambient defaults: port=%q level=%q", cfg.Port, cfg.Log.Level)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
auth:
  signing_key: secret
controller:
  hysteresis: 0.5
`)
	t.Setenv("TPC_CONTROLLER_HYSTERESIS", "1.5")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Controller.Hysteresis != 1.5 {
		t.Fatalf("hysteresis = %v, want env override 1.5", cfg.Controller.Hysteresis)
	}
}

func TestLoad_InvalidFailsFast(t *testing.T) {
	dir := writeConfig(t, `
auth:
  signing_key: secret
controller:
  hysteresis: -1
  regulate_interval: 0
`)
	_, err := Load(dir)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"hysteresis", "regulate_interval"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "controller: [unclosed")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"negative min interval", func(c *Config) { c.Controller.ActorMinControlInterval = -1 }, "actor_min_control_interval"},
		{"infinite min interval", func(c *Config) { c.Controller.ActorMinControlInterval = math.Inf(1) }, "actor_min_control_interval"},
		{"zero regulate interval", func(c *Config) { c.Controller.RegulateInterval = 0 }, "regulate_interval"},
		{"regulate interval below 1ns", func(c *Config) { c.Controller.RegulateInterval = 1e-10 }, "regulate_interval"},
		{"infinite regulate interval", func(c *Config) { c.Controller.RegulateInterval = math.Inf(1) }, "regulate_interval"},
		{"overflowing regulate interval", func(c *Config) { c.Controller.RegulateInterval = 1e300 }, "regulate_interval"},
		{"NaN regulate interval", func(c *Config) { c.Controller.RegulateInterval = math.NaN() }, "regulate_interval"},
		{"infinite hysteresis", func(c *Config) { c.Controller.Hysteresis = math.Inf(1) }, "hysteresis"},
		{"equal levels", func(c *Config) { c.Controller.ActorOnValue = -10 }, "must differ"},
		{"unknown driver", func(c *Config) { c.Controller.ActorDriver = "modbus" }, "unknown driver"},
		{"gpio sensor", func(c *Config) {
			c.Controller.SensorDriver = DriverGPIO
			c.Controller.SensorDevice = "gpiochip0"
			c.Controller.SensorAttribute = "17"
		}, "cannot be used for the sensor"},
		{"mqtt without address", func(c *Config) {
			c.Controller.SensorDriver = DriverMQTT
			c.MQTT.Broker = "tcp://x:1883"
		}, "sensor_device"},
		{"mqtt without broker", func(c *Config) {
			c.Controller.ActorDriver = DriverMQTT
			c.Controller.ActorDevice = "boiler"
			c.Controller.ActorAttribute = "power"
		}, "mqtt.broker"},
		{"bad backend", func(c *Config) { c.Controller.StateBackend = "redis" }, "state_backend"},
		{"backend ignored when not persistent", func(c *Config) {
			c.Controller.StateBackend = "redis"
			c.Controller.RuntimeWritable = false
		}, ""},
		{"missing signing key", func(c *Config) { c.Auth.SigningKey = " " }, "signing_key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}
