package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"two_point_controller/internal/config"
	"two_point_controller/internal/endpoint"
	"two_point_controller/internal/handlers"
	"two_point_controller/internal/logger"
	"two_point_controller/internal/policy"
	"two_point_controller/internal/repository"
	"two_point_controller/internal/repository/db"
	"two_point_controller/internal/server"
	"two_point_controller/internal/service"
)

const (
	envDeviceServerName = "DEVICE_SERVER_NAME"
	shutdownTimeout     = 10 * time.Second
)

var errNoDeviceName = errors.New(envDeviceServerName + " is not set and controller.name is empty")

type options struct {
	configPath string
	envFile    string
}

// @title                       Two-point controller API
// @version                     1.0
// @description                 Attribute surface, control history and auth for a two-point (hysteresis) controller.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	runE := func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	}

	root := &cobra.Command{
		Use:          "two-point-controller",
		Short:        "Two-point (hysteresis) controller device server",
		SilenceUsage: true,
		RunE:         runE,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file or directory (default ./configs/config.yml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the control loop and the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  runE,
		},
		&cobra.Command{
			Use:   "state",
			Short: "Print the persisted target/enabled state the controller would start with",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return printState(cmd.Context(), cmd.OutOrStdout(), opts)
			},
		},
	)
	return root
}

// loadEnvironment reads the optional dotenv file and the configuration and
// resolves the controller name.
func loadEnvironment(opts *options) (*config.Config, error) {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	name := deviceName(os.Getenv(envDeviceServerName), cfg.Controller.Name)
	if name == "" {
		return nil, errNoDeviceName
	}
	cfg.Controller.Name = name
	return cfg, nil
}

func deviceName(env, configured string) string {
	if env = strings.TrimSpace(env); env != "" {
		return env
	}
	return strings.TrimSpace(configured)
}

func run(ctx context.Context, opts *options) error {
	cfg, err := loadEnvironment(opts)
	if err != nil {
		return err
	}
	name := cfg.Controller.Name
	log := logger.Get(cfg.Log.Level).Named(name)

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	eps, err := endpoint.Open(cfg, name, log)
	if err != nil {
		log.Errorw("failed to open endpoints", "err", err)
		return err
	}
	defer func() {
		if cerr := eps.Close(); cerr != nil {
			log.Warnw("failed to close endpoints", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, stateBackend(cfg))
	services := service.NewService(repos, service.Endpoints{Sensor: eps.Sensor, Actor: eps.Actor}, cfg, name, log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go eps.Run(ctx)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Regulator.Run(ctx, cfg.Controller.LoopInterval())
	}()

	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	srvErr := runHTTPServer(srv, log)

	return waitForShutdown(cancel, srv, srvErr, loopDone, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "controller.db")
		dbPath = "controller.db"
	}
	return db.InitDB(dbPath)
}

// stateBackend returns the snapshot store; nil selects the SQLite table.
func stateBackend(cfg *config.Config) repository.StateRepo {
	if cfg.Controller.StateBackend == config.BackendSQLite {
		return nil
	}
	return repository.NewStateFile(cfg.Controller.StateFile)
}

// runHTTPServer runs the HTTP server in a separate goroutine. The returned
// channel yields the serve error, or nil after a graceful shutdown.
func runHTTPServer(srv *server.Server, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", srv.Addr())
		errc <- srv.Run()
	}()
	return errc
}

// waitForShutdown blocks until a termination signal or a server failure, then
// stops the loop and the server and waits for the loop to finish its cycle.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, srvErr <-chan error, loopDone <-chan struct{}, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil {
			log.Errorw("http server failed", "err", err)
			runErr = err
		}
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	select {
	case <-loopDone:
	case <-ctx.Done():
		log.Warnw("control loop did not stop in time")
	}
	return runErr
}

type stateReport struct {
	Controller        string  `json:"controller"`
	Persistent        bool    `json:"persistent"`
	Backend           string  `json:"backend,omitempty"`
	SensorValueTarget float64 `json:"sensorValueTarget"`
	TargetSet         bool    `json:"targetSet"`
	TargetRestored    bool    `json:"targetRestored"`
	Enabled           bool    `json:"enabled"`
	EnabledRestored   bool    `json:"enabledRestored"`
	LoadError         string  `json:"loadError,omitempty"`
}

// printState reports the state a controller would start with, without
// touching any endpoint.
func printState(ctx context.Context, w io.Writer, opts *options) error {
	cfg, err := loadEnvironment(opts)
	if err != nil {
		return err
	}
	cc := cfg.Controller

	var repo repository.StateRepo
	if cc.Persistent() {
		repo = stateBackend(cfg)
		if repo == nil {
			conn, err := db.InitDB(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer conn.Close()
			repo = repository.NewStateSQLite(conn)
		}
	}

	st, loadErr := service.LoadStoredState(ctx, repo, cc)
	report := stateReport{
		Controller:        cc.Name,
		Persistent:        cc.Persistent(),
		SensorValueTarget: st.Target,
		TargetSet:         st.Target != policy.TargetNoValue,
		TargetRestored:    st.TargetRestored,
		Enabled:           st.Enabled,
		EnabledRestored:   st.EnabledRestored,
	}
	if cc.Persistent() {
		report.Backend = cc.StateBackend
	}
	if loadErr != nil {
		report.LoadError = loadErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
