package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slatedeck/slatedeck/internal/api"
	"github.com/slatedeck/slatedeck/internal/api/health"
	"github.com/slatedeck/slatedeck/internal/checker"
	"github.com/slatedeck/slatedeck/internal/events"
	"github.com/slatedeck/slatedeck/internal/logger"
	"github.com/slatedeck/slatedeck/internal/metrics"
	"github.com/slatedeck/slatedeck/internal/query"
	"github.com/slatedeck/slatedeck/internal/storage"
	"github.com/slatedeck/slatedeck/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "slatedeck-server",
	Short: "SlateDeck Server - BI dashboards with alert monitoring",
	Long: `SlateDeck Server hosts saved questions, dashboards and collections,
and runs the alert checker that evaluates alert queries against the
warehouse and delivers webhook notifications.`,
	RunE:    runServer,
	Version: config.ShortVersionString(),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.VersionString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	logger.Init(cfg.Logging.Level)
	log := logger.WithComponent("server")

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize metadata storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Info().Str("path", cfg.Database.Path).Msg("database initialized")

	// Warehouse executor for alert queries
	var executor query.Executor
	var warehouse *query.ClickHouseExecutor
	if cfg.Warehouse.Enabled {
		warehouse = query.NewClickHouseExecutor(&query.ClickHouseConfig{
			Addresses:    cfg.Warehouse.Addresses,
			Database:     cfg.Warehouse.Database,
			Username:     cfg.Warehouse.Username,
			Password:     cfg.Warehouse.Password,
			QueryTimeout: cfg.Warehouse.QueryTimeout,
			Compression:  cfg.Warehouse.Compression,
		})
		if err := warehouse.Open(); err != nil {
			return fmt.Errorf("open warehouse: %w", err)
		}
		defer warehouse.Close()
		executor = warehouse
		log.Info().Strs("addresses", cfg.Warehouse.Addresses).Msg("warehouse connected")
	}

	// Optional trigger event stream
	var publisher *events.Publisher
	if cfg.Events.Enabled {
		var err error
		publisher, err = events.NewPublisher(events.Config{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			WriteTimeout: cfg.Events.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		defer publisher.Close()
		log.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("event stream enabled")
	}

	// Alert checker; without a warehouse the check endpoint is inert.
	var runner *checker.Checker
	if executor != nil {
		runner = checker.New(store, executor, publisher, &checker.Options{
			Concurrency:          cfg.Checker.Concurrency,
			WebhookTimeout:       cfg.Checker.WebhookTimeout,
			WebhookRatePerSecond: cfg.Checker.WebhookRatePerSecond,
		})
	}

	// Build API server
	apiCfg := &api.Config{
		Address:      cfg.Server.Address,
		ServiceToken: cfg.Server.ServiceToken,
		Verbose:      cfg.Verbose,
	}
	if cfg.Server.TLS.Enabled {
		apiCfg.HTTPTLSEnabled = true
		apiCfg.HTTPTLSCertFile = cfg.Server.TLS.CertFile
		apiCfg.HTTPTLSKeyFile = cfg.Server.TLS.KeyFile
	}

	var srv *api.Server
	var err error
	if runner != nil {
		srv, err = api.New(apiCfg, store, runner)
	} else {
		srv, err = api.New(apiCfg, store, nil)
	}
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.RegisterHealthChecker(health.NewMetadataChecker(store.DB()))
	if warehouse != nil {
		srv.RegisterHealthChecker(health.NewWarehouseChecker(warehouse))
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Address)
		if err := metricsSrv.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	log.Info().Str("version", config.Version).Str("address", cfg.Server.Address).Msg("starting slatedeck-server")

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
