package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamer/internal/config"
	"streamer/internal/constants"
	"streamer/internal/logger"
	"streamer/pkg/bootstrap"
	"streamer/pkg/logging"
)

var (
	configFile string

	// Set with -ldflags "-X main.version=...".
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamer",
		Short: "Realtime annotation streamer",
		Long:  "Streamer consumes annotation and user events from the bus and pushes them to WebSocket clients",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd(), publishCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, logger.Logger, error) {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return nil, nil, fmt.Errorf("config file is required")
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, err
	}
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the streamer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx = logging.WithServiceName(ctx, constants.ServiceName)

			log.InfowCtx(ctx, "Starting streamer", "version", version)

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			log.InfowCtx(ctx, "Service running")
			runErr := app.Run(ctx)

			if err := app.Shutdown(context.Background()); err != nil {
				log.ErrorwCtx(ctx, "Shutdown failed", "error", err)
			}

			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				log.ErrorwCtx(ctx, "Service stopped with error", "error", runErr)
				return runErr
			}
			log.InfowCtx(ctx, "Service shutdown complete")
			return nil
		},
	}
}

func publishCmd() *cobra.Command {
	var (
		topic   string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one event to the bus",
		Long:  "Publish a JSON event on a routing key, e.g. to replay an annotation event by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]interface{}
			if err := json.Unmarshal([]byte(payload), &body); err != nil {
				return fmt.Errorf("payload must be a JSON object: %w", err)
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			dbConnector := bootstrap.NewDatabaseConnector(cfg, log)
			redisClient, err := dbConnector.InitRedis(ctx)
			if err != nil {
				return err
			}

			base := bootstrap.NewBase(cfg, log)
			if err := base.InitPublisher(redisClient); err != nil {
				return err
			}
			defer func() {
				_ = base.Shutdown(context.Background(), func(ctx context.Context) []error {
					return dbConnector.ShutdownDatabases(ctx, redisClient, nil, nil)
				})
			}()

			if err := base.Publisher.Publish(ctx, topic, body); err != nil {
				return fmt.Errorf("failed to publish: %w", err)
			}
			log.InfowCtx(ctx, "Event published", "routing_key", topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", constants.RoutingKeyAnnotation, "Routing key to publish on")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON event body")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the streamer version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
