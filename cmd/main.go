package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"leaflet/api"
	"leaflet/config"
	"leaflet/extraction"
	"leaflet/file"
	"leaflet/pkg/boltdb"
	"leaflet/pkg/kafka"
	"leaflet/pkg/mongodb"
	"leaflet/pkg/postgres"
	"leaflet/pkg/sqlite"
	"leaflet/storage"
	"leaflet/vision"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "leaflet",
		Usage: "extract products from supermarket leaflet images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file merged into the environment",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "development logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "listen port (overrides PORT)"},
				},
				Action: serveAction,
			},
			{
				Name:      "extract",
				Usage:     "extract products from one image and print them as JSON",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "save", Usage: "also write the result to the configured store"},
				},
				Action: extractAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// =========
// Bootstrap
// =========

type deps struct {
	cfg       *config.Config
	logger    *zap.Logger
	extractor *extraction.Service
}

func setup(c *cli.Context) (*deps, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	for _, key := range cfg.Missing() {
		logger.Warn("extraction credential not set, requests will fail", zap.String("env", key))
	}

	client := vision.NewClient(vision.Settings{
		APIKey:     cfg.AzureAPIKey,
		Endpoint:   cfg.AzureEndpoint,
		Deployment: cfg.DeploymentName,
		APIVersion: cfg.APIVersion,
	}, nil, logger)

	return &deps{
		cfg:       cfg,
		logger:    logger,
		extractor: extraction.NewService(client, cfg.ExtractionFallback, logger),
	}, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		return storage.NewFileStore(cfg.StorePath), nil
	case config.StoreBolt:
		return boltdb.Open(cfg.StorePath)
	case config.StoreSQLite:
		return sqlite.Open(cfg.StorePath)
	case config.StorePostgres:
		return postgres.NewClient(ctx, cfg.DatabaseURL)
	case config.StoreMongo:
		return mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// =========
// Actions
// =========

func serveAction(c *cli.Context) error {
	d, err := setup(c)
	if err != nil {
		return err
	}
	defer d.logger.Sync()

	if port := c.Int("port"); port != 0 {
		d.cfg.Port = port
		if err := d.cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, d.cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	uploads, err := file.NewUploadStore(d.cfg.UploadDir, file.Naming(d.cfg.UploadNaming))
	if err != nil {
		return err
	}

	server := api.NewServer(d.cfg, d.extractor, uploads, store, d.logger)

	if d.cfg.KafkaBroker != "" {
		publisher, err := kafka.NewEventPublisher(ctx, d.cfg.KafkaBroker, d.cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		server.WithPublisher(publisher)
	}

	return server.Run(ctx)
}

func extractAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: leaflet extract [--save] IMAGE", 2)
	}

	d, err := setup(c)
	if err != nil {
		return err
	}
	defer d.logger.Sync()

	ctx := c.Context
	result, err := d.extractor.Extract(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	d.logger.Info("extraction finished",
		zap.String("source", string(result.Source)),
		zap.Int("products", len(result.Products)))

	if c.Bool("save") {
		store, err := openStore(ctx, d.cfg)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		if err := store.Save(ctx, result.Products); err != nil {
			return fmt.Errorf("failed to save products: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Products)
}
