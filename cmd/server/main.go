package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/kvstore"
	"pos-backend/internal/logging"
	"pos-backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "pos-backend",
		Usage: "point-of-sale ledger service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or upgrade the database schema and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("pos-backend failed")
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate(_ *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.DriverPostgres {
		log.WithField("driver", cfg.StoreDriver).Info("nothing to migrate")
		return nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	return database.Migrate(db)
}

func openStore(cfg *config.Config) (kvstore.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using the in-memory store, data is lost on restart")
		return kvstore.NewMemory(), nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return kvstore.NewGorm(db), nil
}

func serve(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	app := server.New(cfg, store)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.HTTPPort
		log.WithFields(log.Fields{"addr": addr, "driver": cfg.StoreDriver, "timezone": cfg.Timezone}).Info("starting server")
		if err := app.Listen(addr); err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return shutdown(app)
	})

	return g.Wait()
}

func shutdown(app *fiber.App) error {
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
