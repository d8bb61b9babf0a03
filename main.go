package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kendall-kelly/canteen-store-api/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "canteen-api",
		Usage: "canteen storefront and back-office API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, the outbox relay and the push forwarder",
				Action: serveCommand,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateCommand,
			},
		},
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("canteen-api failed")
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg)
	log.Info("Starting Canteen Store API server...")

	app, err := newApplication(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}

func migrateCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg)

	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := config.MigrateDatabase(db); err != nil {
		return err
	}
	log.Info("Database migration completed successfully")
	return nil
}
