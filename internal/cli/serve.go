package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vidsub/internal/pipeline"
	"github.com/forPelevin/vidsub/internal/server"
	"github.com/forPelevin/vidsub/internal/session"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	return cmd
}

func serve(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		settings.Server.Addr = addr
	}
	if err := pipeline.ValidateEndpoints(settings); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cmd, settings)

	store, err := openStore(settings.Storage.Driver, settings.Storage.DSN)
	if err != nil {
		return err
	}
	log.Info("session store ready", "driver", settings.Storage.Driver)
	if settings.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set; sessions must provide a credential")
	}

	srv := server.New(server.Options{
		Settings: settings,
		Store:    store,
		Keys:     envKeys(settings),
		Logger:   log.Named("server"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, settings.Server.Addr)
}

func openStore(driver, dsn string) (session.Store, error) {
	if driver == "memory" {
		return session.NewMemoryStore(), nil
	}
	db, err := session.OpenDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	return session.NewGormStore(db)
}
