package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vidsub/internal/logger"
	"github.com/forPelevin/vidsub/internal/pipeline"
	"github.com/forPelevin/vidsub/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process every video dropped into the inbox directory",
		Args:  cobra.NoArgs,
		RunE:  watch,
	}
	cmd.Flags().String("inbox", "", "Inbox directory (overrides config)")
	cmd.Flags().String("out", "", "Output directory (overrides config)")
	cmd.Flags().Bool("translate", false, "Also translate the subtitles")
	return cmd
}

func watch(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("inbox"); v != "" {
		settings.Watch.Inbox = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		settings.Watch.Output = v
	}
	translate, _ := cmd.Flags().GetBool("translate")
	if err := pipeline.ValidateEndpoints(settings); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cmd, settings)
	keys := envKeys(settings)

	// Fail fast rather than on the first file.
	if _, err := pipeline.BuildDeps(settings, keys); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{
		Inbox:  settings.Watch.Inbox,
		Logger: log.Named("watcher"),
		Handler: func(ctx context.Context, path string) error {
			res, err := pipeline.Run(ctx, pipeline.Config{
				Input:     path,
				OutDir:    settings.Watch.Output,
				Translate: translate,
				Keys:      keys,
				Settings:  settings,
				Logf:      logger.Logf(log.Named("pipeline"), "input", path),
			})
			if err != nil {
				return err
			}
			log.Info("outputs written", "dir", res.OutDir)
			return nil
		},
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
