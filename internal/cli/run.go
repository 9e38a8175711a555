package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/vidsub/internal/logger"
	"github.com/forPelevin/vidsub/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Process a local video: audio, transcript, summary, subtitles and optional translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Bool("translate", false, "Also translate the subtitles")
	cmd.Flags().String("lang", "", "Target language for translation (overrides config)")
	return cmd
}

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	translate, _ := cmd.Flags().GetBool("translate")
	lang, _ := cmd.Flags().GetString("lang")

	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if lang != "" {
		settings.Translation.TargetLanguage = lang
	}
	log := newLogger(cmd, settings)

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		Input:     absIn,
		OutDir:    outDir,
		Translate: translate,
		Keys:      envKeys(settings),
		Settings:  settings,
		Logf:      logger.Logf(log.Named("pipeline")),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Keys.OpenAI == "" && needsOpenAIKey(cfg) {
		key, err := promptAPIKey(os.Stdin, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cfg.Keys.OpenAI = key
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.OutDir)
	return nil
}

func needsOpenAIKey(cfg pipeline.Config) bool {
	s := cfg.Settings
	return s.ASR.Provider == "openai" || (s.LLM.Provider == "openai" && cfg.Keys.LLM == "")
}
