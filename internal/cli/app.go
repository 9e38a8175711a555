package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/forPelevin/vidsub/internal/config"
	"github.com/forPelevin/vidsub/internal/logger"
	"github.com/forPelevin/vidsub/internal/pipeline"
)

func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load(path)
}

func newLogger(cmd *cobra.Command, s *config.Config) hclog.Logger {
	return logger.New(logger.Options{
		Name:   "vidsub",
		Level:  s.Logging.Level,
		Format: s.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

func envKeys(s *config.Config) pipeline.Keys {
	return pipeline.Keys{OpenAI: s.APIKey, LLM: s.LLMAPIKey}
}
