package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/ai"
	"github.com/nhle/taskkeeper/internal/credential"
)

func newSuggestCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask the AI model for task ideas based on your history",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("next", false, "Ask for the single most important next task")

	cmd.RunE = s.withApp(func(cmd *cobra.Command, args []string) error {
		sg := s.suggester()
		if sg == nil {
			return fmt.Errorf("%w: run 'taskkeeper credential set %s' or set %s",
				ai.ErrNoAPIKey, credential.KeyAIAPIKey, credential.EnvAIAPIKey)
		}

		history := ai.BuildHistory(s.app.Tasks.All())

		var (
			text string
			err  error
		)
		if next, _ := cmd.Flags().GetBool("next"); next {
			text, err = sg.SuggestNext(cmd.Context(), history)
		} else {
			text, err = sg.Suggest(cmd.Context(), history)
		}
		if errors.Is(err, ai.ErrRateLimited) {
			return fmt.Errorf("%w (wait %ds between requests)", err, s.cfg.AI.MinIntervalSec)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	})
	return cmd
}

// suggester builds the AI client, or returns nil when no API key is
// configured.
func (s *session) suggester() *ai.Suggester {
	key, err := credential.Lookup(credential.KeyAIAPIKey)
	if err != nil {
		s.logger.Warn("failed to read AI API key", zap.Error(err))
		return nil
	}
	if key == "" {
		return nil
	}

	return ai.New(ai.Config{
		APIKey:      key,
		Model:       s.cfg.AI.Model,
		MaxTokens:   s.cfg.AI.MaxTokens,
		MinInterval: time.Duration(s.cfg.AI.MinIntervalSec) * time.Second,
		BaseURL:     s.cfg.AI.BaseURL,
	}, s.logger)
}
