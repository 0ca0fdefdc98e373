package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/redactd/internal/token"
)

var flagRestoreTokens string

func init() {
	restoreCmd.Flags().StringVar(&flagRestoreTokens, "tokens", "", "token map JSON file from a previous redact run (required)")
	_ = restoreCmd.MarkFlagRequired("tokens")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Restore originals into redacted text",
	Long: `Read redacted (possibly edited) text from the given file or stdin and
replace every placeholder with its original value using the token map saved
by "redactd redact --tokens-out".

Example:
  redactd redact notes.txt --tokens-out tokens.json --text-only > clean.txt
  redactd restore clean.txt --tokens tokens.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, "restore")

		text, err := readInput(args)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(flagRestoreTokens)
		if err != nil {
			return fmt.Errorf("read tokens: %w", err)
		}
		var tokens []token.Token
		if err := json.Unmarshal(data, &tokens); err != nil {
			return fmt.Errorf("parse tokens: %w", err)
		}

		restored, skipped := token.Restore(text, tokens)
		for _, p := range skipped {
			logger.Warn("skipping malformed placeholder", "placeholder", p)
		}
		fmt.Fprint(cmd.OutOrStdout(), restored)
		return nil
	},
}
