package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/Dicklesworthstone/redactd/internal/engine"
	"github.com/Dicklesworthstone/redactd/internal/output"
)

var (
	flagRedactThreshold   float64
	flagRedactWords       []string
	flagIgnoreWords       []string
	flagRedactDiff        bool
	flagRedactTokensOut   string
	flagRedactTextOnly    bool
)

func init() {
	redactCmd.Flags().Float64Var(&flagRedactThreshold, "threshold", -1, "confidence cutoff in [0,1] (default from config)")
	redactCmd.Flags().StringSliceVar(&flagRedactWords, "redact-word", nil, "word to always redact (repeatable)")
	redactCmd.Flags().StringSliceVar(&flagIgnoreWords, "ignore-word", nil, "word to never redact (repeatable)")
	redactCmd.Flags().BoolVar(&flagRedactDiff, "diff", false, "print a colored diff instead of JSON")
	redactCmd.Flags().StringVar(&flagRedactTokensOut, "tokens-out", "", "write the token map JSON to this file")
	redactCmd.Flags().BoolVar(&flagRedactTextOnly, "text-only", false, "print only the redacted text")
	rootCmd.AddCommand(redactCmd)
}

var redactCmd = &cobra.Command{
	Use:   "redact [file]",
	Short: "Redact PII from a file or stdin",
	Long: `Read text from the given file (or stdin when the argument is "-" or
omitted), redact detected PII, and print the result as JSON: the redacted
text, the token map needed for restoration, and the entity count.

Examples:
  redactd redact notes.txt
  cat notes.txt | redactd redact --diff
  redactd redact notes.txt --tokens-out tokens.json --text-only > clean.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, "redact")

		text, err := readInput(args)
		if err != nil {
			return err
		}
		if !norm.NFC.IsNormalString(text) {
			logger.Warn("input is not NFC-normalized; offsets refer to the bytes as given")
		}

		threshold := cfg.Engine.Threshold
		if flagRedactThreshold >= 0 {
			threshold = flagRedactThreshold
		}

		eng, loader, err := buildEngine(cfg, logger, nil)
		if err != nil {
			return err
		}
		if loader != nil {
			defer loader.Reset()
		}

		res, err := eng.Redact(cmd.Context(), engine.Request{
			Text:         text,
			Threshold:    threshold,
			AlwaysRedact: flagRedactWords,
			AlwaysIgnore: flagIgnoreWords,
		})
		if err != nil {
			return err
		}

		if flagRedactTokensOut != "" {
			data, err := json.MarshalIndent(res.Tokens, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(flagRedactTokensOut, data, 0o600); err != nil {
				return fmt.Errorf("write tokens: %w", err)
			}
		}

		switch {
		case flagRedactDiff:
			fmt.Fprint(cmd.OutOrStdout(), output.PrettyDiff(text, res.RedactedText))
			fmt.Fprintln(cmd.OutOrStdout())
			d := output.Compare(text, res.RedactedText)
			fmt.Fprintf(cmd.OutOrStdout(), "%d entities redacted, %.0f%% of text unchanged\n",
				res.EntityCount, d.Similarity*100)
		case flagRedactTextOnly:
			fmt.Fprintln(cmd.OutOrStdout(), res.RedactedText)
		default:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return nil
	},
}

// readInput reads the file argument, treating "-" or no argument as stdin.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
