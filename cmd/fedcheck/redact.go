package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crowell-labs/fedcheck/core"
)

var redactShowTrail bool

var redactCmd = &cobra.Command{
	Use:   "redact [file|-]",
	Short: "De-identify a document and print the redacted text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[0])
		if err != nil {
			return err
		}

		result, err := core.Redact(text)
		if errors.Is(err, core.ErrEmptyInput) {
			return fmt.Errorf("nothing to redact: %w", err)
		}
		if err != nil {
			return err
		}

		fmt.Println(result.Text)

		if result.Count > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n%d PII match(es) redacted:\n", result.Count)
			for category, n := range core.Stats(text) {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %-8s %d\n", category, n)
			}
		}
		if redactShowTrail {
			for _, m := range result.Matches {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s [%d:%d] digest=%s\n",
					m.Category, m.StartIndex, m.EndIndex, m.Digest)
			}
		}
		return nil
	},
}

func init() {
	redactCmd.Flags().BoolVar(&redactShowTrail, "trail", false,
		"print the audit trail (categories, offsets, digests)")
}
