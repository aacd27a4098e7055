package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fedcheck",
	Short: "De-identify contracting documents and check them for compliance",
	Long: `fedcheck strips PII from government-contracting documents, classifies
them, extracts structured fields, and evaluates the fields against a
fixed compliance rule set.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(redactCmd, rulesCmd, analyzeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readInput returns the contents of the given file, or stdin for "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
