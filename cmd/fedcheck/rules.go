package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crowell-labs/fedcheck/core"
)

var rulesCorpusPath string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the compliance rule corpus",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := loadCorpus()
		if err != nil {
			return err
		}
		for _, rule := range corpus.List() {
			fmt.Printf("%-4s %-10s %-15s %s\n", rule.ID, rule.Severity, rule.Category, rule.Title)
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one rule in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := loadCorpus()
		if err != nil {
			return err
		}
		rule, ok := corpus.Get(args[0])
		if !ok {
			return fmt.Errorf("no rule with id %q", args[0])
		}
		fmt.Printf("%s — %s\nseverity: %s  category: %s\n\n%s\n",
			rule.ID, rule.Title, rule.Severity, rule.Category, rule.Body)
		return nil
	},
}

var rulesSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Rank rules by lexical relevance to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, err := loadCorpus()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		for _, r := range core.NewRetriever(corpus).Retrieve(query, -1) {
			fmt.Printf("%-4s %5.1f  %s\n", r.Rule.ID, r.Score, r.Rule.Title)
		}
		return nil
	},
}

func loadCorpus() (*core.Corpus, error) {
	if rulesCorpusPath == "" {
		return core.DefaultCorpus(), nil
	}
	return core.LoadCorpus(rulesCorpusPath)
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesCorpusPath, "corpus", "",
		"path to a YAML rule corpus (default: built-in rules)")
	rulesCmd.AddCommand(rulesListCmd, rulesShowCmd, rulesSearchCmd)
}
