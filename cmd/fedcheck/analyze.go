package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crowell-labs/fedcheck/core"
	"github.com/crowell-labs/fedcheck/llm"
	"github.com/crowell-labs/fedcheck/pipeline"
	"github.com/crowell-labs/fedcheck/store"
)

var (
	analyzeServer   string
	analyzeDBPath   string
	analyzeAuditLog string
	analyzeJSON     bool
	analyzeVerbose  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the full redact-classify-extract-evaluate pipeline",
	Long: `Analyze redacts PII from the input document, classifies it, extracts
structured fields via the configured model server, evaluates them against
the compliance rules, and drafts a negotiation brief and client email.

Reads from the named file, or stdin when the argument is "-" or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		text, err := readInput(path)
		if err != nil {
			return err
		}

		log := zap.NewNop()
		if analyzeVerbose {
			log, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
		}

		var repo pipeline.Repository
		if analyzeDBPath != "" {
			st, err := store.Open(analyzeDBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			repo = st
		}

		var audit *core.AuditLogger
		if analyzeAuditLog != "" {
			audit, err = core.NewAuditLogger(core.AuditConfig{Path: analyzeAuditLog})
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
		}

		gen, err := llm.NewMCPGenerator(analyzeServer, nil, log)
		if err != nil {
			return fmt.Errorf("initialize generator: %w", err)
		}
		p := pipeline.New(gen, core.DefaultCorpus(), repo, log)

		ctx := cmd.Context()
		documentID := uuid.NewString()
		redacted, err := p.Ingest(ctx, documentID, text)
		if err != nil {
			return err
		}
		if audit != nil {
			if err := audit.LogRedaction(documentID, documentID, redacted); err != nil {
				return fmt.Errorf("write audit log: %w", err)
			}
		}

		analysis, err := p.Analyze(ctx, documentID, redacted.Text)
		if analysis != nil && audit != nil && analysis.Classification != nil {
			if logErr := audit.LogEvaluation(documentID, analysis.ID,
				analysis.Classification.DocumentType, analysis.Checklist); logErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "audit log write failed: %v\n", logErr)
			}
		}
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		}
		printAnalysis(analysis)
		return nil
	},
}

func printAnalysis(a *pipeline.Analysis) {
	fmt.Printf("analysis:  %s\ndocument:  %s\nstatus:    %s\n", a.ID, a.DocumentID, a.Status)
	if a.Classification != nil {
		fmt.Printf("type:      %s (confidence %.2f)\n", a.Classification.DocumentType, a.Classification.Confidence)
	}
	if a.WarningReason != "" {
		fmt.Printf("warning:   %s\n", a.WarningReason)
	}
	if a.FailureReason != "" {
		fmt.Printf("failure:   %s\n", a.FailureReason)
	}
	if len(a.Checklist) > 0 {
		fmt.Println("\nchecklist:")
		for _, item := range a.Checklist {
			fmt.Printf("  [%-14s] %-8s %s\n", item.Status, item.Severity, item.Requirement)
			if item.Evidence != "" {
				fmt.Printf("      %s\n", item.Evidence)
			}
		}
	}
	if a.Brief != "" {
		fmt.Printf("\nnegotiation brief:\n%s\n", a.Brief)
	}
	if a.Email != "" {
		fmt.Printf("\nclient email:\n%s\n", a.Email)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeServer, "server", "",
		"path to the model server binary (or set FEDCHECK_MODEL_SERVER)")
	analyzeCmd.Flags().StringVar(&analyzeDBPath, "db", "",
		"sqlite database to persist the analysis and PII audit to")
	analyzeCmd.Flags().StringVar(&analyzeAuditLog, "audit-log", "",
		"JSONL file to append redaction and evaluation audit events to")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the analysis as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "log pipeline steps")
}
