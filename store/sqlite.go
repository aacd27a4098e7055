// Package store persists analyses and the PII audit trail in sqlite.
// It implements pipeline.Repository; the algorithmic core never touches
// it directly.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crowell-labs/fedcheck/core"
	"github.com/crowell-labs/fedcheck/pipeline"
)

//go:embed schema.sql
var schema string

// Store handles database operations
type Store struct {
	db *sql.DB
}

// Open creates a Store backed by the sqlite database at dbPath,
// initializing the schema if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis inserts a new analysis record.
func (s *Store) SaveAnalysis(ctx context.Context, a *pipeline.Analysis) error {
	classificationJSON, fieldsJSON, err := marshalPayload(a)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, document_id, status, classification_json, fields_json,
		   retrieved_rule_ids, brief, email, warning_reason, failure_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DocumentID, string(a.Status), classificationJSON, fieldsJSON,
		strings.Join(a.RetrievedRuleIDs, ","), a.Brief, a.Email,
		a.WarningReason, a.FailureReason, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return s.replaceChecklist(ctx, a)
}

// UpdateAnalysis rewrites an existing analysis record and its checklist.
func (s *Store) UpdateAnalysis(ctx context.Context, a *pipeline.Analysis) error {
	classificationJSON, fieldsJSON, err := marshalPayload(a)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, classification_json = ?, fields_json = ?,
		   retrieved_rule_ids = ?, brief = ?, email = ?, warning_reason = ?,
		   failure_reason = ?, updated_at = ?
		 WHERE id = ?`,
		string(a.Status), classificationJSON, fieldsJSON,
		strings.Join(a.RetrievedRuleIDs, ","), a.Brief, a.Email,
		a.WarningReason, a.FailureReason, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update analysis: no record with id %s", a.ID)
	}
	return s.replaceChecklist(ctx, a)
}

func (s *Store) replaceChecklist(ctx context.Context, a *pipeline.Analysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checklist tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM checklist_items WHERE analysis_id = ?", a.ID); err != nil {
		return fmt.Errorf("clear checklist: %w", err)
	}
	for i, item := range a.Checklist {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_items (analysis_id, position, requirement, status, evidence, rule_id, severity)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, i, item.Requirement, string(item.Status), item.Evidence,
			item.RuleID, string(item.Severity),
		); err != nil {
			return fmt.Errorf("insert checklist item: %w", err)
		}
	}
	return tx.Commit()
}

// SavePIIAudit appends the redaction audit trail for one document.
// Only digests and offsets are stored, never literal values.
func (s *Store) SavePIIAudit(ctx context.Context, documentID string, matches []core.PIIMatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, m := range matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pii_audit (document_id, category, digest, start_index, end_index, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			documentID, string(m.Category), m.Digest, m.StartIndex, m.EndIndex, now,
		); err != nil {
			return fmt.Errorf("insert audit row: %w", err)
		}
	}
	return tx.Commit()
}

// GetAnalysis retrieves an analysis by id, including its checklist.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*pipeline.Analysis, error) {
	var a pipeline.Analysis
	var status, ruleIDs string
	var classificationJSON, fieldsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, status, classification_json, fields_json, retrieved_rule_ids,
		   brief, email, warning_reason, failure_reason, created_at, updated_at
		 FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.DocumentID, &status, &classificationJSON, &fieldsJSON, &ruleIDs,
		&a.Brief, &a.Email, &a.WarningReason, &a.FailureReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	a.Status = pipeline.Status(status)
	if ruleIDs != "" {
		a.RetrievedRuleIDs = strings.Split(ruleIDs, ",")
	}
	if classificationJSON.Valid && classificationJSON.String != "" {
		if err := json.Unmarshal([]byte(classificationJSON.String), &a.Classification); err != nil {
			return nil, fmt.Errorf("decode classification: %w", err)
		}
	}
	if fieldsJSON.Valid && fieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &a.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT requirement, status, evidence, rule_id, severity
		 FROM checklist_items WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get checklist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item core.ChecklistItem
		var itemStatus, severity string
		if err := rows.Scan(&item.Requirement, &itemStatus, &item.Evidence, &item.RuleID, &severity); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		item.Status = core.ChecklistStatus(itemStatus)
		item.Severity = core.Severity(severity)
		a.Checklist = append(a.Checklist, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist: %w", err)
	}

	return &a, nil
}

// PIIAuditRow is one persisted redaction audit record.
type PIIAuditRow struct {
	DocumentID string
	Category   core.PIICategory
	Digest     string
	StartIndex int
	EndIndex   int
	CreatedAt  time.Time
}

// PIIAuditForDocument returns the audit trail rows for a document,
// ordered by start offset.
func (s *Store) PIIAuditForDocument(ctx context.Context, documentID string) ([]PIIAuditRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, category, digest, start_index, end_index, created_at
		 FROM pii_audit WHERE document_id = ? ORDER BY start_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query audit rows: %w", err)
	}
	defer rows.Close()

	var out []PIIAuditRow
	for rows.Next() {
		var r PIIAuditRow
		var category string
		if err := rows.Scan(&r.DocumentID, &category, &r.Digest, &r.StartIndex, &r.EndIndex, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		r.Category = core.PIICategory(category)
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalPayload(a *pipeline.Analysis) (string, string, error) {
	var classificationJSON, fieldsJSON string
	if a.Classification != nil {
		b, err := json.Marshal(a.Classification)
		if err != nil {
			return "", "", fmt.Errorf("encode classification: %w", err)
		}
		classificationJSON = string(b)
	}
	if a.Fields != nil {
		b, err := json.Marshal(a.Fields)
		if err != nil {
			return "", "", fmt.Errorf("encode fields: %w", err)
		}
		fieldsJSON = string(b)
	}
	return classificationJSON, fieldsJSON, nil
}
