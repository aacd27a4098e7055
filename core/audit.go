package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditLogLevel defines the verbosity of audit logging
type AuditLogLevel string

const (
	// AuditLogLevelMinimal logs only essential events
	AuditLogLevelMinimal AuditLogLevel = "minimal"

	// AuditLogLevelStandard logs events with moderate detail
	AuditLogLevelStandard AuditLogLevel = "standard"

	// AuditLogLevelVerbose logs all event details
	AuditLogLevelVerbose AuditLogLevel = "verbose"
)

// AuditSeverity defines the severity of audit events
type AuditSeverity string

const (
	AuditInfo    AuditSeverity = "info"
	AuditWarning AuditSeverity = "warning"
	AuditError   AuditSeverity = "error"
)

// AuditEvent is one JSONL audit record. Document text never appears
// here; PII is referenced only through category, digest, and offsets.
type AuditEvent struct {
	RequestID  string        `json:"request_id"`
	Timestamp  string        `json:"timestamp"`
	EventType  string        `json:"event_type"` // e.g. "redaction", "evaluation", "pipeline_state"
	Severity   AuditSeverity `json:"severity"`
	DocumentID string        `json:"document_id,omitempty"`

	// Redaction trail: digests and offsets only
	Matches []PIIMatch `json:"matches,omitempty"`

	// Evaluation trail
	Checklist []ChecklistItem `json:"checklist,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuditLogger appends audit events to a JSONL file with size-based
// rotation and age-based retention. Construct one explicitly and pass
// it where needed; there is no ambient global instance.
type AuditLogger struct {
	mu            sync.Mutex
	logPath       string
	level         AuditLogLevel
	writer        io.Writer
	rotationSize  int64
	currentSize   int64
	retentionDays int
	enableConsole bool
	initialized   bool
}

// AuditConfig configures an AuditLogger.
type AuditConfig struct {
	Path          string
	Level         AuditLogLevel
	RotationSize  int64 // bytes; rotate when the file grows past this
	RetentionDays int
	EnableConsole bool
}

// NewAuditLogger opens (or creates) the audit log at the configured
// path.
func NewAuditLogger(cfg AuditConfig) (*AuditLogger, error) {
	if cfg.Path == "" {
		cfg.Path = "audit.log"
	}
	if cfg.Level == "" {
		cfg.Level = AuditLogLevelStandard
	}
	if cfg.RotationSize == 0 {
		cfg.RotationSize = 100 * 1024 * 1024
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 90
	}

	l := &AuditLogger{
		logPath:       cfg.Path,
		level:         cfg.Level,
		rotationSize:  cfg.RotationSize,
		retentionDays: cfg.RetentionDays,
		enableConsole: cfg.EnableConsole,
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *AuditLogger) initialize() error {
	dir := filepath.Dir(l.logPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat audit log: %w", err)
	}
	l.currentSize = info.Size()

	if l.enableConsole {
		l.writer = io.MultiWriter(f, os.Stdout)
	} else {
		l.writer = f
	}
	l.initialized = true
	return nil
}

func (l *AuditLogger) maybeRotate() error {
	if l.currentSize < l.rotationSize {
		return nil
	}

	if closer, ok := l.writer.(io.Closer); ok {
		closer.Close()
	}

	timestamp := time.Now().Format("20060102-150405")
	rotatedPath := fmt.Sprintf("%s.%s", l.logPath, timestamp)
	if err := os.Rename(l.logPath, rotatedPath); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	l.cleanupOldLogs()
	return l.initialize()
}

func (l *AuditLogger) cleanupOldLogs() {
	dir := filepath.Dir(l.logPath)
	base := filepath.Base(l.logPath)
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)

	files, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
}

// Log appends one event. At the minimal level, info events are dropped
// and match offsets are withheld (category counts remain recoverable
// from the redacted text itself).
func (l *AuditLogger) Log(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		if err := l.initialize(); err != nil {
			return err
		}
	}
	if err := l.maybeRotate(); err != nil {
		return err
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	if event.Severity == "" {
		event.Severity = AuditInfo
	}

	if l.level == AuditLogLevelMinimal {
		if event.Severity == AuditInfo {
			return nil
		}
		event.Matches = nil
		event.Checklist = nil
	}

	entry, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	n, err := fmt.Fprintln(l.writer, string(entry))
	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	l.currentSize += int64(n)
	return nil
}

// LogRedaction records a completed redaction pass for a document.
func (l *AuditLogger) LogRedaction(requestID, documentID string, result *RedactionResult) error {
	return l.Log(AuditEvent{
		RequestID:  requestID,
		EventType:  "redaction",
		Severity:   AuditInfo,
		DocumentID: documentID,
		Matches:    result.Matches,
		Metadata: map[string]string{
			"match_count": fmt.Sprintf("%d", result.Count),
		},
	})
}

// LogEvaluation records a completed compliance evaluation.
func (l *AuditLogger) LogEvaluation(requestID, analysisID string, docType DocumentType, checklist []ChecklistItem) error {
	return l.Log(AuditEvent{
		RequestID: requestID,
		EventType: "evaluation",
		Severity:  AuditInfo,
		Checklist: checklist,
		Metadata: map[string]string{
			"analysis_id":   analysisID,
			"document_type": string(docType),
			"item_count":    fmt.Sprintf("%d", len(checklist)),
		},
	})
}
