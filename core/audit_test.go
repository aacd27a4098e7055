package core

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAuditEvents(t *testing.T, path string) []AuditEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestAuditLoggerWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, err := NewAuditLogger(AuditConfig{Path: path})
	require.NoError(t, err)

	require.NoError(t, logger.Log(AuditEvent{
		RequestID: "req-1",
		EventType: "pipeline_state",
		Metadata:  map[string]string{"status": "processing"},
	}))
	require.NoError(t, logger.Log(AuditEvent{
		RequestID: "req-2",
		EventType: "pipeline_state",
		Severity:  AuditWarning,
	}))

	events := readAuditEvents(t, path)
	require.Len(t, events, 2)

	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, AuditInfo, events[0].Severity, "severity defaults to info")
	assert.NotEmpty(t, events[0].Timestamp)
	assert.Equal(t, AuditWarning, events[1].Severity)
}

// TestAuditLoggerRedactionTrail verifies that a redaction event carries
// digests and offsets but never the literal values.
func TestAuditLoggerRedactionTrail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, err := NewAuditLogger(AuditConfig{Path: path})
	require.NoError(t, err)

	result, err := Redact("Contact john@acme.com or 555-123-4567")
	require.NoError(t, err)
	require.NoError(t, logger.LogRedaction("req-1", "doc-1", result))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "john@acme.com")
	assert.NotContains(t, string(raw), "555-123-4567")

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "redaction", events[0].EventType)
	assert.Equal(t, "doc-1", events[0].DocumentID)
	assert.Len(t, events[0].Matches, 2)
	assert.Equal(t, "2", events[0].Metadata["match_count"])
}

// TestAuditLoggerMinimalLevel drops info events entirely.
func TestAuditLoggerMinimalLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, err := NewAuditLogger(AuditConfig{Path: path, Level: AuditLogLevelMinimal})
	require.NoError(t, err)

	require.NoError(t, logger.Log(AuditEvent{EventType: "redaction", Severity: AuditInfo}))
	require.NoError(t, logger.Log(AuditEvent{
		EventType: "evaluation",
		Severity:  AuditError,
		Checklist: []ChecklistItem{{Requirement: "r", Status: StatusCompliant}},
	}))

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "evaluation", events[0].EventType)
	assert.Empty(t, events[0].Checklist, "minimal level strips checklist detail")
}

// TestAuditLoggerRotation forces a rotation with a tiny size limit and
// expects both the fresh log and the rotated file to exist.
func TestAuditLoggerRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	logger, err := NewAuditLogger(AuditConfig{Path: path, RotationSize: 64})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, logger.Log(AuditEvent{
			RequestID: "req",
			EventType: "pipeline_state",
			Metadata:  map[string]string{"padding": "some event body long enough to pass the limit"},
		}))
	}

	rotated, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.NotEmpty(t, rotated, "rotation should have produced at least one archived file")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(200))
}

func TestAuditLogEvaluation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, err := NewAuditLogger(AuditConfig{Path: path})
	require.NoError(t, err)

	checklist := NewEvaluator(DefaultCorpus()).Evaluate(DocCompanyProfile, DocumentFields{
		UEI: "A1B2C3D4E5F6",
	}, nil)
	require.NoError(t, logger.LogEvaluation("req-1", "an-1", DocCompanyProfile, checklist))

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, "evaluation", events[0].EventType)
	assert.Equal(t, "company_profile", events[0].Metadata["document_type"])
	assert.Equal(t, "2", events[0].Metadata["item_count"])
	assert.Len(t, events[0].Checklist, 2)
}
