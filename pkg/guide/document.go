package guide

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SchemaVersion captures the guide document version for compatibility checks.
const SchemaVersion = 1

// Document is the durable, ordered record of one recording: the only
// persisted artifact besides the screenshot files it references.
type Document struct {
	SchemaVersion int        `json:"schema_version"`
	SessionID     string     `json:"session_id"`
	Title         string     `json:"title,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
	AppVersion    string     `json:"app_version,omitempty"`
	Steps         []Step     `json:"steps"`
}

// Snapshot captures the session's current state as a document.
func (s *Session) Snapshot(title, appVersion string, stoppedAt *time.Time) Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		SessionID:     s.id,
		Title:         title,
		StartedAt:     s.startedAt,
		AppVersion:    appVersion,
		Steps:         s.Steps(),
	}
	if stoppedAt != nil {
		utc := stoppedAt.UTC()
		doc.StoppedAt = &utc
	}
	return doc
}

// SaveDocument writes the document atomically via a temp-file rename.
func SaveDocument(doc Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal guide document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write guide document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace guide document: %w", err)
	}
	return nil
}

// LoadDocument reads and validates a guide document.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read guide document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode guide document: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return Document{}, fmt.Errorf("unsupported guide schema version %d", doc.SchemaVersion)
	}
	return doc, nil
}

// Restore rebuilds a session from a persisted document, used when editing or
// exporting a finished recording.
func Restore(doc Document, layout Layout) *Session {
	s := NewSession(doc.SessionID, doc.StartedAt, layout)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, doc.Steps...)
	for _, step := range s.steps {
		if step.ID >= s.nextID {
			s.nextID = step.ID + 1
		}
	}
	return s
}
