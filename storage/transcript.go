package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TranscriptEntry is one line of what the user saw on screen.
type TranscriptEntry struct {
	Role         string    `json:"role"`
	Content      string    `json:"content,omitempty"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Transcript is an explicit export of one chat session. Nothing reads it back.
type Transcript struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Provider   string            `json:"provider"`
	Model      string            `json:"model"`
	StartedAt  time.Time         `json:"started_at"`
	ExportedAt time.Time         `json:"exported_at"`
	Entries    []TranscriptEntry `json:"entries"`
}

// ExportTranscript writes t as indented JSON to exportPath.
func ExportTranscript(t *Transcript, exportPath string) error {
	if t.ExportedAt.IsZero() {
		t.ExportedAt = time.Now()
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// 0700 - user-only access
	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// 0600 - user-only read/write
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-",
		"<", "-", ">", "-", "|", "-", " ", "-", "\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)

	name = strings.Trim(name, "-.")

	if r := []rune(name); len(r) > 50 {
		name = strings.TrimRight(string(r[:50]), "-.")
	}

	if name == "" {
		name = "session"
	}

	return name
}

// GenerateExportPath returns a timestamped file name under dir.
func GenerateExportPath(dir, sessionName string) string {
	sanitized := SanitizeFilename(sessionName)
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("stockchat-%s-%s.json", sanitized, timestamp)
	return filepath.Join(dir, filename)
}

// GenerateSessionName derives a short name from the first user message.
func GenerateSessionName(firstMessage string) string {
	name := strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(firstMessage))
	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	if r := []rune(name); len(r) > 30 {
		name = string(r[:30]) + "..."
	}
	return name
}
