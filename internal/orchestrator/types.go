package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fyrsmithlabs/agencyd/internal/processor"
)

// Task is one unit of work submitted to the orchestrator. A task without an
// ID receives a deterministic identifier derived from its content.
type Task struct {
	ID              string `json:"id,omitempty"`
	Content         string `json:"content"`
	RequiresContext bool   `json:"requires_context,omitempty"`
	ContextID       string `json:"context_id,omitempty"`
}

// Envelope is the uniform response returned for every task. Metadata is
// present regardless of outcome.
type Envelope struct {
	Success  bool              `json:"success"`
	TaskID   string            `json:"task_id,omitempty"`
	Result   *processor.Result `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]any    `json:"metadata"`
}

// deriveTaskID returns a stable identifier for tasks submitted without one.
// Identical content always derives the same id.
func deriveTaskID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "task-" + hex.EncodeToString(sum[:8])
}
