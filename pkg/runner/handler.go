package runner

import (
	"context"
)

// Reply is one engine answer as presented to the user.
type Reply struct {
	Text  string `json:"reply"`
	Level string `json:"level"`
	Error string `json:"error,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a reply to the user.
	Output(ctx context.Context, reply Reply) error

	// Input reads the next utterance. It returns io.EOF when the stream is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. status updates, turn errors).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
