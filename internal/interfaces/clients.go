// Package interfaces defines service contracts for Rampart
package interfaces

import "context"

// GeminiClient provides access to the Gemini API
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// Summarize produces a short summary of a longer text, capped at
	// maxWords words.
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}
