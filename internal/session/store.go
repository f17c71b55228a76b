// Package session keeps per-client conversation state between requests.
// Clients are identified by a random session ID carried in a signed cookie;
// the state itself lives server-side in a Store.
package session

import (
	"context"

	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

// State is what the gateway remembers about a client.
type State struct {
	LastPrompt string
	LastLevel  safety.Level
}

// Store persists session state keyed by session ID. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get loads the state for sid. The boolean reports whether any state
	// existed; absence is not an error.
	Get(ctx context.Context, sid string) (State, bool, error)

	// Set replaces the state for sid.
	Set(ctx context.Context, sid string, state State) error
}
