package llm

import "errors"

// ErrProviderFailure marks transport or backend faults raised while calling
// a provider. Callers match it with errors.Is; adapters wrap the underlying
// cause into the message.
var ErrProviderFailure = errors.New("provider failure")
