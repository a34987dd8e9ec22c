package sync

import (
	"errors"
	"fmt"
)

// ErrSyncInFlight is returned when a manual trigger races an in-flight pass
// for the same provider. The caller retries later; two concurrent passes for
// one provider are never allowed.
var ErrSyncInFlight = errors.New("sync already in flight for this provider")

// FetchError aborts a provider's whole pass. Stored state is left untouched:
// an unreachable provider is never interpreted as "zero models".
type FetchError struct {
	ProviderID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for provider %s: %v", e.ProviderID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PushError covers a single model's downstream push. It never affects that
// model's reconciliation classification.
type PushError struct {
	DisplayName string
	Err         error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push failed for %s: %v", e.DisplayName, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }
