package api

import "time"

// OutcomeResponse is the externally visible form of a pass result.
type OutcomeResponse struct {
	ProviderID  string    `json:"provider_id"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Unchanged   int       `json:"unchanged"`
	Orphaned    int       `json:"orphaned"`
	Reactivated int       `json:"reactivated"`
	Pushed      int       `json:"pushed"`
	Skipped     int       `json:"skipped"`
	Errored     int       `json:"errored"`
	Error       string    `json:"error,omitempty"`
	OrphanIDs   []string  `json:"orphan_ids,omitempty"`
	RanAt       time.Time `json:"ran_at"`
}

// PruneResponse reports what the explicit orphan-prune operation removed
// from the downstream registry.
type PruneResponse struct {
	Deleted []string `json:"deleted"`
}
