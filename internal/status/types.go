package status

import "time"

// TickPhase represents the current phase of a provider refresh
type TickPhase string

const (
	// TickPhaseRunning means a refresh is currently in progress
	TickPhaseRunning TickPhase = "Running"

	// TickPhaseComplete means the last refresh completed successfully
	TickPhaseComplete TickPhase = "Complete"

	// TickPhaseFailed means the last refresh failed
	TickPhaseFailed TickPhase = "Failed"
)

// TickStatus represents the state of the scheduled collection provider
type TickStatus struct {
	// Phase represents the current refresh phase
	Phase TickPhase `json:"phase"`

	// Message provides additional information about the refresh status
	Message string `json:"message,omitempty"`

	// Initialized is true once at least one refresh has completed
	Initialized bool `json:"initialized"`

	// LastAttempt is the timestamp of the last refresh attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of refresh attempts since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSuccess is the timestamp of the last successful refresh
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`

	// CollectionCount is the number of collections accepted by the title filters
	CollectionCount int `json:"collectionCount"`

	// MediaCount is the number of media references listed in the last refresh
	MediaCount int `json:"mediaCount"`

	// LoadFailures is the number of media that could not be loaded in the last refresh
	LoadFailures int `json:"loadFailures"`

	// CachedItems is the number of items in the content cache after the last refresh
	CachedItems int `json:"cachedItems"`

	// Schedule describes the configured schedule, e.g. "FIXED_RATE every 30m0s"
	Schedule string `json:"schedule,omitempty"`
}
