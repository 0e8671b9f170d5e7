package provider

import "fmt"

// ListingPhase names the listing call that failed during a tick
type ListingPhase string

const (
	// PhaseListCollections is the listing of every remote collection
	PhaseListCollections ListingPhase = "ListCollections"

	// PhaseListMedia is the listing of the media of one collection
	PhaseListMedia ListingPhase = "ListMedia"
)

// ListingError reports a failed listing call. It aborts the tick that raised it.
type ListingError struct {
	Phase ListingPhase

	// Collection is the title of the collection being listed, empty for PhaseListCollections
	Collection string

	Err error
}

func (e *ListingError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s failed for collection '%s': %v", e.Phase, e.Collection, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}
