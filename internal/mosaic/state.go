package mosaic

// State is a phase of a mosaic cycle
type State int

const (
	StateIdle State = iota
	StateGating
	StateBuilding
	StateHighlighting
	StateCleaningUp
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGating:
		return "Gating"
	case StateBuilding:
		return "Building"
	case StateHighlighting:
		return "Highlighting"
	case StateCleaningUp:
		return "CleaningUp"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
