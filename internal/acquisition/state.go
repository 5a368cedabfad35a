package acquisition

// State is the lifecycle position of one acquired resource.
type State int

const (
	Empty State = iota
	CacheHit
	Fetching
	Populated
	Error
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case CacheHit:
		return "cache_hit"
	case Fetching:
		return "fetching"
	case Populated:
		return "populated"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is the display view of a resource.
type Status struct {
	State   State  `json:"state"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}
