package session

type State int32

const (
	Unregistered State = iota
	Online
	Offline
	Error
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Online:
		return "online"
	case Offline:
		return "offline"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen from s once a
// run has returned.
func (s State) Terminal() bool {
	return s == Offline || s == Error
}

type Stats struct {
	Device         string
	State          State
	Submitted      int64
	SubmitFailures int64
	StatusFailures int64
}
