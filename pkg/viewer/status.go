package viewer

// Status is the state of a load request.
//
//	Idle -> Reading -> Parsing -> Attaching -> Ready
//
// Failed is reachable from Reading, Parsing and Attaching.
type Status int32

const (
	StatusIdle Status = iota
	StatusReading
	StatusParsing
	StatusAttaching
	StatusReady
	StatusFailed
)

var statusNames = [...]string{
	StatusIdle:      "idle",
	StatusReading:   "reading",
	StatusParsing:   "parsing",
	StatusAttaching: "attaching",
	StatusReady:     "ready",
	StatusFailed:    "failed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}

	return statusNames[s]
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}
