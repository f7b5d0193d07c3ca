package updatemanager

// Status is the single current state of the updater
type Status int

const (
	StatusIdle Status = iota
	StatusChecking
	StatusAvailable
	StatusNotAvailable
	StatusDownloading
	StatusDownloaded
	StatusInstalling
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusChecking:
		return "checking"
	case StatusAvailable:
		return "available"
	case StatusNotAvailable:
		return "not-available"
	case StatusDownloading:
		return "downloading"
	case StatusDownloaded:
		return "downloaded"
	case StatusInstalling:
		return "installing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// InFlight reports whether a check, download or install is running
func (s Status) InFlight() bool {
	switch s {
	case StatusChecking, StatusDownloading, StatusDownloaded, StatusInstalling:
		return true
	default:
		return false
	}
}

type trigger int

const (
	triggerCheck trigger = iota
	triggerCheckFailed
	triggerNoUpdate
	triggerUpdateFound
	triggerInstall
	triggerDownloaded
	triggerPrimaryDone
	triggerFailed
	triggerFallbackStart
	triggerFallbackFetched
)

func (t trigger) String() string {
	switch t {
	case triggerCheck:
		return "check"
	case triggerCheckFailed:
		return "check failed"
	case triggerNoUpdate:
		return "no update"
	case triggerUpdateFound:
		return "update found"
	case triggerInstall:
		return "install"
	case triggerDownloaded:
		return "downloaded"
	case triggerPrimaryDone:
		return "primary done"
	case triggerFailed:
		return "failed"
	case triggerFallbackStart:
		return "fallback start"
	case triggerFallbackFetched:
		return "fallback fetched"
	default:
		return "unknown"
	}
}

// transitions lists every legal move, anything else is rejected
var transitions = map[Status]map[trigger]Status{
	StatusIdle: {
		triggerCheck: StatusChecking,
	},
	StatusNotAvailable: {
		triggerCheck: StatusChecking,
	},
	StatusAvailable: {
		triggerCheck:   StatusChecking,
		triggerInstall: StatusDownloading,
	},
	StatusError: {
		triggerCheck:         StatusChecking,
		triggerFallbackStart: StatusDownloading,
	},
	StatusChecking: {
		triggerCheckFailed: StatusError,
		triggerNoUpdate:    StatusNotAvailable,
		triggerUpdateFound: StatusAvailable,
	},
	StatusDownloading: {
		triggerDownloaded:      StatusDownloaded,
		triggerPrimaryDone:     StatusInstalling,
		triggerFailed:          StatusError,
		triggerFallbackFetched: StatusInstalling,
	},
	StatusDownloaded: {
		triggerPrimaryDone: StatusInstalling,
		triggerFailed:      StatusError,
	},
	StatusInstalling: {
		triggerFailed: StatusError,
	},
}

func (s Status) next(t trigger) (Status, bool) {
	to, ok := transitions[s][t]
	return to, ok
}
