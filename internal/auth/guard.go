package auth

import (
	"strings"

	"github.com/spec-kit/clinic-admin/internal/domain"
)

// Routes the guard redirects to.
const (
	LoginPath      = "/login"
	LockScreenPath = "/lock-screen"
)

var publicPaths = map[string]struct{}{
	LoginPath:          {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
	LockScreenPath:     {},
	"/logout":          {},
	"/error-404":       {},
	"/error-500":       {},
	"/metrics":         {},
}

var publicPrefixes = []string{"/health/", "/static/", "/api/auth/"}

// IsPublic reports whether path is reachable without a session.
func IsPublic(path string) bool {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if _, ok := publicPaths[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Snapshot is the part of a session the guard decides on.
type Snapshot struct {
	Loading       bool
	Locked        bool
	HasCredential bool
	User          *domain.Identity
}

// State is the guard's classification of a request.
type State int

const (
	StatePublic State = iota
	StateChecking
	StateUnauthenticated
	StateWrongRole
	StateLocked
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StatePublic:
		return "PUBLIC"
	case StateChecking:
		return "CHECKING"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateWrongRole:
		return "WRONG_ROLE"
	case StateLocked:
		return "LOCKED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	}
	return "UNKNOWN"
}

// Decision is what the guard does with a request.
type Decision struct {
	State       State
	Redirect    string
	ForceLogout bool
}

// Allowed reports whether the protected handler may run.
func (d Decision) Allowed() bool {
	return d.State == StatePublic || d.State == StateAuthenticated
}

// Decide classifies a request for path made by a session in state s.
func Decide(path string, s Snapshot) Decision {
	if IsPublic(path) {
		return Decision{State: StatePublic}
	}
	if s.Loading {
		return Decision{State: StateChecking}
	}
	if !s.HasCredential || s.User == nil {
		return Decision{State: StateUnauthenticated, Redirect: LoginPath, ForceLogout: s.User != nil || s.HasCredential}
	}
	if !s.User.IsAdmin() {
		return Decision{State: StateWrongRole, Redirect: LoginPath, ForceLogout: true}
	}
	if s.Locked {
		return Decision{State: StateLocked, Redirect: LockScreenPath}
	}
	return Decision{State: StateAuthenticated}
}
