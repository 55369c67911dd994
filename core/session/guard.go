package session

// GuardState is the outcome of a section check.
type GuardState int

const (
	// Loading means the session is not resolved yet: show a placeholder, do not redirect.
	Loading GuardState = iota
	// Unauthorized means the section must not render: follow Decision.Redirect.
	Unauthorized
	// Authorized means the section may render.
	Authorized
)

func (s GuardState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

type Decision struct {
	State    GuardState `json:"-"`
	Redirect string     `json:"redirect,omitempty"`
}

// Guard gates a section on the session. It never fails: a denied entry always resolves to a redirect.
type Guard struct {
	section Section
}

func NewGuard(section Section) Guard {
	return Guard{section: section}
}

func (g Guard) Section() Section { return g.section }

// Check decides what to do with the session.
// A principal holding another role is sent to its own landing, anonymous users to RootPath.
func (g Guard) Check(s Session) Decision {
	if s.Loading {
		return Decision{State: Loading}
	}
	if s.Principal == nil {
		return Decision{State: Unauthorized, Redirect: RootPath}
	}
	if s.Principal.Role != g.section.Role {
		return Decision{State: Unauthorized, Redirect: RouteFor(s.Principal.Role)}
	}
	return Decision{State: Authorized}
}
