package auth

// Policy names an access requirement of a navigation surface.
type Policy int

const (
	// PolicyPublic admits everyone.
	PolicyPublic Policy = iota
	// PolicyAuthenticated admits any logged-in user.
	PolicyAuthenticated
	// PolicyPrivileged admits logged-in users holding the admin role.
	PolicyPrivileged
)

func (p Policy) String() string {
	switch p {
	case PolicyPublic:
		return "public"
	case PolicyAuthenticated:
		return "authenticated"
	case PolicyPrivileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating a policy. Redirect is set exactly
// when Admit is false.
type Decision struct {
	Admit    bool
	Redirect string
}

func admit() Decision { return Decision{Admit: true} }

func redirect(target string) Decision { return Decision{Redirect: target} }
