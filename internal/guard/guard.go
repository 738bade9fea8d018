// Package guard decides, per request, whether a credential may open a UI path.
// It performs no I/O; the HTTP adapter in internal/middleware applies the result.
package guard

import (
	"net/http"
	"path"

	"gymsync/internal/models"
	"gymsync/internal/rbac"
	"gymsync/internal/security"
)

// EntryPoint is where unauthenticated visitors are sent.
const EntryPoint = "/login"

type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	}
	return "unknown"
}

type Decision struct {
	Outcome Outcome
	// Target is set for Redirect.
	Target string
	// Status is set for Deny.
	Status int
	// ClearCredentials asks the adapter to drop the token and role cookies.
	ClearCredentials bool
	// Role is the resolved role when the credential decoded.
	Role models.Role
	// Reason is a short machine-readable cause, used for logging.
	Reason string
}

type Request struct {
	Path  string
	Token string
	// WantsJSON switches redirects to Deny for API-style clients.
	WantsJSON bool
}

type TokenDecoder interface {
	Decode(raw string) (security.Token, error)
}

type Guard struct {
	tokens   TokenDecoder
	registry *rbac.Registry
}

func New(tokens TokenDecoder, registry *rbac.Registry) *Guard {
	return &Guard{tokens: tokens, registry: registry}
}

func (g *Guard) Decide(req Request) Decision {
	raw := req.Path
	req.Path = cleanPath(raw)
	if !g.registry.Protected(raw) && !g.registry.Protected(req.Path) {
		return Decision{Outcome: Allow, Reason: "public"}
	}

	if req.Token == "" {
		return g.unauthenticated(req, "missing_token")
	}

	token, err := g.tokens.Decode(req.Token)
	if err != nil {
		return g.unauthenticated(req, "invalid_token")
	}

	role := token.Role
	if g.registry.PathAllowed(role, req.Path) {
		return Decision{Outcome: Allow, Role: role, Reason: "allowed"}
	}

	if req.WantsJSON {
		return Decision{Outcome: Deny, Status: http.StatusForbidden, Role: role, Reason: "role_mismatch"}
	}

	target := g.registry.HomePath(role)
	if target == "" {
		target = "/"
	}
	return Decision{Outcome: Redirect, Target: target, Role: role, Reason: "role_mismatch"}
}

func (g *Guard) unauthenticated(req Request, reason string) Decision {
	if req.WantsJSON {
		return Decision{Outcome: Deny, Status: http.StatusUnauthorized, ClearCredentials: true, Reason: reason}
	}
	return Decision{Outcome: Redirect, Target: EntryPoint, ClearCredentials: true, Reason: reason}
}

// cleanPath resolves dot segments so "/dashboard/member/../trainer" is judged
// as "/dashboard/trainer".
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
