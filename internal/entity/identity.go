package entity

import "strings"

// Identity owns exactly one cart. It is either a Guest or an Authenticated user.
type Identity interface {
	// Key scopes storage for the identity's cart and sessions.
	Key() string
	Authenticated() bool
	identity()
}

type Guest struct {
	DeviceID string
}

func (g Guest) Key() string         { return "guest:" + g.DeviceID }
func (g Guest) Authenticated() bool { return false }
func (Guest) identity()             {}

type Authenticated struct {
	Email string
}

func NewAuthenticated(email string) Authenticated {
	return Authenticated{Email: NormalizeEmail(email)}
}

func (a Authenticated) Key() string         { return "user:" + NormalizeEmail(a.Email) }
func (a Authenticated) Authenticated() bool { return true }
func (Authenticated) identity()             {}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
