package models

import "github.com/google/uuid"

type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleFarmer, RoleBuyer:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	Id   uuid.UUID
	Role Role
}

func (a Actor) Authenticated() bool {
	return a.Id != uuid.Nil && ValidRole(a.Role)
}

func (a Actor) IsFarmer() bool { return a.Role == RoleFarmer }
func (a Actor) IsBuyer() bool  { return a.Role == RoleBuyer }
