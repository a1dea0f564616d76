package entity

import "time"

type Role string

const (
	RoleCustomer     Role = "customer"
	RoleOrganiser    Role = "organiser"
	RoleUnrecognized Role = ""
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CallerIdentity is the resolved role of the caller, produced once by the
// access policy before any engine operation runs.
type CallerIdentity struct {
	Role  Role
	ID    int64
	Email string
}

func Unrecognized() CallerIdentity {
	return CallerIdentity{Role: RoleUnrecognized}
}

func (c CallerIdentity) CustomerID() (int64, bool) {
	return c.ID, c.Role == RoleCustomer
}

func (c CallerIdentity) OrganiserID() (int64, bool) {
	return c.ID, c.Role == RoleOrganiser
}

func (c CallerIdentity) Recognized() bool {
	return c.Role == RoleCustomer || c.Role == RoleOrganiser
}
