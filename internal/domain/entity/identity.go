package entity

import "github.com/google/uuid"

// Identity is the caller resolved from an access token. Role is fixed for
// the lifetime of the session.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	Role    string
	TokenID string
}

func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }
func (i Identity) IsDoctor() bool  { return i.Role == RoleDoctor }
func (i Identity) IsPatient() bool { return i.Role == RolePatient }
