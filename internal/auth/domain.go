package auth

import "time"

// Role decides which sales auto-approve and which endpoints a session may use.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleTemp  Role = "temp"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleTemp:
		return true
	}
	return false
}

// Identity is who a session belongs to.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// User is a stored account for credential login.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// TempCode is a one-time access code. TempUserID binds the code to a
// pre-provisioned temporary user; UserID records who redeemed it.
type TempCode struct {
	Code       string    `json:"code"`
	Generated  time.Time `json:"generated"`
	Used       bool      `json:"used"`
	UserID     string    `json:"user_id,omitempty"`
	TempUserID string    `json:"temp_user_id,omitempty"`
}

// TempUser is a pre-provisioned identity redeemable through a code.
type TempUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (t TempUser) Identity() Identity {
	return Identity{ID: t.ID, Email: t.Email, Name: t.Name, Role: RoleTemp}
}
