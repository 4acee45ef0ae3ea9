package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Principal is an account of the identity provider.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Permissions gates back-office sections.
type Permissions struct {
	Products bool `json:"products"`
	Orders   bool `json:"orders"`
	Messages bool `json:"messages"`
	Users    bool `json:"users"`
}

// FullPermissions is granted to admins provisioned by the operator CLI.
var FullPermissions = Permissions{Products: true, Orders: true, Messages: true, Users: true}

type AdminUser struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Role        string      `json:"role"`
	Permissions Permissions `json:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastLogin   time.Time   `json:"lastLogin"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLogin   time.Time `json:"lastLogin"`
}

// Identity is the resolved role of a principal. Exactly one of Admin and
// User is set.
type Identity struct {
	Kind  string     `json:"kind"`
	Admin *AdminUser `json:"admin,omitempty"`
	User  *User      `json:"user,omitempty"`
}

// IsAdmin reports whether the identity carries admin capabilities.
func (i Identity) IsAdmin() bool {
	return i.Kind == RoleAdmin && i.Admin != nil
}

// ID returns the principal id behind the identity.
func (i Identity) ID() string {
	if i.Admin != nil {
		return i.Admin.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Email returns the email behind the identity.
func (i Identity) Email() string {
	if i.Admin != nil {
		return i.Admin.Email
	}
	if i.User != nil {
		return i.User.Email
	}
	return ""
}
