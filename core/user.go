package core

// Role of an authenticated user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the profile record held by the session store. It mirrors the
// representation returned by GET /userinfo.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	HomeAddress       *Address  `json:"homeAddress,omitempty"`
	ShippingAddresses []Address `json:"shippingAddresses,omitempty"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Address is a home or shipping address attached to a profile
type Address struct {
	ID         string `json:"id,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	IsDefault  bool   `json:"isDefault,omitempty"`
}
