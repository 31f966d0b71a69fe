package entities

// User is a person record. Every user owns exactly one role.
type User struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	AvatarURL   string `json:"avatarURL"`
	Role        *Role  `json:"role"`
}

// RoleID returns the id of the referenced role, or "" when no role is attached
func (u *User) RoleID() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.ID
}
