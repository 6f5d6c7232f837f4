package models

const RoleAdmin = "admin"

// User is the single session record. A nil user means logged out.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AdminUser is written on login.
func AdminUser() *User {
	return &User{ID: "user_admin", FullName: "Admin", Role: RoleAdmin}
}
