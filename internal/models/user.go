// ABOUTME: User represents a local study profile
// ABOUTME: The password hash is stored but never exposed by read operations
package models

// User is a local account
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	// PasswordHash is write-only: reads always leave it empty
	PasswordHash string         `json:"passwordHash,omitempty"`
	Metadata     map[string]any `json:"metadata"`
}

// EnsureID assigns a generated ID if the user has none and returns the ID
func (u *User) EnsureID() string {
	if u.ID == "" {
		u.ID = NewID()
	}
	return u.ID
}

// Public returns a copy of the user without credential material
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// CurrentUserSetting is the settings key holding the active user's ID
const CurrentUserSetting = "currentUserId"
