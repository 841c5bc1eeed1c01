package model

import "time"

// User types.  The user type doubles as the JWT role claim.
const (
	UserTypeViewer      = "viewer"
	UserTypeParticipant = "participant"
	UserTypeAdmin       = "admin"
)

// User is a row of the `users` table: login credentials plus the public
// profile shown next to comments, speaker seats and leaderboard entries.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased login.
//  PasswordHash – bcrypt hash; never serialized.
//  FullName     – display name.
//  Phone        – optional contact number.
//  UserType     – viewer, participant or admin.
//  AvatarURL    – optional profile picture.
//  IsActive     – inactive users cannot log in.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	UserType     string    `json:"user_type"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// ValidUserType reports whether t is one of the known user types.
func ValidUserType(t string) bool {
	switch t {
	case UserTypeViewer, UserTypeParticipant, UserTypeAdmin:
		return true
	}
	return false
}
