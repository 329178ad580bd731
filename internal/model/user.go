package model

import (
	"time"
)

// UserType classifies the account holder.
type UserType string

const (
	UserTypeStudent   UserType = "student"
	UserTypeTeacher   UserType = "teacher"
	UserTypeRecruiter UserType = "recruiter"
	UserTypeOther     UserType = "other"
)

func ValidUserTypes() []string {
	return []string{
		string(UserTypeStudent),
		string(UserTypeTeacher),
		string(UserTypeRecruiter),
		string(UserTypeOther),
	}
}

// User is the credential-store record. PasswordHash and RefreshToken are
// never serialized to clients.
type User struct {
	ID                    string     `db:"id" json:"id"`
	Fullname              string     `db:"fullname" json:"fullname"`
	Username              string     `db:"username" json:"username"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Bio                   string     `db:"bio" json:"bio"`
	Headline              string     `db:"headline" json:"headline"`
	UserType              UserType   `db:"user_type" json:"userType"`
	AvatarKey             string     `db:"avatar_key" json:"-"`
	AvatarURL             string     `db:"avatar_url" json:"avatarUrl"`
	IsProfileComplete     bool       `db:"is_profile_complete" json:"isProfileComplete"`
	RefreshToken          *string    `db:"refresh_token" json:"-"`
	RefreshTokenExpiresAt *time.Time `db:"refresh_token_expires_at" json:"-"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

// Sanitized returns a copy safe to hand to any caller: credential fields
// are zeroed on top of being json-suppressed.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	u.RefreshTokenExpiresAt = nil
	return u
}

type CreateUserParams struct {
	Fullname     string
	Username     string
	Email        string
	PasswordHash string
	UserType     UserType
	AvatarKey    string
	AvatarURL    string
}

type UpdateProfileParams struct {
	Fullname  *string
	Bio       *string
	Headline  *string
	AvatarKey *string
	AvatarURL *string
}
