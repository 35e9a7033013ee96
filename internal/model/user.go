package model

import "time"

// Role is the closed set of account roles. Role-dependent behavior is
// checked explicitly at each operation boundary rather than dispatched
// through interfaces.
type Role string

const (
	RoleTraveler Role = "TRAVELER"
	RoleGuide    Role = "GUIDE"
)

// ParseRole normalizes a role string. Unknown values report false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTraveler:
		return RoleTraveler, true
	case RoleGuide:
		return RoleGuide, true
	}
	return "", false
}

// User mirrors the `users` table. Rating and ReviewsCount are derived
// aggregates recomputed in full whenever a review is created; follower
// counts are derived from the follows table and not stored here.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased email address.
//  FirstName    – given name.
//  LastName     – family name.
//  PasswordHash – bcrypt hash of the password.
//  Role         – TRAVELER or GUIDE.
//  IsVerified   – whether the email address has been verified.
//  Rating       – mean guide rating across reviews (guides only).
//  ReviewsCount – number of reviews aggregated into Rating.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	IsVerified   bool
	Rating       float64
	ReviewsCount int
	CreatedAt    time.Time
}

// FullName joins first and last name for notification messages.
func (u User) FullName() string { return u.FirstName + " " + u.LastName }
