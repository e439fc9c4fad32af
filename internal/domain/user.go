package domain

import (
	"time"
)

// User represents a registered marketplace user.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	// AverageRating is the mean of every rating this user has given across
	// all products, 0 when they have authored none. It is a stored aggregate
	// maintained by the rating recompute paths, never set directly.
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUserView is the representation of a user exposed to other users,
// e.g. as a review author.
type PublicUserView struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	AverageRating float64 `json:"average_rating"`
}

// OwnUserView is the representation of a user exposed to the account owner
// and to admins.
type OwnUserView struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PublicView returns the user's public representation.
func (u *User) PublicView() PublicUserView {
	return PublicUserView{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		AverageRating: u.AverageRating,
	}
}

// OwnView returns the full representation for the account owner or an admin.
func (u *User) OwnView() OwnUserView {
	return OwnUserView{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          u.Role,
		AverageRating: u.AverageRating,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// RefreshToken represents a stored refresh token for a user session.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
