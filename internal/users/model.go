// Package users handles accounts, sessions, profiles, ratings and reports.
package users

import "time"

// DefaultRole is assigned when registration does not name one.
const DefaultRole = "job_seeker"

// Account is a users row without the password hash.
type Account struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone"`
	Location          string    `json:"location"`
	PreferredDistance int       `json:"preferred_distance"`
	Role              string    `json:"role"`
	AvatarURL         *string   `json:"avatar_url"`
	TotalJobsWorked   int       `json:"total_jobs_worked"`
	TotalHoursWorked  float64   `json:"total_hours_worked"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SessionUser is the user card returned with a token.
type SessionUser struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             *string `json:"phone"`
	Location          string  `json:"location"`
	PreferredDistance int     `json:"preferredDistance"`
	Role              string  `json:"role"`
	Avatar            *string `json:"avatar"`
}

func (a Account) session() SessionUser {
	return SessionUser{
		ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, Location: a.Location,
		PreferredDistance: a.PreferredDistance, Role: a.Role, Avatar: a.AvatarURL,
	}
}

// Session is the result of register and login.
type Session struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

// Profile is the public view of a user with their rating aggregate.
type Profile struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             *string  `json:"phone"`
	Location          string   `json:"location"`
	AvatarURL         *string  `json:"avatar_url"`
	Role              string   `json:"role"`
	AverageRating     *float64 `json:"average_rating"`
	TotalRatingsCount int64    `json:"total_ratings_count"`
	// MyRating is the viewer's own rating of this user, when any.
	MyRating *int `json:"my_rating,omitempty"`
}

// RatingSummary is a user's rating aggregate.
type RatingSummary struct {
	AverageRating     float64 `json:"average_rating"`
	TotalRatingsCount int64   `json:"total_ratings_count"`
}

// ─── Requests ────────────────────────────────────────────────────────────────

// Registration is the body of POST /register.
type Registration struct {
	Name              string  `json:"name" validate:"required"`
	Email             string  `json:"email" validate:"required"`
	Password          string  `json:"password" validate:"required"`
	Phone             *string `json:"phone"`
	Location          string  `json:"location" validate:"required"`
	PreferredDistance *int    `json:"preferredDistance" validate:"omitempty,gte=0"`
	Role              string  `json:"role"`
}

// Credentials is the body of POST /login.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate is the body of PUT /users/{id}.
type ProfileUpdate struct {
	Name              string  `json:"name" validate:"required"`
	Email             string  `json:"email" validate:"required"`
	Phone             *string `json:"phone"`
	Location          string  `json:"location" validate:"required"`
	PreferredDistance *int    `json:"preferredDistance" validate:"omitempty,gte=0"`
	AvatarURL         *string `json:"avatar_url"`
}

// Rating is the body of POST /users/{id}/rate.
type Rating struct {
	Rating  int     `json:"rating" validate:"min=1,max=5"`
	Comment *string `json:"comment"`
}

// Report is the body of POST /users/{id}/report.
type Report struct {
	Reason  string  `json:"reason"`
	Details *string `json:"details"`
}

// SearchFilter narrows a user search. Empty fields are ignored.
type SearchFilter struct {
	Keywords string
	Location string
	Role     string
}
