package model

import "time"

// User is a row in the `users` table. PasswordHash must never leave the
// service; handlers respond with the Public projection instead.
type User struct {
	ID           string    // users.id (uuid v4)
	Name         string    // users.name
	Email        string    // users.email (stored lower-cased, unique)
	PasswordHash string    // users.password_hash (bcrypt)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PublicUser is the sanitized view of a user returned by the API.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the credential fields for use in responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
