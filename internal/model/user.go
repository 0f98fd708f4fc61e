package model

import "time"

const ProviderLocal = "local"

// User is the persisted entity. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	UUID       string    `json:"uuid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Provider   string    `json:"provider"`
	ProviderID *string   `json:"provider_id,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserResponse is the externally safe projection of a User.
type UserResponse struct {
	UUID       string     `json:"uuid"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Provider   string     `json:"provider"`
	IsActive   bool       `json:"is_active"`
	ProviderID *string    `json:"provider_id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func (u User) ToResponse() UserResponse {
	resp := UserResponse{
		UUID:       u.UUID,
		Username:   u.Username,
		Email:      u.Email,
		Provider:   u.Provider,
		IsActive:   u.IsActive,
		ProviderID: u.ProviderID,
	}

	if !u.CreatedAt.IsZero() {
		createdAt := u.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if !u.UpdatedAt.IsZero() {
		updatedAt := u.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}

	return resp
}
