package model

type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	IsActive             bool   `json:"is_active"`
	CreatedAt            string `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the payload returned on successful login.
type LoginResult struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// RefreshResult carries the freshly minted access token; the refresh
// token itself is never rotated.
type RefreshResult struct {
	AccessToken string `json:"accessToken"`
}
