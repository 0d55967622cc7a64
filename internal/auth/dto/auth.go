package dto

import authdomain "github.com/d093w1z/deinbox/internal/auth/domain"

// GoogleSignInRequest carries the authorization code from the OAuth consent redirect
type GoogleSignInRequest struct {
	Code string `json:"code" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         *authdomain.User `json:"user"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type AvatarResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
}
