package usecase

import (
	"context"

	authdomain "github.com/d093w1z/deinbox/internal/auth/domain"
	authdto "github.com/d093w1z/deinbox/internal/auth/dto"
)

// AuthUsecase defines the interface for sign-in and app sessions
type AuthUsecase interface {
	// GoogleAuthURL is the consent page the frontend redirects to
	GoogleAuthURL(state string) string
	// GoogleSignIn exchanges an authorization code, upserts the user and stores their Google tokens
	GoogleSignIn(ctx context.Context, code string) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(token string) (*authdomain.User, error)
}
