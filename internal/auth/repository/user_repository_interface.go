package repository

import (
	"time"

	authdomain "github.com/d093w1z/deinbox/internal/auth/domain"

	"golang.org/x/oauth2"
)

// UserRepository defines the interface for user and session storage
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	Update(user *authdomain.User) error
	// UpdateGoogleToken persists a refreshed Google token
	UpdateGoogleToken(userID string, token *oauth2.Token) error

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
	DeleteRefreshTokensByUser(userID string) error
	// DeleteExpiredRefreshTokens removes every session that expired before the given time
	DeleteExpiredRefreshTokens(before time.Time) (int64, error)
}
