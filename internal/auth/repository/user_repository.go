package repository

import (
	"errors"
	"time"

	authdomain "github.com/d093w1z/deinbox/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(user *authdomain.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return r.db.Create(user).Error
}

func (r *userRepository) FindByEmail(email string) (*authdomain.User, error) {
	return r.findOne("email = ?", email)
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	return r.findOne("id = ?", id)
}

// findOne returns nil, nil when nothing matches
func (r *userRepository) findOne(query string, arg any) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *authdomain.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

// UpdateGoogleToken writes only the token columns so a refresh racing with a
// profile update cannot overwrite it. An empty refresh token keeps the stored one.
func (r *userRepository) UpdateGoogleToken(userID string, token *oauth2.Token) error {
	fields := map[string]any{
		"access_token": token.AccessToken,
		"token_expiry": token.Expiry,
		"updated_at":   time.Now(),
	}
	if token.RefreshToken != "" {
		fields["refresh_token"] = token.RefreshToken
	}
	return r.db.Model(&authdomain.User{}).Where("id = ?", userID).Updates(fields).Error
}

func (r *userRepository) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	var refreshToken authdomain.RefreshToken
	err := r.db.Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *userRepository) DeleteRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

func (r *userRepository) DeleteRefreshTokensByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&authdomain.RefreshToken{}).Error
}

func (r *userRepository) DeleteExpiredRefreshTokens(before time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", before).Delete(&authdomain.RefreshToken{})
	return result.RowsAffected, result.Error
}

// SaveRefreshToken stores a session token and drops the user's expired ones.
// Valid tokens from other devices are kept.
func (r *userRepository) SaveRefreshToken(token *authdomain.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", token.UserID, time.Now()).Delete(&authdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}
