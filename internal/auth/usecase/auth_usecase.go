package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "github.com/d093w1z/deinbox/internal/auth/domain"
	authdto "github.com/d093w1z/deinbox/internal/auth/dto"
	"github.com/d093w1z/deinbox/internal/auth/repository"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const providerGoogle = "google"

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo     repository.UserRepository
	config       *config.Config
	oauthConfig  *oauth2.Config
	userinfoOpts []option.ClientOption
	log          *zap.Logger
	now          func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, cfg *config.Config, log *zap.Logger) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		config:      cfg,
		oauthConfig: GoogleOAuthConfig(cfg),
		log:         log,
		now:         time.Now,
	}
}

// GoogleOAuthConfig is the consent configuration for sign-in. Gmail modify
// access is requested up front so the dashboard can delete and archive.
func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes: []string{
			gmailapi.GmailModifyScope,
			oauth2api.UserinfoEmailScope,
			oauth2api.UserinfoProfileScope,
		},
		Endpoint: google.Endpoint,
	}
}

func (u *authUsecase) GoogleAuthURL(state string) string {
	return u.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (u *authUsecase) GoogleSignIn(ctx context.Context, code string) (*authdto.TokenResponse, error) {
	token, err := u.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, &emaildomain.AuthError{Reason: "google code exchange failed", Err: err}
	}

	opts := append([]option.ClientOption{option.WithTokenSource(u.oauthConfig.TokenSource(ctx, token))}, u.userinfoOpts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, &emaildomain.AuthError{Reason: "failed to load google profile", Err: err}
	}
	if info.Email == "" || (info.VerifiedEmail != nil && !*info.VerifiedEmail) {
		return nil, &emaildomain.AuthError{Reason: "google email is not verified"}
	}

	// Find or create user
	user, err := u.userRepo.FindByEmail(info.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &authdomain.User{
			Email:     info.Email,
			Name:      info.Name,
			AvatarURL: info.Picture,
			Provider:  providerGoogle,
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
		u.log.Info("user created", zap.String("user_id", user.ID))
	} else {
		user.Name = info.Name
		user.AvatarURL = info.Picture
		if err := u.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	if err := u.userRepo.UpdateGoogleToken(user.ID, token); err != nil {
		return nil, fmt.Errorf("store google token: %w", err)
	}
	user.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		user.RefreshToken = token.RefreshToken
	}
	user.TokenExpiry = token.Expiry

	return u.generateTokens(user)
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	claims, err := u.parse(refreshToken)
	if err != nil {
		return nil, &emaildomain.AuthError{Reason: "invalid refresh token", Err: err}
	}

	// Check if token exists in repository
	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if storedToken == nil || storedToken.ExpiresAt.Before(u.now()) {
		return nil, &emaildomain.AuthError{Reason: "refresh token expired"}
	}

	user, err := u.userRepo.FindByID(claims.userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &emaildomain.AuthError{Reason: "user not found"}
	}

	// Rotate: the presented token is single use
	if err := u.userRepo.DeleteRefreshToken(refreshToken); err != nil {
		return nil, err
	}
	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(refreshToken)
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	claims, err := u.parse(tokenString)
	if err != nil {
		return nil, &emaildomain.AuthError{Reason: "invalid token", Err: err}
	}
	if claims.kind != tokenKindAccess {
		return nil, &emaildomain.AuthError{Reason: "not an access token"}
	}

	user, err := u.userRepo.FindByID(claims.userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &emaildomain.AuthError{Reason: "user not found"}
	}
	return user, nil
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	now := u.now()

	accessToken, err := u.sign(jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"typ":     tokenKindAccess,
		"exp":     now.Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     now.Unix(),
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.sign(jwt.MapClaims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"typ":      tokenKindRefresh,
		"exp":      now.Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      now.Unix(),
	})
	if err != nil {
		return nil, err
	}

	// Store refresh token
	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.SaveRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

type sessionClaims struct {
	userID string
	kind   string
}

func (u *authUsecase) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) parse(tokenString string) (sessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || !token.Valid {
		return sessionClaims{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return sessionClaims{}, errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return sessionClaims{}, errors.New("invalid token claims")
	}
	kind, _ := claims["typ"].(string)
	return sessionClaims{userID: userID, kind: kind}, nil
}
