// Package service implements the identity provider and the application
// services that sit between handlers and repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/policy"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// User-facing auth messages.
const (
	msgMissingFields      = "Please fill in all required fields."
	msgMissingStage       = "Please select your training stage."
	msgMissingRegion      = "Please select your deanery/region."
	msgPasswordTooShort   = "Password must be at least 8 characters long."
	msgPasswordMismatch   = "Passwords do not match."
	msgAlreadyRegistered  = "An account with this email already exists. Try signing in instead."
	msgMissingCredentials = "Please enter both email and password."
	msgInvalidCredentials = "Incorrect email or password. Please try again."
	msgEmailNotConfirmed  = "Please check your inbox and verify your email before signing in."
	msgMissingEmail       = "Please enter your email address."
	msgInvalidLink        = "This link is invalid or has expired."
	msgInvalidSession     = "Your session has expired. Please sign in again."
)

// Paths used in emailed links.
const (
	VerifiedLandingPath = "/login?verified=true"
	ResetPasswordPath   = "/reset-password"
	verifyEmailPath     = "/api/v1/auth/verify"
)

// SignUpRequest is a registration submission.
type SignUpRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	FullName        string  `json:"full_name"`
	TrainingStage   string  `json:"training_stage"`
	Region          string  `json:"region"`
	AcpgbiNumber    *string `json:"acpgbi_number"`
}

// SignUpResult reports the outcome of a registration.
type SignUpResult struct {
	UserID               string                `json:"user_id"`
	Classification       policy.Classification `json:"classification"`
	VerificationRequired bool                  `json:"verification_required"`
}

// TokenPair is an access and refresh token issued together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignInResult carries the tokens and where the principal should land.
type SignInResult struct {
	TokenPair
	Identity models.Identity `json:"identity"`
	Profile  *models.Profile `json:"profile"`
	Landing  string          `json:"landing"`
}

// AuthOptions configures the identity provider.
type AuthOptions struct {
	SiteURL             string
	RequireVerification bool
	VerificationExpiry  time.Duration
	ResetExpiry         time.Duration
}

// AuthService is the identity provider: registration, credential checks,
// token lifecycle, verification and password reset.
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	SignIn(ctx context.Context, email, password, redirect string) (*SignInResult, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	CurrentIdentity(ctx context.Context, accessToken string) (*models.Identity, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email, redirectPath string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	Subscribe(fn IdentityListener) (unsubscribe func())
}

type authService struct {
	userRepo   repository.UserRepository
	profiles   repository.CollectionRepository[models.Profile]
	jwtService JWTService
	redis      *redis.Client
	approval   policy.ApprovalPolicy
	mailer     Mailer
	notifier   *Notifier
	opts       AuthOptions
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	userRepo repository.UserRepository,
	profiles repository.CollectionRepository[models.Profile],
	jwtService JWTService,
	redisClient *redis.Client,
	approval policy.ApprovalPolicy,
	mailer Mailer,
	opts AuthOptions,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		profiles:   profiles,
		jwtService: jwtService,
		redis:      redisClient,
		approval:   approval,
		mailer:     mailer,
		notifier:   NewNotifier(),
		opts:       opts,
	}
}

func refreshKey(jti string) string        { return "refresh_token:" + jti }
func userRefreshKey(userID string) string { return "refresh_tokens:user:" + userID }
func verifyKey(token string) string       { return "email_verify:" + token }
func resetKey(token string) string        { return "password_reset:" + token }

func invalidInput(msg string) error { return apperrors.NewAuthError(apperrors.AuthInvalidInput, msg) }

// validatePassword checks length and confirmation.
func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return invalidInput(msgPasswordTooShort)
	}
	if password != confirm {
		return invalidInput(msgPasswordMismatch)
	}
	return nil
}

func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	email := models.NormalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || req.Password == "" || fullName == "" || !strings.Contains(email, "@") {
		return nil, invalidInput(msgMissingFields)
	}
	if !models.ValidTrainingStage(req.TrainingStage) {
		return nil, invalidInput(msgMissingStage)
	}
	if !models.ValidRegion(req.Region) {
		return nil, invalidInput(msgMissingRegion)
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.NewAuthError(apperrors.AuthAlreadyRegistered, msgAlreadyRegistered)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	class := s.approval.Classify(email)
	user := &models.User{Email: email, PasswordHash: string(hash)}
	if !s.opts.RequireVerification {
		now := time.Now().UTC()
		user.EmailConfirmedAt = &now
	}
	stage, region := req.TrainingStage, req.Region
	profile := &models.Profile{
		FullName:       fullName,
		Email:          email,
		Role:           class.Role,
		ApprovalStatus: class.Status,
		TrainingStage:  &stage,
		Region:         &region,
		AcpgbiNumber:   req.AcpgbiNumber,
	}
	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewAuthError(apperrors.AuthAlreadyRegistered, msgAlreadyRegistered)
		}
		return nil, err
	}

	result := &SignUpResult{UserID: user.ID, Classification: class, VerificationRequired: s.opts.RequireVerification}
	if s.opts.RequireVerification {
		if err := s.sendVerification(ctx, user); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *authService) sendVerification(ctx context.Context, user *models.User) error {
	token := uuid.NewString()
	if err := s.redis.Set(ctx, verifyKey(token), user.ID, s.opts.VerificationExpiry).Err(); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	link := s.opts.SiteURL + verifyEmailPath + "?" + url.Values{"token": {token}}.Encode()
	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Confirm your Dukes' Club account",
		Body:    "Confirm your email address to finish registering.",
		Link:    link,
	})
}

func (s *authService) SignIn(ctx context.Context, email, password, redirect string) (*SignInResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidInput(msgMissingCredentials)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidCredentials, msgInvalidCredentials)
	}
	if s.opts.RequireVerification && !user.Confirmed() {
		return nil, apperrors.NewAuthError(apperrors.AuthEmailNotConfirmed, msgEmailNotConfirmed)
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	// A failed profile lookup lands on the most restrictive page.
	profile, err := s.profiles.Get(ctx, user.ID)
	if err != nil {
		profile = nil
	}

	s.notifier.Publish(ctx, IdentityEvent{Kind: EventSignedIn, UserID: user.ID, Email: user.Email, At: time.Now().UTC()})

	return &SignInResult{
		TokenPair: *pair,
		Identity:  models.Identity{ID: user.ID, Email: user.Email},
		Profile:   profile,
		Landing:   policy.Landing(profile, redirect),
	}, nil
}

// issueTokens creates a token pair and records the refresh token's jti.
func (s *authService) issueTokens(ctx context.Context, userID, email string) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, jti, err := s.jwtService.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiry := s.jwtService.RefreshExpiry()
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshKey(jti), userID, expiry)
		pipe.SAdd(ctx, userRefreshKey(userID), jti)
		pipe.Expire(ctx, userRefreshKey(userID), expiry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessExpiry().Seconds()),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, refreshKey(claims.ID))
		pipe.SRem(ctx, userRefreshKey(claims.UserID), claims.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.notifier.Publish(ctx, IdentityEvent{Kind: EventSignedOut, UserID: claims.UserID, Email: claims.Email, At: time.Now().UTC()})
	return nil
}

// Refresh rotates a refresh token. Each refresh token can be used once.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}

	storedUserID, err := s.redis.GetDel(ctx, refreshKey(claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if storedUserID != claims.UserID {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}
	s.redis.SRem(ctx, userRefreshKey(claims.UserID), claims.ID)

	pair, err := s.issueTokens(ctx, claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, IdentityEvent{Kind: EventTokenRefreshed, UserID: claims.UserID, Email: claims.Email, At: time.Now().UTC()})
	return pair, nil
}

func (s *authService) CurrentIdentity(_ context.Context, accessToken string) (*models.Identity, error) {
	if accessToken == "" {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}
	claims, err := s.jwtService.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidSession)
	}
	return &models.Identity{ID: claims.UserID, Email: claims.Email}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consumeToken(ctx, verifyKey(token))
	if err != nil {
		return err
	}
	return s.userRepo.ConfirmEmail(ctx, userID, time.Now().UTC())
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed
// silently so the endpoint cannot be used to discover accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email, redirectPath string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return invalidInput(msgMissingEmail)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.redis.Set(ctx, resetKey(token), user.ID, s.opts.ResetExpiry).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	target := policy.LocalPath(redirectPath)
	if target == "" {
		target = ResetPasswordPath
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return s.mailer.Send(ctx, Message{
		To:      user.Email,
		Subject: "Reset your Dukes' Club password",
		Body:    "Follow the link to choose a new password.",
		Link:    s.opts.SiteURL + target + sep + url.Values{"token": {token}}.Encode(),
	})
}

// ResetPassword sets a new password and revokes every refresh token the
// user holds.
func (s *authService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := validatePassword(password, confirm); err != nil {
		return err
	}
	userID, err := s.consumeToken(ctx, resetKey(token))
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	jtis, err := s.redis.SMembers(ctx, userRefreshKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, refreshKey(jti))
	}
	keys = append(keys, userRefreshKey(userID))
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// consumeToken returns the user ID stored under key and deletes it.
func (s *authService) consumeToken(ctx context.Context, key string) (string, error) {
	if strings.HasSuffix(key, ":") {
		return "", apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidLink)
	}
	userID, err := s.redis.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewAuthError(apperrors.AuthInvalidToken, msgInvalidLink)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return userID, nil
}

func (s *authService) Subscribe(fn IdentityListener) func() {
	return s.notifier.Subscribe(fn)
}
