package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in Claims.TokenType.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const minSecretLength = 32

var (
	// ErrSecretTooShort is returned for HMAC secrets under 32 bytes.
	ErrSecretTooShort = errors.New("jwt secret must be at least 32 bytes")
	// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims represents JWT token claims. RegisteredClaims.ID is the token's jti.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService defines JWT token operations.
type JWTService interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (token string, jti string, err error)
	ValidateToken(tokenString, tokenType string) (*Claims, error)
	AccessExpiry() time.Duration
	RefreshExpiry() time.Duration
}

type jwtService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTService creates a new JWTService instance.
func NewJWTService(secret string, accessExpiry, refreshExpiry time.Duration) (JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	return &jwtService{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}, nil
}

func (s *jwtService) AccessExpiry() time.Duration  { return s.accessExpiry }
func (s *jwtService) RefreshExpiry() time.Duration { return s.refreshExpiry }

func (s *jwtService) GenerateAccessToken(userID, email string) (string, error) {
	token, _, err := s.generateToken(userID, email, TokenTypeAccess, s.accessExpiry)
	return token, err
}

func (s *jwtService) GenerateRefreshToken(userID, email string) (string, string, error) {
	return s.generateToken(userID, email, TokenTypeRefresh, s.refreshExpiry)
}

func (s *jwtService) generateToken(userID, email, tokenType string, expiry time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (s *jwtService) ValidateToken(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
