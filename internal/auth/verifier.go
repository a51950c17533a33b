package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"insightboard/internal/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Service struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
	Now        func() time.Time
}

func NewService(cfg config.Config) *Service {
	return &Service{
		SigningKey: []byte(cfg.Auth.TokenSigningKey),
		Issuer:     strings.TrimSpace(cfg.Auth.Issuer),
		TTL:        cfg.Auth.TokenTTL,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueToken signs an HS256 token for the user. The returned time is the
// token expiry.
func (s *Service) IssueToken(userID, email string) (string, time.Time, error) {
	if len(s.SigningKey) == 0 {
		return "", time.Time{}, errors.New("token signing key not configured")
	}
	if userID == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := s.Now()
	expires := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   expires.Unix(),
	}
	if s.Issuer != "" {
		claims["iss"] = s.Issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (s *Service) AuthenticateRequest(r *http.Request) (Principal, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return Principal{}, ErrUnauthorized
	}
	return s.VerifyJWT(authHeader)
}

func (s *Service) VerifyJWT(authHeader string) (Principal, error) {
	headerParts := strings.Fields(authHeader)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") {
		return Principal{}, ErrUnauthorized
	}
	rawToken := strings.TrimSpace(headerParts[1])

	if len(s.SigningKey) == 0 {
		return Principal{}, fmt.Errorf("%w: token signing key not configured", ErrUnauthorized)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.Now),
		jwt.WithExpirationRequired(),
	}
	if s.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.Issuer))
	}

	parsed, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.SigningKey, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	userID := claimString(claims["sub"])
	if userID == "" {
		return Principal{}, ErrUnauthorized
	}
	return Principal{
		UserID:  userID,
		Email:   claimString(claims["email"]),
		TokenID: claimString(claims["jti"]),
	}, nil
}

func claimString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	default:
		return ""
	}
}
