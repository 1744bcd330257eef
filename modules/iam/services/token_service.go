package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jacksonlee411/peopleops/modules/iam/domain/types"
)

type tokenClaims struct {
	EmployeeID  string `json:"employeeId,omitempty"`
	Role        string `json:"role,omitempty"`
	Email       string `json:"email,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	issuer string
	NowUTC func() time.Time
}

func NewTokenService(secret string, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("iam: token secret too short")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

func (s *TokenService) now() time.Time {
	if s.NowUTC != nil {
		return s.NowUTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) Issue(id types.Identity, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.Subject) == "" {
		return "", errors.New("iam: subject is required")
	}
	now := s.now()
	claims := tokenClaims{
		EmployeeID:  id.EmployeeID,
		Role:        strings.ToLower(strings.TrimSpace(id.Role)),
		Email:       id.Email,
		CandidateID: id.CandidateID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Verify(raw string) (types.Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return types.Identity{}, fmt.Errorf("iam: verify token: %w", err)
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return types.Identity{}, errors.New("iam: verify token: unexpected issuer")
	}
	return types.Identity{
		Subject:     claims.Subject,
		EmployeeID:  claims.EmployeeID,
		Role:        claims.Role,
		Email:       claims.Email,
		CandidateID: claims.CandidateID,
	}, nil
}
