package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "atmwater-backend/internal/common/errors"
	usermodels "atmwater-backend/internal/features/user/models"
)

// Manager issues and verifies signed session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// Claims is the decoded session payload.
type Claims struct {
	UserID string
	Role   usermodels.Role
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Generate issues an HS256 JWT carrying the user id and role.
func (m *Manager) Generate(user *usermodels.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the signature and expiry and extracts the session claims.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewUnauthorizedError("Unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.NewUnauthorizedError("Not authorized, token failed")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewUnauthorizedError("Not authorized, token failed")
	}

	id, _ := mapClaims["id"].(string)
	roleStr, _ := mapClaims["role"].(string)
	if id == "" {
		return nil, apperrors.NewUnauthorizedError("Not authorized, token failed")
	}

	role, err := usermodels.ParseRole(roleStr)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Not authorized, token failed")
	}

	return &Claims{UserID: id, Role: role}, nil
}
