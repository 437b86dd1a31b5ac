package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usermodels "atmwater-backend/internal/features/user/models"
)

func TestGenerateAndParseRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	user := &usermodels.User{ID: "u-1", Role: usermodels.RoleFinance}

	tok, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, usermodels.RoleFinance, claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewManager("secret-a", time.Hour).Generate(&usermodels.User{ID: "u-1", Role: usermodels.RoleCustomer})
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	tok, err := m.Generate(&usermodels.User{ID: "u-1", Role: usermodels.RoleCustomer})
	require.NoError(t, err)

	_, err = m.Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewManager("test-secret", time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
