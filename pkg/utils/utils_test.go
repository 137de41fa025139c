package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_AccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	branch := uuid.New()
	sub := TokenSubject{
		UserID:      uuid.New(),
		Username:    "cashier1",
		Email:       "c1@example.com",
		BranchID:    &branch,
		Roles:       []string{"cashier"},
		Permissions: []string{"pos.sell"},
	}

	token, err := m.GenerateAccessToken(sub)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, claims.UserID)
	assert.Equal(t, "cashier1", claims.Username)
	require.NotNil(t, claims.BranchID)
	assert.Equal(t, branch, *claims.BranchID)
	assert.Equal(t, []string{"pos.sell"}, claims.Permissions)
	assert.Equal(t, "tillpoint-api", claims.Issuer)
}

func TestJWT_RejectsOtherSecret(t *testing.T) {
	a := NewJWTManager("secret-a", time.Hour, time.Hour)
	b := NewJWTManager("secret-b", time.Hour, time.Hour)

	token, err := a.GenerateAccessToken(TokenSubject{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = b.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWT_RefreshToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, time.Hour)
	id := uuid.New()

	token, err := m.GenerateRefreshToken(id)
	require.NoError(t, err)

	got, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestJWT_Expired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(TokenSubject{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestGenerateInvoiceNo(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	no := GenerateInvoiceNo("inv", "mnl01", at)
	assert.True(t, strings.HasPrefix(no, "INV-MNL01-20240309-"), no)
	assert.Len(t, no, len("INV-MNL01-20240309-")+8)

	assert.NotEqual(t, no, GenerateInvoiceNo("inv", "mnl01", at))
	assert.True(t, strings.HasPrefix(GenerateInvoiceNo("", "", at), "20240309-"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("123456")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("123456", hash))
	assert.False(t, CheckPasswordHash("654321", hash))
	assert.False(t, CheckPasswordHash("123456", "not-a-hash"))
}
