package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_RoundTrip(t *testing.T) {
	s := NewAuthService(testSecret, time.Hour)
	token, exp, err := s.GenerateToken("root", RoleSuperAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Subject)
	assert.Equal(t, RoleSuperAdmin, claims.Role)
}

func TestAuthService_RejectsExpiredAndForeignTokens(t *testing.T) {
	s := NewAuthService(testSecret, time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := s.GenerateToken("root", RoleAdmin)
	require.NoError(t, err)
	s.now = time.Now

	_, err = s.ValidateToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService("another-secret-another-secret-xx", time.Hour)
	foreign, _, err := other.GenerateToken("root", RoleAdmin)
	require.NoError(t, err)
	_, err = s.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "root"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}
