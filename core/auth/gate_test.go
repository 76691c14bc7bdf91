package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core"
)

func testConfig(auth core.AuthConfig) *core.Config {
	return &core.Config{AppName: "Cuaderno", SecretKey: "secret", Auth: auth}
}

func TestNewGate(t *testing.T) {
	hash, err := HashPassword("tiza")
	require.NoError(t, err)

	tests := []struct {
		name    string
		auth    core.AuthConfig
		enabled bool
		wantErr bool
	}{
		{name: "open", auth: core.AuthConfig{}},
		{name: "plain password", auth: core.AuthConfig{Password: "tiza"}, enabled: true},
		{name: "hash", auth: core.AuthConfig{PasswordHash: hash}, enabled: true},
		{name: "hash wins", auth: core.AuthConfig{Password: "other", PasswordHash: hash}, enabled: true},
		{name: "invalid hash", auth: core.AuthConfig{PasswordHash: "nope"}, wantErr: true},
		{name: "too long", auth: core.AuthConfig{Password: strings.Repeat("x", 73)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGate(testConfig(tt.auth))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, g.Enabled())
			if tt.enabled {
				assert.NoError(t, g.CheckPassword("tiza"))
				assert.Equal(t, ErrInvalidPassword, g.CheckPassword("borrador"))
			} else {
				assert.NoError(t, g.CheckPassword(""))
			}
		})
	}
}

func TestGate_LoginAndVerify(t *testing.T) {
	g, err := NewGate(testConfig(core.AuthConfig{Password: "tiza", JWTExpirationDelta: time.Hour}))
	require.NoError(t, err)

	_, _, err = g.Login("borrador")
	assert.Equal(t, ErrInvalidPassword, err)

	token, expiresAt, err := g.Login("tiza")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := g.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher", claims.Subject)
	assert.Equal(t, "Cuaderno", claims.Issuer)

	// tampered, foreign key, expired
	_, err = g.Verify(token + "x")
	assert.Equal(t, ErrInvalidToken, err)

	other, err := NewGate(&core.Config{SecretKey: "other", Auth: core.AuthConfig{Password: "tiza"}})
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.Equal(t, ErrInvalidToken, err)

	NowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	defer func() { NowFunc = time.Now }()
	expired, _, err := g.Login("tiza")
	require.NoError(t, err)
	_, err = g.Verify(expired)
	assert.Equal(t, ErrInvalidToken, err)

	// "none" algorithm
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = g.Verify(unsigned)
	assert.Equal(t, ErrInvalidToken, err)
}
