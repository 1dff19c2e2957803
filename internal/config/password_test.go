package config

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPasswordConfig() *PasswordConfig {
	return &PasswordConfig{BcryptCost: 10, ResetTTL: time.Hour}
}

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		ttl        string
		pepper     string
		wantCost   int
		wantTTL    time.Duration
		wantErr    bool
	}{
		{name: "defaults", wantCost: 12, wantTTL: time.Hour},
		{name: "valid cost", bcryptCost: "10", wantCost: 10, wantTTL: time.Hour},
		{name: "cost too low", bcryptCost: "9", wantErr: true},
		{name: "cost too high", bcryptCost: "15", wantErr: true},
		{name: "invalid cost", bcryptCost: "invalid", wantErr: true},
		{name: "with pepper", bcryptCost: "12", pepper: "test-pepper", wantCost: 12, wantTTL: time.Hour},
		{name: "custom ttl", ttl: "15", wantCost: 12, wantTTL: 15 * time.Minute},
		{name: "ttl too short", ttl: "1", wantErr: true},
		{name: "ttl too long", ttl: "1441", wantErr: true},
		{name: "ttl not a number", ttl: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)
			t.Setenv("PASSWORD_RESET_TTL_MINUTES", tt.ttl)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.wantTTL, cfg.ResetTTL)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := cfg.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, cfg.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, cfg.VerifyPassword("Correct horse battery staple", hash))
	assert.False(t, cfg.VerifyPassword("", hash))
	assert.False(t, cfg.VerifyPassword("correct horse battery staple", "not-a-hash"))
}

func TestPasswordConfig_SaltUniqueness(t *testing.T) {
	cfg := testPasswordConfig()

	h1, err := cfg.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := cfg.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "each hash gets its own salt")
	assert.True(t, cfg.VerifyPassword("same-password", h1))
	assert.True(t, cfg.VerifyPassword("same-password", h2))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-v1", ResetTTL: time.Hour}
	plain := testPasswordConfig()

	hash, err := peppered.HashPassword("password123")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("password123", hash))
	assert.False(t, plain.VerifyPassword("password123", hash), "hash needs the pepper")

	rotated := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-v2", ResetTTL: time.Hour}
	assert.False(t, rotated.VerifyPassword("password123", hash), "rotating the pepper invalidates hashes")
}

func TestPasswordConfig_PasswordExceeding72Bytes(t *testing.T) {
	cfg := testPasswordConfig()

	_, err := cfg.HashPassword(strings.Repeat("a", 73))
	assert.Error(t, err, "bcrypt rejects inputs over 72 bytes")
}

func TestPasswordConfig_ConcurrentAccess(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := cfg.HashPassword("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, cfg.VerifyPassword("shared", hash))
		}()
	}
	wg.Wait()
}

func TestNewResetToken(t *testing.T) {
	token, hash, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash, "only the hash is stored")
	assert.Equal(t, hash, HashResetToken(token))

	other, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
