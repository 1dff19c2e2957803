package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultJWTIssuer is the iss claim used when JWT_ISSUER is unset
	DefaultJWTIssuer = "career-coach"

	defaultSessionHours = 24
	maxSessionHours     = 24 * 30
	minJWTSecretLen     = 16
)

// JWTConfig controls how session tokens are signed and how long they live.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewJWTConfig reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default 24)
// and JWT_ISSUER.
func NewJWTConfig() (*JWTConfig, error) {
	hours, err := envInt("JWT_EXPIRATION_HOURS", defaultSessionHours)
	if err != nil {
		return nil, err
	}

	cfg := &JWTConfig{
		Secret:          os.Getenv("JWT_SECRET"),
		ExpirationHours: hours,
		Issuer:          os.Getenv("JWT_ISSUER"),
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultJWTIssuer
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TTL is the lifetime of a newly issued session token.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

func (c *JWTConfig) normalize() error {
	switch {
	case c.Secret == "":
		return errors.New("JWT_SECRET is required but not set")
	case len(c.Secret) < minJWTSecretLen:
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen)
	case c.ExpirationHours < 1 || c.ExpirationHours > maxSessionHours:
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be between 1 and %d, got: %d", maxSessionHours, c.ExpirationHours)
	}
	return nil
}
