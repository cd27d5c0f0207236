package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuth0JWTValidator_Implements_TokenValidator(t *testing.T) {
	var _ TokenValidator = (*Auth0JWTValidator)(nil)
}

func TestErrInvalidToken(t *testing.T) {
	assert.Equal(t, "invalid token", ErrInvalidToken.Error())
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	err := claims.Validate(context.Background())
	assert.NoError(t, err, "CustomClaims.Validate should return nil")
}

func TestNewAuth0JWTValidator_EmptyDomain(t *testing.T) {
	// Empty domain creates https:/// which is technically valid URL
	validator, err := NewAuth0JWTValidator("", "audience")
	assert.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.ruptura.app")
	assert.NoError(t, err)
	assert.NotNil(t, validator)
	assert.NotNil(t, validator.validator)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.ruptura.app")
	assert.NoError(t, err)

	userID, err := validator.ValidateToken(context.Background(), "invalid-token")
	assert.Error(t, err)
	assert.Empty(t, userID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
