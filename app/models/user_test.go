package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateUserDefaults(t *testing.T) {
	u, err := CreateUser("Rakoto Jean", "rakoto@example.com", "secret123")
	assert.NoError(t, err)
	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_INACTIVE, u.Status)
	assert.True(t, u.IsTrial)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "rakoto@example.com", "secret123")
	assert.Error(t, err, "name too short")

	_, err = CreateUser("Rakoto Jean", "not-an-email", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("Rakoto Jean", "rakoto@example.com", "123")
	assert.Error(t, err, "password too short")
}

func TestGenerateActivationToken(t *testing.T) {
	u := &User{}
	assert.NoError(t, u.GenerateActivationToken())
	assert.Len(t, u.ActivationToken, 32)
	assert.NotNil(t, u.ActivationSentAt)

	prev := u.ActivationToken
	assert.NoError(t, u.GenerateActivationToken())
	assert.NotEqual(t, prev, u.ActivationToken)
}

func TestUserIsActive(t *testing.T) {
	assert.True(t, (&User{Status: STATUS_ACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_INACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_DISABLED}).IsActive())
}

func TestHasCredits(t *testing.T) {
	u := &User{CreditBalance: 100}
	assert.True(t, u.HasCredits(100))
	assert.True(t, u.HasCredits(0))
	assert.False(t, u.HasCredits(101))
}
