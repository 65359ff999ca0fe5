package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret")
	userID := uuid.New()

	token, err := tm.Issue(userID, time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := tm.ParseAccess(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenManager_ParseAccess_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue(uuid.New(), time.Hour)
	assert.NoError(t, err)

	_, err = NewTokenManager("secret-b").ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, err := tm.Issue(uuid.New(), -time.Minute)
	assert.NoError(t, err)

	_, err = tm.ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_ParseAccess_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret")

	_, err := tm.ParseAccess("не токен")
	assert.Error(t, err)
}
