package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionPublicID(t *testing.T) {
	id := NewSessionPublicID()
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewSessionPublicID())
}

func TestIsValidServiceType(t *testing.T) {
	assert.True(t, IsValidServiceType(SERVICE_MARKETPLACE))
	assert.True(t, IsValidServiceType(SERVICE_FACEBOOK_POSTS))
	assert.True(t, IsValidServiceType(SERVICE_FACEBOOK_COMMENTS))
	// billable but never a scrape target
	assert.False(t, IsValidServiceType(SERVICE_AI_ANALYSIS))
	assert.False(t, IsValidServiceType("unknown"))
}

func TestSessionIsTerminal(t *testing.T) {
	s := &ScrapeSession{Status: SESSION_STATUS_PENDING}
	assert.False(t, s.IsTerminal())
	s.Status = SESSION_STATUS_RUNNING
	assert.False(t, s.IsTerminal())
	s.Status = SESSION_STATUS_FINISHED
	assert.True(t, s.IsTerminal())
	s.Status = SESSION_STATUS_FAILED
	assert.True(t, s.IsTerminal())
}

func TestSessionCanDownload(t *testing.T) {
	s := &ScrapeSession{Status: SESSION_STATUS_FINISHED, IsPaid: false}
	assert.False(t, s.CanDownload())
	s.IsPaid = true
	assert.True(t, s.CanDownload())
	s.Status = SESSION_STATUS_RUNNING
	assert.False(t, s.CanDownload())
}
