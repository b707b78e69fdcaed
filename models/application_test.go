package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusProjectionKnownStatuses(t *testing.T) {
	cases := []struct {
		status string
		label  string
		icon   string
	}{
		{ApplicationPending, "Pending", "clock"},
		{ApplicationApproved, "Approved", "check-circle"},
		{ApplicationDenied, "Denied", "alert-circle"},
		{ApplicationInterview, "Interview", "star"},
	}
	for _, tc := range cases {
		info := StatusProjection(tc.status)
		assert.Equal(t, tc.status, info.Status)
		assert.Equal(t, tc.label, info.Label)
		assert.Equal(t, tc.icon, info.Icon)
		assert.NotEmpty(t, info.Message)
	}
}

func TestStatusProjectionUnknownFallsBackToPending(t *testing.T) {
	for _, s := range []string{"", "rejected", "PENDING", "archived"} {
		info := StatusProjection(s)
		assert.Equal(t, ApplicationPending, info.Status, "status %q", s)
	}
}

func TestValidApplicationStatus(t *testing.T) {
	assert.True(t, ValidApplicationStatus(ApplicationApproved))
	assert.False(t, ValidApplicationStatus("maybe"))
	assert.False(t, ValidApplicationStatus(""))
}

func TestUserDisplayNamePrefersDiscordHandle(t *testing.T) {
	u := User{Username: "casey", DiscordName: "casey#1234"}
	assert.Equal(t, "casey#1234", u.DisplayName())

	u.DiscordName = ""
	assert.Equal(t, "casey", u.DisplayName())
}
