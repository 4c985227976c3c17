package vrchat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmcleod/vrchatbot/vrchat"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		status, location, want string
	}{
		{"active", "wrld_1", vrchat.StatusOnline},
		{"active", "offline", vrchat.StatusWebOnline},
		{"busy", "offline", vrchat.StatusOffline},
		{"join me", "private", vrchat.StatusJoinMe},
		{"ask me", "", vrchat.StatusAskMe},
		{"busy", "wrld_1", vrchat.StatusBusy},
		{"Busy ", "wrld_1", vrchat.StatusBusy},
		{"weird", "wrld_1", vrchat.StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vrchat.NormalizeStatus(tt.status, tt.location), "%q@%q", tt.status, tt.location)
	}
}

func TestTrustLevel(t *testing.T) {
	assert.Equal(t, vrchat.TrustDeveloper, vrchat.TrustLevel(nil, "internal"))
	assert.Equal(t, vrchat.TrustModerator, vrchat.TrustLevel(nil, "moderator"))
	assert.Equal(t, vrchat.TrustTrusted, vrchat.TrustLevel([]string{"system_trust_known", "system_trust_trusted", "system_trust_veteran"}, "none"))
	assert.Equal(t, vrchat.TrustKnown, vrchat.TrustLevel([]string{"system_trust_known", "system_trust_trusted"}, ""))
	assert.Equal(t, vrchat.TrustUser, vrchat.TrustLevel([]string{"system_trust_known"}, ""))
	assert.Equal(t, vrchat.TrustVisitor, vrchat.TrustLevel([]string{"language_eng"}, ""))
}
