package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/vrchat"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

func searchServer(t *testing.T) *vrchattest.Server {
	t.Helper()
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	srv.Users = []vrchat.LimitedUser{
		{ID: "usr_a", DisplayName: "Alice A", Status: "active", Location: "wrld_1"},
		{ID: "usr_b", DisplayName: "Alice B", Status: "busy", Location: "private", Bio: "hello there",
			Tags: []string{"system_trust_known"}},
		{ID: "usr_c", DisplayName: "Alicia", Status: "offline", Location: "offline"},
	}
	srv.Worlds = []vrchat.LimitedWorld{
		{ID: "wrld_1", Name: "Castle", AuthorName: "ann", Capacity: 32, Occupants: 5, Visits: 900, Favorites: 12},
		{ID: "wrld_2", Name: "Beach", AuthorName: "ben", Capacity: 16},
	}
	srv.Groups = []vrchat.LimitedGroup{
		{ID: "grp_1", Name: "Night Owls", ShortCode: "OWLS", Discriminator: "0001", MemberCount: 7},
	}
	return srv
}

func TestSearchUsers_ListAndSelect(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	replies := h.send(t, "u1", "vrcsu ali")
	require.Len(t, replies, 1)
	assert.Equal(t, "Found 3 users:\n"+
		"1. Alice A (usr_a)\n"+
		"2. Alice B (usr_b)\n"+
		"3. Alicia (usr_c)\n"+
		"Send the number to view, or 0 to cancel:", replies[0])

	assert.Equal(t, []string{"Send a number from the list, or 0 to cancel:"}, h.send(t, "u1", "second"))
	assert.Equal(t, []string{"That number is not in the list, send another:"}, h.send(t, "u1", "4"))

	replies = h.send(t, "u1", "２")
	require.Len(t, replies, 1)
	assert.Equal(t, "Alice B\nStatus: Busy \nTrust: User\nLast login: never\nBio: hello there", replies[0])
	assert.Equal(t, 1, h.srv.Requests("/users/usr_b"))

	assert.Empty(t, h.send(t, "u1", "1"))
}

func TestSearchUsers_Cancel(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	h.send(t, "u1", "vrcus alice")
	assert.Equal(t, []string{"Selection cancelled."}, h.send(t, "u1", "0"))
	assert.Empty(t, h.send(t, "u1", "1"))
}

func TestSearchUsers_NoResults(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"No user found."}, h.send(t, "u1", "vrcsu zed"))
}

func TestSearchWorlds_SingleResultShowsDetail(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"Castle by ann\nOccupants: 5 / 32\nVisits: 900, favorites: 12\n"}, h.send(t, "u1", "vrcsw castle"))
	assert.Equal(t, 1, h.srv.Requests("/worlds/wrld_1"))
}

func TestSearchWorlds_BorrowsAnotherSession(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "owner", "alice", "secret")

	replies := h.send(t, "guest", "vrcws beach")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Beach by ben")
	assert.Equal(t, "(Looked up with another user's login. Use vrcl to log in with your own.)", replies[1])
}

func TestSearchGroups_PromptsForKeyword(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"Send the name or short code of the group to search for:"}, h.send(t, "u1", "vrc搜索群组"))
	assert.Equal(t, []string{"The search keyword cannot be empty, send it again:"}, h.send(t, "u1", " "))
	assert.Equal(t, []string{"Night Owls (OWLS.0001)\nMembers: 7\n"}, h.send(t, "u1", "owls"))
}

func TestSearch_NoSessionAnywhere(t *testing.T) {
	h := newHarness(t, searchServer(t))

	assert.Equal(t, []string{"You are not logged in. Use vrcl to log in."}, h.send(t, "u1", "vrcsu alice"))
}

func TestSearch_SelectionAfterLoginRevoked(t *testing.T) {
	h := newHarness(t, searchServer(t))
	h.login(t, "u1", "alice", "secret")

	h.send(t, "u1", "vrcsu ali")
	h.srv.Revoke("alice")
	assert.Equal(t, []string{"Your login has expired. Use vrcl to log in again."}, h.send(t, "u1", "1"))
}

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		in    string
		index int
		key   string
	}{
		{"1", 0, ""},
		{"3", 2, ""},
		{" ３ ", 2, ""},
		{"0", 0, "discard_select"},
		{"4", 0, "invalid_ordinal_range"},
		{"99999999999999999999", 0, "invalid_ordinal_range"},
		{"-1", 0, "invalid_ordinal_format"},
		{"one", 0, "invalid_ordinal_format"},
		{"", 0, "invalid_ordinal_format"},
	}
	for _, tt := range tests {
		i, key := parseOrdinal(tt.in, 3)
		assert.Equal(t, tt.index, i, tt.in)
		assert.Equal(t, tt.key, key, tt.in)
	}
}
