package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/vrchatbot/vrchat"
	"github.com/jmcleod/vrchatbot/vrchat/vrchattest"
)

func TestFriends_GroupedByStatus(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{
		Username: "alice", Password: "secret",
		Friends: []vrchat.LimitedUser{
			{ID: "usr_d", DisplayName: "Dan", Status: "offline", Location: "offline"},
			{ID: "usr_a", DisplayName: "Ann", Status: "active", Location: "wrld_1", StatusDescription: "building"},
			{ID: "usr_c", DisplayName: "Cat", Status: "active", Location: "offline"},
			{ID: "usr_b", DisplayName: "Ben", Status: "busy", Location: "private"},
		},
	})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{
		"Online (1):\n- Ann: building\n\n" +
			"Busy (1):\n- Ben\n\n" +
			"On website (1):\n- Cat\n\n" +
			"Offline (1):\n- Dan",
	}, h.send(t, "u1", "vrcfl"))
}

func TestFriends_Empty(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"Your friend list is empty."}, h.send(t, "u1", "vrcrq"))
}

func TestFriends_RequiresOwnLogin(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	h := newHarness(t, srv)
	h.login(t, "owner", "alice", "secret")
	srv.ResetRequests()

	assert.Equal(t, []string{"You are not logged in. Use vrcl to log in."}, h.send(t, "guest", "vrcfl"))
	assert.Zero(t, srv.Requests("/auth/user/friends"))
}

func TestFriends_LoginExpired(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")
	srv.Revoke("alice")

	assert.Equal(t, []string{"Your login has expired. Use vrcl to log in again."}, h.send(t, "u1", "vrcfl"))
}

func TestNotifications(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{
		Username: "alice", Password: "secret",
		Notifications: []vrchat.Notification{
			{ID: "not_1", Type: "friendRequest", SenderUsername: "ben"},
			{ID: "not_2", Type: "invite", SenderUsername: "cat", Message: "come over"},
		},
	})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"2 notifications:\n[friendRequest] ben\n[invite] cat: come over"}, h.send(t, "u1", "vrcsn"))
}

func TestNotifications_Empty(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret"})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"You have no notifications."}, h.send(t, "u1", "vrc显示通知"))
}

func TestBalance(t *testing.T) {
	srv := vrchattest.New(t, vrchattest.Account{Username: "alice", Password: "secret", Balance: 42})
	h := newHarness(t, srv)
	h.login(t, "u1", "alice", "secret")

	assert.Equal(t, []string{"Balance: 42 credits"}, h.send(t, "u1", "vrcbalance"))
}

func TestLocale_MenuAndPersistence(t *testing.T) {
	srv := vrchattest.New(t)
	h := newHarness(t, srv)

	assert.Equal(t, []string{"Available languages:\n1. English (en)\n2. 简体中文 (zh)\nSend the number of the language, or 0 to cancel:"}, h.send(t, "u1", "vrccl"))
	assert.Equal(t, []string{"That number is not in the list, send another:"}, h.send(t, "u1", "3"))
	assert.Equal(t, []string{"语言已切换为 简体中文（zh）"}, h.send(t, "u1", "2"))

	data, err := h.repo.Get(settingsNamespace, localeType, "u1")
	require.NoError(t, err)
	assert.Equal(t, "zh", string(data))

	assert.Equal(t, []string{"你还没有登录，请使用 vrc登录 登录"}, h.send(t, "u1", "vrcfl"))
	// Other sessions keep the default.
	assert.Equal(t, []string{"You are not logged in. Use vrcl to log in."}, h.send(t, "u2", "vrcfl"))

	assert.Equal(t, []string{"Language changed to English (en)."}, h.send(t, "u1", "vrc切换语言 en"))
}

func TestLocale_DefaultOption(t *testing.T) {
	srv := vrchattest.New(t)
	h := newHarness(t, srv, WithDefaultLocale("zh"))

	replies := h.send(t, "u1", "vrchelp")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "vrc登录")
}
