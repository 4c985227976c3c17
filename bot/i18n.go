package bot

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/jmcleod/vrchatbot/storage"
)

const (
	settingsNamespace = "settings"
	localeType        = "locale"
)

// Locale is a language the bot replies in.
type Locale struct {
	Code string
	Name string
	Tag  language.Tag
}

// Locales lists the supported languages in menu order.
var Locales = []Locale{
	{Code: "en", Name: "English", Tag: language.English},
	{Code: "zh", Name: "简体中文", Tag: language.SimplifiedChinese},
}

// LookupLocale finds a supported locale by code.
func LookupLocale(code string) (Locale, bool) {
	for _, l := range Locales {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Locale{}, false
}

var messages = map[string][2]string{
	// general
	"help": {
		"VRChat commands:\n" +
			"vrcl [username password]: log in\n" +
			"vrclogout: log out and forget your login\n" +
			"vrcsu <name>: search users\n" +
			"vrcsw <name>: search worlds\n" +
			"vrcsg <name>: search groups\n" +
			"vrcfl: your friend list\n" +
			"vrcsn: your notifications\n" +
			"vrcbalance: your credit balance\n" +
			"vrccl: change language\n" +
			"vrchelp: this help",
		"VRChat 指令：\n" +
			"vrc登录 [用户名 密码]：登录\n" +
			"vrc登出：登出并删除登录信息\n" +
			"vrc搜索用户 <名称>：搜索用户\n" +
			"vrc搜索世界 <名称>：搜索世界\n" +
			"vrc搜索群组 <名称>：搜索群组\n" +
			"vrc好友列表：查看好友列表\n" +
			"vrc显示通知：查看通知\n" +
			"vrc余额：查看余额\n" +
			"vrc切换语言：切换语言\n" +
			"vrc帮助：显示本帮助",
	},
	"unknown_error":          {"Something went wrong. The error has been logged.", "发生未知错误，已记录日志"},
	"server_error":           {"Server error [%d]: %s", "服务器错误 [%d]：%s"},
	"discard_select":         {"Selection cancelled.", "已取消选择"},
	"empty_search_keyword":   {"The search keyword cannot be empty, send it again:", "搜索关键词不能为空，请重新发送："},
	"empty_message":          {"The message cannot be empty, send it again:", "消息不能为空，请重新发送："},
	"invalid_ordinal_format": {"Send a number from the list, or 0 to cancel:", "请发送列表中的序号，发送 0 取消："},
	"invalid_ordinal_range":  {"That number is not in the list, send another:", "序号超出范围，请重新发送："},
	"select_prompt":          {"Send the number to view, or 0 to cancel:", "请发送要查看的序号，发送 0 取消："},
	"borrowed_session":       {"(Looked up with another user's login. Use vrcl to log in with your own.)", "（使用了其他用户的登录信息查询，可使用 vrc登录 登录自己的账号）"},
	"locked_out":             {"Too many failed attempts, try again in %d seconds.", "失败次数过多，请在 %d 秒后重试"},

	// login
	"not_logged_in":         {"You are not logged in. Use vrcl to log in.", "你还没有登录，请使用 vrc登录 登录"},
	"login_expired":         {"Your login has expired. Use vrcl to log in again.", "登录已失效，请使用 vrc登录 重新登录"},
	"overwrite_login_info":  {"Your saved login will be replaced.", "将覆盖已保存的登录信息"},
	"send_login_info":       {"Send your username and password separated by a space, or 0 to cancel:", "请发送用户名和密码，用空格分隔，发送 0 取消："},
	"send_email_code":       {"Send the code from the verification email within %d seconds:", "请在 %d 秒内发送邮箱收到的验证码："},
	"send_totp_code":        {"Send the code from your authenticator app within %d seconds:", "请在 %d 秒内发送身份验证器中的验证码："},
	"use_cached_login_info": {"Logging in with your saved login...", "正在使用已保存的登录信息登录……"},
	"discard_login":         {"Login cancelled.", "已取消登录"},
	"invalid_account":       {"Wrong username or password. Send them again, or 0 to cancel:", "用户名或密码错误，请重新发送，发送 0 取消："},
	"invalid_info_format":   {"Send exactly a username and a password separated by a space:", "格式错误，请发送用户名和密码，用空格分隔："},
	"invalid_2fa_format":    {"The verification code must be digits, send it again:", "验证码只能包含数字，请重新发送："},
	"invalid_2fa_code":      {"Wrong verification code, send it again:", "验证码错误，请重新发送："},
	"unsupported_2fa":       {"This account asks for a verification method the bot does not support.", "该账号需要的验证方式暂不支持"},
	"logged_in":             {"Logged in as %s.", "登录成功：%s"},
	"logged_out":            {"Logged out. Your saved login has been removed.", "已登出并删除登录信息"},

	// friends
	"empty_friend_list": {"Your friend list is empty.", "好友列表为空"},
	"friend_section":    {"%s (%d):", "%s（%d）："},
	"status_online":     {"Online", "在线"},
	"status_joinme":     {"Join Me", "欢迎加入"},
	"status_askme":      {"Ask Me", "请先询问"},
	"status_busy":       {"Busy", "忙碌"},
	"status_webonline":  {"On website", "网页在线"},
	"status_offline":    {"Offline", "离线"},
	"status_unknown":    {"Unknown", "未知"},

	// users
	"send_user_name":     {"Send the name of the user to search for:", "请发送要搜索的用户名："},
	"no_user_found":      {"No user found.", "没有找到用户"},
	"searched_user_tip":  {"Found %d users:", "找到 %d 个用户："},
	"user_detail":        {"%s\nStatus: %s %s\nTrust: %s\nLast login: %s\nBio: %s", "%s\n状态：%s %s\n信任等级：%s\n上次登录：%s\n简介：%s"},
	"send_world_name":    {"Send the name of the world to search for:", "请发送要搜索的世界名："},
	"no_world_found":     {"No world found.", "没有找到世界"},
	"searched_world_tip": {"Found %d worlds:", "找到 %d 个世界："},
	"world_detail":       {"%s by %s\nOccupants: %d / %d\nVisits: %d, favorites: %d\n%s", "%s（作者：%s）\n在线人数：%d / %d\n访问：%d，收藏：%d\n%s"},
	"send_group_name":    {"Send the name or short code of the group to search for:", "请发送要搜索的群组名或短代码："},
	"no_group_found":     {"No group found.", "没有找到群组"},
	"searched_group_tip": {"Found %d groups:", "找到 %d 个群组："},
	"group_detail":       {"%s (%s.%s)\nMembers: %d\n%s", "%s（%s.%s）\n成员数：%d\n%s"},

	// notifications, economy
	"no_notifications":  {"You have no notifications.", "没有通知"},
	"notifications_tip": {"%d notifications:", "共 %d 条通知："},
	"balance":           {"Balance: %d credits", "余额：%d"},
	"trust_visitor":     {"Visitor", "访客"},
	"trust_user":        {"User", "用户"},
	"trust_known":       {"Known User", "已知用户"},
	"trust_trusted":     {"Trusted User", "可信用户"},
	"trust_moderator":   {"Moderator", "管理员"},
	"trust_developer":   {"Developer", "开发者"},
	"never":             {"never", "从未"},

	// locale
	"available_locales_tip": {"Available languages:", "可用语言："},
	"select_locale_tip":     {"Send the number of the language, or 0 to cancel:", "请发送语言序号，发送 0 取消："},
	"locale_changed":        {"Language changed to %s (%s).", "语言已切换为 %s（%s）"},
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range messages {
		for i, l := range Locales {
			if err := b.SetString(l.Tag, key, texts[i]); err != nil {
				panic(fmt.Sprintf("catalog %s/%s: %v", l.Code, key, err))
			}
		}
	}
	return b
}

func newPrinter(l Locale) *message.Printer {
	return message.NewPrinter(l.Tag, message.Catalog(messageCatalog))
}

// localeStore keeps each session's chosen locale.
type localeStore struct {
	repo     storage.Repository
	fallback Locale
}

func (s *localeStore) get(sessionID string) (Locale, error) {
	data, err := s.repo.Get(settingsNamespace, localeType, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.fallback, nil
	}
	if err != nil {
		return s.fallback, err
	}
	if l, ok := LookupLocale(strings.TrimSpace(string(data))); ok {
		return l, nil
	}
	return s.fallback, nil
}

func (s *localeStore) set(sessionID string, l Locale) error {
	return s.repo.Put(settingsNamespace, localeType, sessionID, []byte(l.Code))
}
