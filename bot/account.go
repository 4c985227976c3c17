package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmcleod/vrchatbot/vrchat"
)

// statusOrder is the order friend sections are listed in.
var statusOrder = []string{
	vrchat.StatusOnline,
	vrchat.StatusJoinMe,
	vrchat.StatusAskMe,
	vrchat.StatusBusy,
	vrchat.StatusWebOnline,
	vrchat.StatusOffline,
	vrchat.StatusUnknown,
}

// maxNotifications caps how many notifications are listed.
const maxNotifications = 100

func (b *Bot) cmdFriends(ctx context.Context, r *request, _ string) ([]string, step) {
	c, err := b.ownClient(r)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	online, err := vrchat.Collect(c.AllFriends(ctx, false, vrchat.PageOptions{}))
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	offline, err := vrchat.Collect(c.AllFriends(ctx, true, vrchat.PageOptions{}))
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	b.saveCookies(r, c)

	friends := append(online, offline...)
	if len(friends) == 0 {
		return []string{r.t("empty_friend_list")}, nil
	}
	return []string{formatFriends(r, friends)}, nil
}

func (b *Bot) cmdNotifications(ctx context.Context, r *request, _ string) ([]string, step) {
	c, err := b.ownClient(r)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	notes, err := c.Notifications(ctx, maxNotifications, 0)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	b.saveCookies(r, c)

	if len(notes) == 0 {
		return []string{r.t("no_notifications")}, nil
	}
	lines := make([]string, 0, len(notes)+1)
	lines = append(lines, r.t("notifications_tip", len(notes)))
	for _, n := range notes {
		lines = append(lines, formatNotification(n))
	}
	return []string{strings.Join(lines, "\n")}, nil
}

func (b *Bot) cmdBalance(ctx context.Context, r *request, _ string) ([]string, step) {
	c, err := b.ownClient(r)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	bal, err := c.Balance(ctx, user.ID)
	if err != nil {
		return []string{b.handleError(ctx, r, err)}, nil
	}
	b.saveCookies(r, c)
	return []string{r.t("balance", bal.Balance)}, nil
}

func (b *Bot) cmdHelp(_ context.Context, r *request, _ string) ([]string, step) {
	return []string{r.t("help")}, nil
}

// cmdLocale switches the reply language. The argument may be a locale code
// or its position in the menu; without one the menu is shown.
func (b *Bot) cmdLocale(ctx context.Context, r *request, args string) ([]string, step) {
	if args != "" {
		if l, ok := LookupLocale(args); ok {
			return b.setLocale(ctx, r, l), nil
		}
		if i, key := parseOrdinal(args, len(Locales)); key == "" {
			return b.setLocale(ctx, r, Locales[i]), nil
		}
	}
	lines := []string{r.t("available_locales_tip")}
	for i, l := range Locales {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, l.Name, l.Code))
	}
	lines = append(lines, r.t("select_locale_tip"))
	return []string{strings.Join(lines, "\n")}, b.localeStep
}

func (b *Bot) localeStep(ctx context.Context, r *request, text string) ([]string, step) {
	i, key := parseOrdinal(text, len(Locales))
	switch key {
	case "":
		return b.setLocale(ctx, r, Locales[i]), nil
	case "discard_select":
		return []string{r.t(key)}, nil
	default:
		return []string{r.t(key)}, b.localeStep
	}
}

func (b *Bot) setLocale(ctx context.Context, r *request, l Locale) []string {
	if err := b.locales.set(r.sessionID, l); err != nil {
		return []string{b.handleError(ctx, r, fmt.Errorf("saving locale: %w", err))}
	}
	return []string{newPrinter(l).Sprintf("locale_changed", l.Name, l.Code)}
}
