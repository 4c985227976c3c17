package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmcleod/vrchatbot/vrchat"
)

func statusLabel(r *request, status string) string {
	return r.t("status_" + status)
}

func trustLabel(r *request, tags []string, developerType string) string {
	return r.t("trust_" + vrchat.TrustLevel(tags, developerType))
}

func formatTime(r *request, t time.Time) string {
	if t.IsZero() {
		return r.t("never")
	}
	return t.UTC().Format(time.DateTime)
}

func formatUser(r *request, u *vrchat.User) string {
	name := u.DisplayName
	if u.Username != "" && u.Username != u.DisplayName {
		name = fmt.Sprintf("%s (%s)", u.DisplayName, u.Username)
	}
	return r.t("user_detail",
		name,
		statusLabel(r, vrchat.NormalizeStatus(u.Status, u.Location)),
		u.StatusDescription,
		trustLabel(r, u.Tags, u.DeveloperType),
		formatTime(r, u.LastLogin),
		u.Bio,
	)
}

func formatWorld(r *request, w *vrchat.World) string {
	return r.t("world_detail",
		w.Name, w.AuthorName,
		w.Occupants, w.Capacity,
		w.Visits, w.Favorites,
		w.Description,
	)
}

func formatGroup(r *request, g *vrchat.Group) string {
	return r.t("group_detail",
		g.Name, g.ShortCode, g.Discriminator,
		g.MemberCount,
		g.Description,
	)
}

// formatFriends lists friends in sections by normalized status.
func formatFriends(r *request, friends []vrchat.LimitedUser) string {
	groups := make(map[string][]vrchat.LimitedUser, len(statusOrder))
	for _, f := range friends {
		s := vrchat.NormalizeStatus(f.Status, f.Location)
		groups[s] = append(groups[s], f)
	}
	var sb strings.Builder
	for _, s := range statusOrder {
		list := groups[s]
		if len(list) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(r.t("friend_section", statusLabel(r, s), len(list)))
		for _, f := range list {
			sb.WriteString("\n- ")
			sb.WriteString(f.DisplayName)
			if f.StatusDescription != "" {
				sb.WriteString(": ")
				sb.WriteString(f.StatusDescription)
			}
		}
	}
	return sb.String()
}

func formatNotification(n vrchat.Notification) string {
	line := fmt.Sprintf("[%s] %s", n.Type, n.SenderUsername)
	if n.Message != "" {
		line += ": " + n.Message
	}
	return line
}
