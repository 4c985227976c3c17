package vrchat

import (
	"strings"
	"time"
)

// CurrentUser is the account behind an authenticated session.
type CurrentUser struct {
	ID                     string    `json:"id"`
	Username               string    `json:"username"`
	DisplayName            string    `json:"displayName"`
	Bio                    string    `json:"bio"`
	Status                 string    `json:"status"`
	StatusDescription      string    `json:"statusDescription"`
	State                  string    `json:"state"`
	Tags                   []string  `json:"tags"`
	DeveloperType          string    `json:"developerType"`
	Friends                []string  `json:"friends"`
	OnlineFriends          []string  `json:"onlineFriends"`
	ActiveFriends          []string  `json:"activeFriends"`
	OfflineFriends         []string  `json:"offlineFriends"`
	TwoFactorAuthEnabled   bool      `json:"twoFactorAuthEnabled"`
	EmailVerified          bool      `json:"emailVerified"`
	LastLogin              time.Time `json:"last_login"`
	CurrentAvatarThumbnail string    `json:"currentAvatarThumbnailImageUrl"`
}

// LimitedUser is the short user form returned by search and friend lists.
type LimitedUser struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"displayName"`
	Bio               string    `json:"bio"`
	Status            string    `json:"status"`
	StatusDescription string    `json:"statusDescription"`
	Location          string    `json:"location"`
	Tags              []string  `json:"tags"`
	DeveloperType     string    `json:"developerType"`
	IsFriend          bool      `json:"isFriend"`
	LastLogin         time.Time `json:"last_login"`
	LastPlatform      string    `json:"last_platform"`
}

// User is the full user record from GET /users/{id}.
type User struct {
	LimitedUser
	State              string    `json:"state"`
	WorldID            string    `json:"worldId"`
	InstanceID         string    `json:"instanceId"`
	DateJoined         string    `json:"date_joined"`
	BioLinks           []string  `json:"bioLinks"`
	LastActivity       time.Time `json:"last_activity"`
	FriendKey          string    `json:"friendKey"`
	AllowAvatarCopying bool      `json:"allowAvatarCopying"`
}

// LimitedWorld is the short world form returned by search.
type LimitedWorld struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	AuthorID          string    `json:"authorId"`
	AuthorName        string    `json:"authorName"`
	Capacity          int       `json:"capacity"`
	Favorites         int       `json:"favorites"`
	Visits            int       `json:"visits"`
	Occupants         int       `json:"occupants"`
	Popularity        int       `json:"popularity"`
	Heat              int       `json:"heat"`
	ReleaseStatus     string    `json:"releaseStatus"`
	Tags              []string  `json:"tags"`
	ThumbnailImageURL string    `json:"thumbnailImageUrl"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// World is the full world record from GET /worlds/{id}.
type World struct {
	LimitedWorld
	Description         string `json:"description"`
	PublicOccupants     int    `json:"publicOccupants"`
	PrivateOccupants    int    `json:"privateOccupants"`
	RecommendedCapacity int    `json:"recommendedCapacity"`
	Version             int    `json:"version"`
}

// Notification is an entry of the account's notification inbox.
type Notification struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	SenderUserID   string    `json:"senderUserId"`
	SenderUsername string    `json:"senderUsername"`
	ReceiverUserID string    `json:"receiverUserId"`
	Message        string    `json:"message"`
	Seen           bool      `json:"seen"`
	CreatedAt      time.Time `json:"created_at"`
}

// LimitedGroup is the short group form returned by search.
type LimitedGroup struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ShortCode     string    `json:"shortCode"`
	Discriminator string    `json:"discriminator"`
	Description   string    `json:"description"`
	OwnerID       string    `json:"ownerId"`
	MemberCount   int       `json:"memberCount"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Group is the full group record from GET /groups/{id}.
type Group struct {
	LimitedGroup
	Rules             string   `json:"rules"`
	Links             []string `json:"links"`
	Languages         []string `json:"languages"`
	JoinState         string   `json:"joinState"`
	Privacy           string   `json:"privacy"`
	OnlineMemberCount int      `json:"onlineMemberCount"`
}

// Balance is the account's credit balance.
type Balance struct {
	Balance int `json:"balance"`
}

// Normalized presence values used by NormalizeStatus.
const (
	StatusOnline    = "online"
	StatusWebOnline = "webonline"
	StatusJoinMe    = "joinme"
	StatusBusy      = "busy"
	StatusAskMe     = "askme"
	StatusOffline   = "offline"
	StatusUnknown   = "unknown"
)

// NormalizeStatus maps the upstream status string, combined with the user's
// location, onto a small fixed set. A user whose location is "offline" but
// whose status is still "active" is online through the website.
func NormalizeStatus(status, location string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if location == "offline" {
		if status == "active" {
			return StatusWebOnline
		}
		return StatusOffline
	}
	switch status {
	case "active":
		return StatusOnline
	case "join me":
		return StatusJoinMe
	case "busy":
		return StatusBusy
	case "ask me":
		return StatusAskMe
	case "offline":
		return StatusOffline
	default:
		return StatusUnknown
	}
}

// Trust ranks derived from system tags, lowest first.
const (
	TrustVisitor   = "visitor"
	TrustUser      = "user"
	TrustKnown     = "known"
	TrustTrusted   = "trusted"
	TrustModerator = "moderator"
	TrustDeveloper = "developer"
)

// TrustLevel derives a user's trust rank from their tags.
func TrustLevel(tags []string, developerType string) string {
	switch developerType {
	case "internal":
		return TrustDeveloper
	case "moderator":
		return TrustModerator
	}
	has := make(map[string]bool, len(tags))
	for _, t := range tags {
		has[t] = true
	}
	switch {
	case has["admin_moderator"]:
		return TrustModerator
	case has["system_trust_veteran"]:
		return TrustTrusted
	case has["system_trust_trusted"]:
		return TrustKnown
	case has["system_trust_known"]:
		return TrustUser
	default:
		return TrustVisitor
	}
}
