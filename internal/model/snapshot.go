package model

// Snapshot is a structured extraction of a community profile page.
type Snapshot struct {
	Profile        ProfileSection `json:"profile"`
	SidePanel      SidePanel      `json:"sidePanel"`
	RecentlyPlayed ScrapedRecent  `json:"recently-played"`
}

// ProfileSection holds the header of the profile page.
type ProfileSection struct {
	PersonaName        string              `json:"personaname,omitempty"`
	BackgroundImage    string              `json:"backgroundImage,omitempty"`
	AnimatedBackground *AnimatedBackground `json:"animatedBackground,omitempty"`
	Avatar             string              `json:"avatar,omitempty"`
	AvatarFrame        string              `json:"avatarFrame,omitempty"`
	Level              string              `json:"level,omitempty"`
	LevelStage         string              `json:"levelStage,omitempty"`
	FavoriteBadge      *FavoriteBadge      `json:"favoriteBadge,omitempty"`
	Bio                *Bio                `json:"bio,omitempty"`
	Status             string              `json:"status,omitempty"`
	Game               string              `json:"game,omitempty"`
	JoinGameLink       string              `json:"joinGameLink,omitempty"`
}

// Presence values reported by the scraper.
const (
	StatusInGame  = "in-game"
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusSnooze  = "snooze"
)

type AnimatedBackground struct {
	Poster  string        `json:"poster,omitempty"`
	Sources []VideoSource `json:"sources"`
}

type VideoSource struct {
	Src  string `json:"src"`
	Type string `json:"type"`
}

type FavoriteBadge struct {
	Link  string `json:"link,omitempty"`
	Image string `json:"image,omitempty"`
	Name  string `json:"name,omitempty"`
	XP    string `json:"xp,omitempty"`
}

type Bio struct {
	Raw  string `json:"raw"`
	Text string `json:"text"`
}

// SidePanel holds the right-hand column counters and previews.
type SidePanel struct {
	Awards  *AwardsPanel         `json:"awards,omitempty"`
	Badges  *BadgesPanel         `json:"badges,omitempty"`
	Stats   map[string]CountLink `json:"stats"`
	Groups  *GroupsPanel         `json:"groups,omitempty"`
	Friends *FriendsPanel        `json:"friends,omitempty"`
}

// BadgeCount returns the badge count shown on the page, 0 when absent.
func (p *SidePanel) BadgeCount() int {
	if p.Badges == nil {
		return 0
	}
	return p.Badges.Count
}

// StatCount returns the named counter or nil when the page did not show it.
func (p *SidePanel) StatCount(name string) *int {
	c, ok := p.Stats[name]
	if !ok || c.Count == 0 {
		return nil
	}
	n := c.Count
	return &n
}

type CountLink struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Link  string `json:"link,omitempty"`
}

type AwardsPanel struct {
	Link   string  `json:"link,omitempty"`
	Count  int     `json:"count"`
	Awards []Award `json:"awards"`
}

type Award struct {
	Image string `json:"image,omitempty"`
	Name  string `json:"name"`
}

type BadgesPanel struct {
	Link   string         `json:"link,omitempty"`
	Count  int            `json:"count"`
	Badges []BadgePreview `json:"badges"`
}

type BadgePreview struct {
	Image string `json:"image,omitempty"`
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
	Link  string `json:"link,omitempty"`
}

type GroupsPanel struct {
	Link    string        `json:"link,omitempty"`
	Count   int           `json:"count"`
	Primary *GroupPreview `json:"primary,omitempty"`
}

type GroupPreview struct {
	Name    string `json:"name"`
	Link    string `json:"link,omitempty"`
	Image   string `json:"image,omitempty"`
	Members string `json:"members,omitempty"`
}

type FriendsPanel struct {
	Link  string          `json:"link,omitempty"`
	Count int             `json:"count"`
	Top   []FriendPreview `json:"top"`
}

type FriendPreview struct {
	Name       string `json:"name"`
	Link       string `json:"link,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Level      string `json:"level,omitempty"`
	LevelStage string `json:"levelStage,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ScrapedRecent is the recent activity block of the page.
type ScrapedRecent struct {
	Total       string       `json:"total,omitempty"`
	RecentGames ScrapedGames `json:"recent-games"`
}

type ScrapedGames struct {
	Games []ScrapedGame `json:"games"`
}

type ScrapedGame struct {
	Title        string     `json:"title"`
	PlayTime     string     `json:"play-time,omitempty"`
	LastPlayed   string     `json:"last-played,omitempty"`
	Achievements string     `json:"achievements,omitempty"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	Badge        *GameBadge `json:"badge,omitempty"`
}

// GameBadge is the game card badge shown next to a recent game.
type GameBadge struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
	Image string `json:"image,omitempty"`
	Foil  string `json:"foil"`
}
