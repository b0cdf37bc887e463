package model

// Profile is the merged, externally visible record. It is computed per request
// and never persisted.
type Profile struct {
	SteamID        string          `json:"steamid"`
	Profile        ProfileInfo     `json:"profile"`
	Stats          ProfileStats    `json:"stats"`
	Badges         ProfileBadges   `json:"badges"`
	Awards         ProfileAwards   `json:"awards"`
	RecentlyPlayed ProfileRecent   `json:"recentlyPlayed"`
	Friends        []ProfileFriend `json:"friends"`
	Groups         []ProfileGroup  `json:"groups"`
	ChangeFlags
}

// ChangeFlags describe what changed during this request relative to persisted state.
type ChangeFlags struct {
	AvatarChanged     bool `json:"avatarChanged"`
	BadgeCountChanged bool `json:"badgeCountChanged"`
	VanityChanged     bool `json:"vanityChanged"`
	IsNewUser         bool `json:"isNewUser"`
}

type ProfileInfo struct {
	Name        string  `json:"name"`
	RealName    string  `json:"realname"`
	Avatars     Avatars `json:"avatars"`
	AvatarFrame *string `json:"avatarFrame"`
	Background  *string `json:"background"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Country     *string `json:"country"`
	Created     string  `json:"created"`
	Level       *int    `json:"level"`
	LevelStage  *string `json:"levelStage"`
	Bio         *string `json:"bio"`
	Status      string  `json:"status"`
	Game        *string `json:"game"`
}

type Avatars struct {
	Avatar       *string `json:"avatar"`
	AvatarMedium *string `json:"avatarmedium"`
	AvatarFull   *string `json:"avatarfull"`
	AvatarHash   *string `json:"avatarhash"`
	Scraped      *string `json:"scraped"`
}

type ProfileStats struct {
	Games       *int `json:"games"`
	Reviews     *int `json:"reviews"`
	Screenshots *int `json:"screenshots"`
	Friends     *int `json:"friends"`
	Groups      *int `json:"groups"`
}

type ProfileBadges struct {
	Count    int            `json:"count"`
	XP       int            `json:"xp"`
	Level    int            `json:"level"`
	Needed   int            `json:"needed"`
	Favorite *FavoriteBadge `json:"favorite"`
	List     []BadgeEntry   `json:"list"`
}

type BadgeEntry struct {
	BadgeID  int `json:"badgeid"`
	Level    int `json:"level"`
	XP       int `json:"xp"`
	Scarcity int `json:"scarcity"`
}

type ProfileAwards struct {
	Count int     `json:"count"`
	List  []Award `json:"list"`
}

type ProfileRecent struct {
	Total int          `json:"total"`
	Games []RecentGame `json:"games"`
}

type ProfileFriend struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Avatar string `json:"avatar"`
	Level  string `json:"level"`
	Status string `json:"status"`
}

type ProfileGroup struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Avatar  string `json:"avatar"`
	Members string `json:"members"`
}
