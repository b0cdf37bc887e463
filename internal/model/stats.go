package model

// The documents below are typed views over verbatim Web API response bodies.
// The store keeps the raw body; these types are only used to read it back.

// BadgesDocument is the body of IPlayerService/GetBadges.
type BadgesDocument struct {
	Response BadgesResponse `json:"response"`
}

// BadgesResponse holds badge progress. Badges is nil when the field was absent.
type BadgesResponse struct {
	Badges                     []Badge `json:"badges"`
	PlayerXP                   int     `json:"player_xp"`
	PlayerLevel                int     `json:"player_level"`
	PlayerXPNeededToLevelUp    int     `json:"player_xp_needed_to_level_up"`
	PlayerXPNeededCurrentLevel int     `json:"player_xp_needed_current_level"`
}

// Badge is a single badge entry.
type Badge struct {
	BadgeID        int   `json:"badgeid"`
	AppID          int   `json:"appid,omitempty"`
	Level          int   `json:"level"`
	CompletionTime int64 `json:"completion_time"`
	XP             int   `json:"xp"`
	Scarcity       int   `json:"scarcity"`
}

// RecentlyPlayedDocument is the body of IPlayerService/GetRecentlyPlayedGames.
type RecentlyPlayedDocument struct {
	Response *RecentlyPlayedResponse `json:"response"`
}

// RecentlyPlayedResponse lists recent games. Games is nil when the field was absent.
type RecentlyPlayedResponse struct {
	TotalCount int          `json:"total_count"`
	Games      []RecentGame `json:"games"`
}

// RecentGame is a recently played title.
type RecentGame struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	Playtime2Weeks  int    `json:"playtime_2weeks"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url,omitempty"`
}

// WellFormed reports whether the document carries a games list.
func (d *RecentlyPlayedDocument) WellFormed() bool {
	return d != nil && d.Response != nil && d.Response.Games != nil
}

// SummaryDocument is the body of ISteamUser/GetPlayerSummaries.
type SummaryDocument struct {
	Response SummaryResponse `json:"response"`
}

// SummaryResponse wraps the players array.
type SummaryResponse struct {
	Players []Player `json:"players"`
}

// Player is one player summary. PersonaState is nil when absent.
type Player struct {
	SteamID        string `json:"steamid"`
	PersonaName    string `json:"personaname"`
	ProfileURL     string `json:"profileurl"`
	Avatar         string `json:"avatar"`
	AvatarMedium   string `json:"avatarmedium"`
	AvatarFull     string `json:"avatarfull"`
	AvatarHash     string `json:"avatarhash"`
	PersonaState   *int   `json:"personastate,omitempty"`
	RealName       string `json:"realname,omitempty"`
	LocCountryCode string `json:"loccountrycode,omitempty"`
	GameExtraInfo  string `json:"gameextrainfo,omitempty"`
	GameID         string `json:"gameid,omitempty"`
	TimeCreated    int64  `json:"timecreated,omitempty"`
}

// FirstPlayer returns the first player of the document or nil.
func (d *SummaryDocument) FirstPlayer() *Player {
	if d == nil || len(d.Response.Players) == 0 {
		return nil
	}
	return &d.Response.Players[0]
}
