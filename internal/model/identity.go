package model

import "regexp"

// steam64Pattern matches the platform's 17-digit numeric account identifier.
var steam64Pattern = regexp.MustCompile(`^\d{17}$`)

// IsSteam64 reports whether s has the canonical numeric identity shape.
func IsSteam64(s string) bool {
	return steam64Pattern.MatchString(s)
}

// Identity is the resolved account record persisted once per partition.
// Field names match the documents written by earlier versions of the service.
type Identity struct {
	Avatar           string `json:"avatar,omitempty"`
	RealName         string `json:"realName"`
	Country          string `json:"country"`
	AccountCreated   string `json:"accountCreated"`
	LastLogoff       string `json:"lastLogoff,omitempty"`
	Status           string `json:"status,omitempty"`
	Visibility       string `json:"visibility,omitempty"`
	SteamID          string `json:"steamID"`
	SteamID3         string `json:"steamID3"`
	Steam32          string `json:"steam32"`
	Steam64          string `json:"steam64"`
	ProfileURL       string `json:"profileURL"`
	ProfilePermalink string `json:"profilePermalink"`
}

// Aliases returns every token that should resolve back to this identity:
// the profile URL, its trailing path segment, the id variants and the permalink.
func (i *Identity) Aliases() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(i.Steam64)
	add(i.SteamID)
	add(i.SteamID3)
	add(i.ProfileURL)
	add(TrailingSegment(i.ProfileURL))
	add(i.ProfilePermalink)
	return out
}

// TrailingSegment returns the last non-empty path segment of a profile URL,
// e.g. "gaben" for "https://steamcommunity.com/id/gaben/".
func TrailingSegment(url string) string {
	end := len(url)
	for end > 0 && url[end-1] == '/' {
		end--
	}
	start := end
	for start > 0 && url[start-1] != '/' {
		start--
	}
	if start == 0 {
		return ""
	}
	return url[start:end]
}
