package service

import (
	"strconv"

	"steamprofile-rest-api/internal/model"
)

// MergeInput holds every category known for one identity.
type MergeInput struct {
	Identity       *model.Identity
	Snapshot       *model.Snapshot
	Badges         *model.BadgesDocument
	RecentlyPlayed *model.RecentlyPlayedDocument
	Summary        *model.SummaryDocument
	Flags          model.ChangeFlags
}

// Merge assembles the externally visible profile. Scraped fields win for live
// attributes; Web API fields win for counters; identity fields are the last
// fallback.
func Merge(in MergeInput) *model.Profile {
	id := in.Identity
	snap := in.Snapshot
	if snap == nil {
		snap = &model.Snapshot{}
	}
	player := in.Summary.FirstPlayer()
	if player == nil {
		player = &model.Player{}
	}
	var badges model.BadgesResponse
	if in.Badges != nil {
		badges = in.Badges.Response
	}

	status, game := DerivePresence(snap, in.Summary.FirstPlayer())

	p := &model.Profile{
		SteamID: id.Steam64,
		Profile: model.ProfileInfo{
			Name:     firstOf(player.PersonaName, snap.Profile.PersonaName, id.RealName),
			RealName: firstOf(player.RealName, id.RealName),
			Avatars: model.Avatars{
				Avatar:       optional(player.Avatar),
				AvatarMedium: optional(player.AvatarMedium),
				AvatarFull:   optional(player.AvatarFull),
				AvatarHash:   optional(player.AvatarHash),
				Scraped:      optional(snap.Profile.Avatar),
			},
			AvatarFrame: optional(snap.Profile.AvatarFrame),
			Background:  optional(snap.Profile.BackgroundImage),
			URL:         id.ProfileURL,
			Permalink:   id.ProfilePermalink,
			Country:     optional(firstOf(player.LocCountryCode, id.Country)),
			Created:     id.AccountCreated,
			Level:       level(snap.Profile.Level, badges.PlayerLevel),
			LevelStage:  optional(snap.Profile.LevelStage),
			Status:      status,
			Game:        game,
		},
		Stats: model.ProfileStats{
			Games:       snap.SidePanel.StatCount("games"),
			Reviews:     snap.SidePanel.StatCount("reviews"),
			Screenshots: snap.SidePanel.StatCount("screenshots"),
		},
		Badges: model.ProfileBadges{
			Count:    snap.SidePanel.BadgeCount(),
			XP:       badges.PlayerXP,
			Level:    badges.PlayerLevel,
			Needed:   badges.PlayerXPNeededToLevelUp,
			Favorite: snap.Profile.FavoriteBadge,
			List:     make([]model.BadgeEntry, 0, len(badges.Badges)),
		},
		Awards: model.ProfileAwards{
			List: []model.Award{},
		},
		RecentlyPlayed: model.ProfileRecent{
			Games: []model.RecentGame{},
		},
		Friends:     []model.ProfileFriend{},
		Groups:      []model.ProfileGroup{},
		ChangeFlags: in.Flags,
	}

	if snap.Profile.Bio != nil {
		p.Profile.Bio = optional(snap.Profile.Bio.Text)
	}

	for _, b := range badges.Badges {
		p.Badges.List = append(p.Badges.List, model.BadgeEntry{
			BadgeID:  b.BadgeID,
			Level:    b.Level,
			XP:       b.XP,
			Scarcity: b.Scarcity,
		})
	}

	if awards := snap.SidePanel.Awards; awards != nil {
		p.Awards.Count = awards.Count
		p.Awards.List = append(p.Awards.List, awards.Awards...)
	}

	if in.RecentlyPlayed != nil && in.RecentlyPlayed.Response != nil {
		p.RecentlyPlayed.Total = in.RecentlyPlayed.Response.TotalCount
		for _, g := range in.RecentlyPlayed.Response.Games {
			p.RecentlyPlayed.Games = append(p.RecentlyPlayed.Games, model.RecentGame{
				AppID:           g.AppID,
				Name:            g.Name,
				Playtime2Weeks:  g.Playtime2Weeks,
				PlaytimeForever: g.PlaytimeForever,
			})
		}
	}

	if friends := snap.SidePanel.Friends; friends != nil {
		p.Stats.Friends = positive(friends.Count)
		for _, f := range friends.Top {
			p.Friends = append(p.Friends, model.ProfileFriend{
				Name:   f.Name,
				URL:    f.Link,
				Avatar: f.Avatar,
				Level:  f.Level,
				Status: f.Status,
			})
		}
	}

	if groups := snap.SidePanel.Groups; groups != nil {
		p.Stats.Groups = positive(groups.Count)
		if g := groups.Primary; g != nil {
			p.Groups = append(p.Groups, model.ProfileGroup{
				Name:    g.Name,
				URL:     g.Link,
				Avatar:  g.Image,
				Members: g.Members,
			})
		}
	}

	return p
}

// level prefers the scraped level and falls back to the badge record.
func level(scraped string, fromBadges int) *int {
	if n, err := strconv.Atoi(scraped); err == nil && n > 0 {
		return &n
	}
	return positive(fromBadges)
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
