package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"steamprofile-rest-api/internal/model"

	"golang.org/x/net/html"
)

var (
	backgroundPattern = regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?(.*?)['"]?\s*\)`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	hoursPattern      = regexp.MustCompile(`(?i)([\d.]+ hours?)`)
	playTimePattern   = regexp.MustCompile(`([\d.]+ hrs) on record`)
	lastPlayedPattern = regexp.MustCompile(`(?i)last played on ([\d\w\s]+)`)
	foilPattern       = regexp.MustCompile(`(?i)foil`)
)

// Parse extracts a Snapshot from a community profile page.
// It returns ErrMarkupMissing when the document is not a profile page.
func Parse(r io.Reader) (*model.Snapshot, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}

	if find(doc, classes("profile_page")) == nil {
		return nil, ErrMarkupMissing
	}

	return &model.Snapshot{
		Profile:        parseProfile(doc),
		SidePanel:      parseSidePanel(doc),
		RecentlyPlayed: parseRecent(doc),
	}, nil
}

func parseProfile(doc *html.Node) model.ProfileSection {
	var p model.ProfileSection

	p.PersonaName = trimmedText(find(doc, classes("actual_persona_name")))

	for _, el := range findAll(doc, classes("has_profile_background")) {
		if m := backgroundPattern.FindStringSubmatch(attr(el, "style")); m != nil {
			p.BackgroundImage = m[1]
			break
		}
	}

	if animated := find(doc, classes("profile_animated_background")); animated != nil {
		if video := find(animated, tag("video")); video != nil {
			bg := &model.AnimatedBackground{Poster: attr(video, "poster")}
			for _, src := range findAll(video, tag("source")) {
				s, typ := attr(src, "src"), attr(src, "type")
				if s != "" && typ != "" {
					bg.Sources = append(bg.Sources, model.VideoSource{Src: s, Type: typ})
				}
			}
			if bg.Poster != "" || len(bg.Sources) > 0 {
				p.AnimatedBackground = bg
			}
		}
	}

	if avatar := find(doc, classes("playerAvatarAutoSizeInner")); avatar != nil {
		p.AvatarFrame = attr(findPath(avatar, classes("profile_avatar_frame"), tag("img")), "src")
		for c := avatar.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "img" {
				if src := attr(c, "src"); src != "" {
					p.Avatar = src
				}
			}
		}
	}

	if level := find(doc, classes("friendPlayerLevel")); level != nil {
		p.Level = trimmedText(find(level, classes("friendPlayerLevelNum")))
		p.LevelStage = classWithPrefix(level, "lvl_")
	}

	if fav := find(doc, tagClass("a", "favorite_badge")); fav != nil {
		badge := &model.FavoriteBadge{
			Link:  attr(fav, "href"),
			Image: attr(findPath(fav, classes("favorite_badge_icon"), tag("img")), "src"),
		}
		if desc := find(fav, classes("favorite_badge_description")); desc != nil {
			badge.Name = trimmedText(find(desc, classes("name")))
			badge.XP = trimmedText(find(desc, classes("xp")))
		}
		p.FavoriteBadge = badge
	}

	if summary := find(doc, classes("profile_summary")); summary != nil {
		p.Bio = &model.Bio{
			Raw:  strings.TrimSpace(innerHTML(summary)),
			Text: bioText(summary),
		}
	}

	statusEl := find(doc, anyClass(
		"profile_in_game", "profile_in_nonsteam_game",
		"profile_in_game_header", "profile_in_nonsteam_game_header",
		"profile_online", "profile_offline", "profile_away", "profile_busy", "profile_snooze",
	))
	if statusEl != nil {
		switch {
		case hasClass(statusEl, "in-game") || hasClass(statusEl, "in_nonsteam_game"):
			p.Status = model.StatusInGame
			p.Game = trimmedText(find(statusEl, classes("profile_in_game_name")))
			p.JoinGameLink = attr(findPath(statusEl, classes("profile_in_game_joingame"), tag("a")), "href")
		case hasClass(statusEl, "online"):
			p.Status = model.StatusOnline
		case hasClass(statusEl, "offline"):
			p.Status = model.StatusOffline
		case hasClass(statusEl, "away"):
			p.Status = model.StatusAway
		case hasClass(statusEl, "busy"):
			p.Status = model.StatusBusy
		case hasClass(statusEl, "snooze"):
			p.Status = model.StatusSnooze
		}
	}

	return p
}

// bioText flattens the summary, replacing emoticon images with their alt text.
func bioText(summary *html.Node) string {
	var b strings.Builder
	for c := summary.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "img" && hasClass(c, "emoticon"):
			b.WriteString(attr(c, "alt"))
		default:
			b.WriteString(text(c))
		}
	}
	return strings.TrimSpace(b.String())
}

func parseSidePanel(doc *html.Node) model.SidePanel {
	panel := model.SidePanel{Stats: make(map[string]model.CountLink)}

	if section := find(doc, classes("profile_awards")); section != nil {
		awards := &model.AwardsPanel{
			Link:   sectionLink(section),
			Count:  sectionCount(section),
			Awards: []model.Award{},
		}
		for _, el := range findAll(section, classes("profile_badges_badge")) {
			lines := tooltipLines(el)
			awards.Awards = append(awards.Awards, model.Award{
				Image: attr(find(el, tag("img")), "src"),
				Name:  lines[0],
			})
		}
		panel.Awards = awards
	}

	if section := find(doc, classes("profile_badges")); section != nil {
		badges := &model.BadgesPanel{
			Link:   sectionLink(section),
			Count:  sectionCount(section),
			Badges: []model.BadgePreview{},
		}
		for _, el := range findAll(section, classes("profile_badges_badge")) {
			lines := tooltipLines(el)
			preview := model.BadgePreview{
				Image: attr(find(el, tag("img")), "src"),
				Name:  lines[0],
				Link:  attr(find(el, tag("a")), "href"),
			}
			if len(lines) > 1 {
				preview.Level = lines[1]
			}
			badges.Badges = append(badges.Badges, preview)
		}
		panel.Badges = badges
	}

	if links := find(doc, classes("profile_item_links")); links != nil {
		for _, el := range findAll(links, classes("profile_count_link")) {
			a := find(el, tag("a"))
			name := trimmedText(find(a, classes("count_link_label")))
			if name == "" {
				continue
			}
			key := strings.Join(strings.Fields(strings.ToLower(name)), "_")
			panel.Stats[key] = model.CountLink{
				Name:  name,
				Count: leadingInt(trimmedText(find(a, classes("profile_count_link_total")))),
				Link:  attr(a, "href"),
			}
		}
	}

	if section := find(doc, classes("profile_group_links")); section != nil {
		groups := &model.GroupsPanel{
			Link:  sectionLink(section),
			Count: sectionCount(section),
		}
		if primary := find(section, classes("profile_primary_group")); primary != nil {
			name := find(primary, classes("whiteLink"))
			groups.Primary = &model.GroupPreview{
				Name:    trimmedText(name),
				Link:    attr(name, "href"),
				Image:   attr(findPath(primary, classes("profile_group_avatar"), tag("img")), "src"),
				Members: trimmedText(find(primary, classes("profile_group_membercount"))),
			}
		}
		panel.Groups = groups
	}

	if section := find(doc, classes("profile_friend_links")); section != nil {
		friends := &model.FriendsPanel{
			Link:  sectionLink(section),
			Count: sectionCount(section),
			Top:   []model.FriendPreview{},
		}
		if top := find(section, classes("profile_topfriends")); top != nil {
			for _, el := range findAll(top, classes("friendBlock")) {
				friends.Top = append(friends.Top, parseFriend(el))
			}
		}
		panel.Friends = friends
	}

	return panel
}

func parseFriend(el *html.Node) model.FriendPreview {
	friend := model.FriendPreview{
		Link:   attr(find(el, classes("friendBlockLinkOverlay")), "href"),
		Avatar: attr(findPath(el, classes("playerAvatar"), tag("img")), "src"),
		Level:  trimmedText(find(el, classes("friendPlayerLevelNum"))),
		Status: trimmedText(find(el, classes("friendSmallText"))),
	}
	if content := find(el, classes("friendBlockContent")); content != nil && content.FirstChild != nil {
		friend.Name = strings.TrimSpace(text(content.FirstChild))
	}
	if level := find(el, classes("friendPlayerLevel")); level != nil {
		friend.LevelStage = classWithPrefix(level, "lvl_")
	}
	return friend
}

func parseRecent(doc *html.Node) model.ScrapedRecent {
	recent := model.ScrapedRecent{RecentGames: model.ScrapedGames{Games: []model.ScrapedGame{}}}

	if quick := find(doc, classes("recentgame_quicklinks", "recentgame_recentplaytime")); quick != nil {
		for c := quick.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != "div" {
				continue
			}
			total := trimmedText(c)
			if m := hoursPattern.FindStringSubmatch(total); m != nil {
				total = m[1]
			}
			recent.Total = total
			break
		}
	}

	for _, el := range findAll(doc, classes("recent_game")) {
		game := model.ScrapedGame{
			Title:     trimmedText(findPath(el, classes("game_name"), tag("a"))),
			Thumbnail: attr(find(el, classes("game_capsule")), "src"),
		}

		details := innerHTML(find(el, classes("game_info_details")))
		if m := playTimePattern.FindStringSubmatch(details); m != nil {
			game.PlayTime = m[1]
		}
		if m := lastPlayedPattern.FindStringSubmatch(details); m != nil {
			game.LastPlayed = strings.TrimSpace(m[1])
		}

		summary := trimmedText(findPath(el, classes("game_info_achievement_summary"), classes("ellipsis")))
		if fields := strings.Fields(summary); len(fields) > 0 {
			game.Achievements = fields[0]
		}

		if badge := find(el, classes("game_info_badge")); badge != nil {
			name := trimmedText(findPath(badge, classes("name"), tag("a")))
			foil := "n"
			if foilPattern.MatchString(name) {
				foil = "y"
			}
			game.Badge = &model.GameBadge{
				Name:  name,
				Level: strings.TrimSpace(strings.ReplaceAll(trimmedText(find(badge, classes("xp"))), "XP", "")),
				Image: attr(find(badge, tagClass("img", "badge_icon")), "src"),
				Foil:  foil,
			}
		}

		recent.RecentGames.Games = append(recent.RecentGames.Games, game)
	}

	return recent
}

func sectionLink(section *html.Node) string {
	return attr(findPath(section, classes("profile_count_link"), tag("a")), "href")
}

func sectionCount(section *html.Node) int {
	return leadingInt(trimmedText(find(section, classes("profile_count_link_total"))))
}

// tooltipLines splits a badge tooltip on <br> and strips markup from each line.
// The result always has at least one element.
func tooltipLines(n *html.Node) []string {
	parts := strings.Split(attr(n, "data-tooltip-html"), "<br>")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(tagPattern.ReplaceAllString(part, ""))
	}
	return parts
}

// leadingInt parses the leading digits of s, ignoring thousands separators.
// Non-numeric input yields 0.
func leadingInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
