package model

import (
	"path"
	"regexp"
	"strings"
)

var avatarHashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// AvatarHash extracts the content hash from an avatar URL such as
// ".../ab12..ef_full.jpg", or "" when the URL carries no recognizable hash.
func AvatarHash(url string) string {
	if url == "" {
		return ""
	}
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	name := path.Base(url)
	name = strings.TrimSuffix(name, path.Ext(name))
	for _, suffix := range []string{"_full", "_medium"} {
		name = strings.TrimSuffix(name, suffix)
	}
	name = strings.ToLower(name)
	if !avatarHashPattern.MatchString(name) {
		return ""
	}
	return name
}

// PlayerAvatarHash returns the avatar hash of a player summary, preferring the
// explicit avatarhash field.
func (p *Player) PlayerAvatarHash() string {
	if p == nil {
		return ""
	}
	if h := strings.ToLower(p.AvatarHash); avatarHashPattern.MatchString(h) {
		return h
	}
	return AvatarHash(p.AvatarFull)
}
