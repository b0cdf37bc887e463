package service

import "steamprofile-rest-api/internal/model"

// RefreshInput carries the signals compared by Decide. Persisted documents are
// nil when absent.
type RefreshInput struct {
	Snapshot       *model.Snapshot
	Badges         *model.BadgesDocument
	RecentlyPlayed *model.RecentlyPlayedDocument
	Summary        *model.SummaryDocument

	// PreviousAvatar is the avatar reference of the snapshot persisted
	// before this request, used when no summary carries a hash.
	PreviousAvatar string

	// CooldownActive reports whether a live status was verified recently.
	CooldownActive bool
}

// RefreshPlan lists the Web API categories to fetch this request.
type RefreshPlan struct {
	Badges         bool
	RecentlyPlayed bool
	Summary        bool

	// AvatarChanged is set when the summary fetch is due to an avatar change.
	AvatarChanged bool
	// StatusRecheck is set when the summary fetch is due to an online status.
	StatusRecheck bool
}

// Decide applies the change-detection rules. At most one summary fetch is
// planned even when both the avatar and status conditions hold.
func Decide(in RefreshInput) RefreshPlan {
	var plan RefreshPlan
	if in.Snapshot == nil {
		return plan
	}

	plan.Badges = badgesStale(in.Badges, in.Snapshot.SidePanel.BadgeCount())
	plan.RecentlyPlayed = !in.RecentlyPlayed.WellFormed()

	// Avatar first: its fetch also serves the status recheck.
	plan.AvatarChanged = AvatarChanged(in.Snapshot, in.Summary, in.PreviousAvatar)
	if plan.AvatarChanged {
		plan.Summary = true
	} else if in.Snapshot.Profile.Status == model.StatusOnline && !in.CooldownActive {
		plan.Summary = true
		plan.StatusRecheck = true
	}
	return plan
}

func badgesStale(doc *model.BadgesDocument, count int) bool {
	if doc == nil || doc.Response.Badges == nil {
		return true
	}
	return len(doc.Response.Badges) != count
}

// AvatarChanged compares avatar content hashes. The scraped avatar is compared
// with the persisted summary's hash, or with the previously persisted snapshot
// when no summary hash is known. Unknown hashes on either side never count as
// a change.
func AvatarChanged(snapshot *model.Snapshot, summary *model.SummaryDocument, previousAvatar string) bool {
	if snapshot == nil {
		return false
	}
	current := model.AvatarHash(snapshot.Profile.Avatar)
	if current == "" {
		return false
	}

	previous := summary.FirstPlayer().PlayerAvatarHash()
	if previous == "" {
		previous = model.AvatarHash(previousAvatar)
	}
	return previous != "" && previous != current
}
