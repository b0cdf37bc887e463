package service

import "steamprofile-rest-api/internal/model"

// Persona states reported by the Web API.
const (
	personaAway   = 3
	personaSnooze = 4
)

// PersonaStatus maps a numeric persona state to a status string. Anything but
// away or snooze, including an absent state, reads as online.
func PersonaStatus(state *int) string {
	if state == nil {
		return model.StatusOnline
	}
	switch *state {
	case personaAway:
		return model.StatusAway
	case personaSnooze:
		return model.StatusSnooze
	default:
		return model.StatusOnline
	}
}

// DerivePresence computes the reported status and current game. The
// snapshot decides between in-game, online and offline; the summary refines
// online into away or snooze and supplies a game name fallback.
func DerivePresence(snapshot *model.Snapshot, player *model.Player) (string, *string) {
	if snapshot == nil {
		return model.StatusOffline, nil
	}

	switch snapshot.Profile.Status {
	case model.StatusInGame:
		game := snapshot.Profile.Game
		if game == "" && player != nil {
			game = player.GameExtraInfo
		}
		return model.StatusInGame, optional(game)
	case model.StatusOnline:
		if player == nil {
			return model.StatusOnline, nil
		}
		return PersonaStatus(player.PersonaState), nil
	default:
		return model.StatusOffline, nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
