package resolver

import (
	"fmt"
	"regexp"
	"strconv"
)

// accountBase is the steam64 value of account id 0 in the public universe.
const accountBase uint64 = 76561197960265728

var (
	legacyIDPattern = regexp.MustCompile(`^STEAM_[0-5]:([01]):(\d+)$`)
	id3Pattern      = regexp.MustCompile(`^\[U:1:(\d+)\]$`)
)

// IDVariants holds the textual forms of one account id.
type IDVariants struct {
	Steam64  string
	Steam32  string
	SteamID  string
	SteamID3 string
}

// VariantsOf derives every id form from a 17-digit steam64 string.
func VariantsOf(steam64 string) (IDVariants, error) {
	n, err := strconv.ParseUint(steam64, 10, 64)
	if err != nil || n < accountBase {
		return IDVariants{}, fmt.Errorf("%w: %q", ErrInvalidToken, steam64)
	}
	account := n - accountBase
	return IDVariants{
		Steam64:  steam64,
		Steam32:  strconv.FormatUint(account, 10),
		SteamID:  fmt.Sprintf("STEAM_0:%d:%d", account&1, account>>1),
		SteamID3: fmt.Sprintf("[U:1:%d]", account),
	}, nil
}

// ToSteam64 converts STEAM_X:Y:Z and [U:1:N] forms to steam64.
// ok is false when s is neither form.
func ToSteam64(s string) (string, bool) {
	if m := legacyIDPattern.FindStringSubmatch(s); m != nil {
		y, _ := strconv.ParseUint(m[1], 10, 64)
		z, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(accountBase+z*2+y, 10), true
	}
	if m := id3Pattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(accountBase+n, 10), true
	}
	return "", false
}
