package panel

import "strings"

// ToggleValue interprets a checkbox post value. Unchecked boxes are not
// submitted at all, so the empty string means off.
func ToggleValue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// CleanSnowflake validates a submitted Discord id. Anything that is not
// a plausible snowflake collapses to the empty string, which unsets the
// field rather than storing garbage.
func CleanSnowflake(value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 15 || len(value) > 21 {
		return ""
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return value
}

// HasManagePermission reports whether a permission bitset string from
// the Discord API carries Manage Server or Administrator.
func HasManagePermission(permissions string) bool {
	const (
		permAdministrator = 1 << 3
		permManageGuild   = 1 << 5
	)
	var bits uint64
	for _, r := range permissions {
		if r < '0' || r > '9' {
			return false
		}
		bits = bits*10 + uint64(r-'0')
	}
	return bits&(permAdministrator|permManageGuild) != 0
}
