package types

import "strings"

// Tiers names the award tiers in ascending order.
var Tiers = []string{"STROKEREADY", "GOLD", "PLATINUM", "DIAMOND"}

// TierRank returns the position of the named tier in Tiers, ignoring case.
func TierRank(name string) (int, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, t := range Tiers {
		if t == name {
			return i, true
		}
	}
	return 0, false
}
