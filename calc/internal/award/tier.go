package award

import (
	"fmt"
	"strings"
)

// Tier is an ordinal award level. The zero value is StrokeReady, the floor.
type Tier int

// Tiers in ascending order.
const (
	StrokeReady Tier = iota
	Gold
	Platinum
	Diamond
)

var tierNames = [...]string{"STROKEREADY", "GOLD", "PLATINUM", "DIAMOND"}

func (t Tier) String() string {
	if t < StrokeReady || t > Diamond {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if t < StrokeReady || t > Diamond {
		return nil, fmt.Errorf("award: invalid tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText accepts a tier name in any case.
func (t *Tier) UnmarshalText(b []byte) error {
	p, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// ParseTier returns the tier named s, ignoring case and surrounding space.
func ParseTier(s string) (Tier, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == s {
			return Tier(i), nil
		}
	}
	return StrokeReady, fmt.Errorf("award: unknown tier %q", s)
}

// meet returns the lowest of ts, or Diamond when ts is empty.
func meet(ts ...Tier) Tier {
	out := Diamond
	for _, t := range ts {
		if t < out {
			out = t
		}
	}
	return out
}
