package models

import "strings"

// Tier represents a participant's subscription tier. Tiers are ordered:
// basic < pro < elite. A participant's tier determines the deepest chain
// level commissions can be received at.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierElite Tier = "elite"
)

// tierRanks orders the tiers for comparison
var tierRanks = map[Tier]int{
	TierBasic: 1,
	TierPro:   2,
	TierElite: 3,
}

// tierMaxLevels maps each tier to the deepest chain level it can earn at
var tierMaxLevels = map[Tier]int{
	TierBasic: 1,
	TierPro:   2,
	TierElite: 4,
}

// ParseTier normalizes a tier string, defaulting to basic for unknown values
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	_, ok := tierRanks[t]
	if !ok {
		return TierBasic, false
	}
	return t, true
}

// Rank returns the tier's position in the ordering (higher is better)
func (t Tier) Rank() int {
	return tierRanks[t]
}

// MaxCommissionLevel returns the deepest chain level this tier can receive
// commissions at. Zero for unknown tiers.
func (t Tier) MaxCommissionLevel() int {
	return tierMaxLevels[t]
}

// Valid reports whether the tier is one of the known values
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Label returns a display name for the tier
func (t Tier) Label() string {
	if t == "" {
		return "Basic"
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
