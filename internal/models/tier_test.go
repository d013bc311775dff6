package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Tier
	}{
		{"basic", TierBasic},
		{"PRO", TierPro},
		{" Elite ", TierElite},
	} {
		tier, ok := ParseTier(tc.in)
		require.True(t, ok)
		assert.Equal(t, tc.want, tier)
	}

	tier, ok := ParseTier("platinum")
	assert.False(t, ok)
	assert.Equal(t, TierBasic, tier)
}

func TestTierOrdering(t *testing.T) {
	assert.Less(t, TierBasic.Rank(), TierPro.Rank())
	assert.Less(t, TierPro.Rank(), TierElite.Rank())
}

func TestTierMaxCommissionLevel(t *testing.T) {
	assert.Equal(t, 1, TierBasic.MaxCommissionLevel())
	assert.Equal(t, 2, TierPro.MaxCommissionLevel())
	assert.Equal(t, 4, TierElite.MaxCommissionLevel())

	// Unknown tiers earn nothing rather than defaulting to a real cap
	assert.Equal(t, 0, Tier("mystery").MaxCommissionLevel())
}

func TestTierValid(t *testing.T) {
	assert.True(t, TierBasic.Valid())
	assert.True(t, TierElite.Valid())
	assert.False(t, Tier("").Valid())
	assert.False(t, Tier("gold").Valid())
}
