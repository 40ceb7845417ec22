package account

// Capabilities is everything a tier unlocks for one analysis.
type Capabilities struct {
	UnlimitedCredits bool
	WebSearch        bool
	MarketData       bool
	Model            string
}

// TierTable is the single place where tier policy lives.
type TierTable map[Tier]Capabilities

// Models names the model variant per tier class. Overrides wins per tier.
type Models struct {
	Standard  string
	Premium   string
	Overrides map[Tier]string
}

// NewTierTable builds the policy table. Premium tiers are unlimited and get
// search augmentation plus market data; the others are credit-limited.
func NewTierTable(m Models) TierTable {
	premium := Capabilities{UnlimitedCredits: true, WebSearch: true, MarketData: true, Model: m.Premium}
	standard := Capabilities{Model: m.Standard}

	t := TierTable{
		TierFree:         standard,
		TierEntrepreneur: standard,
		TierProfessional: premium,
		TierCorporate:    premium,
	}
	for tier, model := range m.Overrides {
		if model == "" {
			continue
		}
		if c, ok := t[tier]; ok {
			c.Model = model
			t[tier] = c
		}
	}
	return t
}

// Lookup returns the capabilities of tier, treating unknown tiers as free.
func (t TierTable) Lookup(tier Tier) Capabilities {
	if c, ok := t[tier]; ok {
		return c
	}
	return t[TierFree]
}
