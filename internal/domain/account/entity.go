package account

// Tier is a subscription level. It gates credits, tools and model choice.
type Tier string

const (
	TierFree         Tier = "free"
	TierEntrepreneur Tier = "entrepreneur"
	TierProfessional Tier = "professional"
	TierCorporate    Tier = "corporate"
)

// ParseTier maps a stored tier string to a Tier. Unknown or empty values
// fall back to TierFree.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierEntrepreneur, TierProfessional, TierCorporate:
		return Tier(s)
	default:
		return TierFree
	}
}

// Identity is the caller as resolved from a verified credential.
// It is never built from request input.
type Identity struct {
	UserID string
	Email  string
}

// Profile is the entitlement record owned by the account subsystem.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Credits int    `json:"credits"`
	Tier    Tier   `json:"subscription_tier"`
}

// Admitted reports whether the profile may start an analysis.
// Unlimited tiers are admitted regardless of the stored credit value.
func (p *Profile) Admitted(caps Capabilities) bool {
	return caps.UnlimitedCredits || p.Credits >= 1
}
