package model

// Role is stored on the user profile.
type Role string

const (
	RoleOwner Role = "owner"
	RoleKasir Role = "kasir"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleKasir
}

// Capability is what a session is allowed to do. Handlers and services check
// capabilities, never role strings.
type Capability string

const (
	CapViewOwnerDashboard Capability = "dashboard:owner"
	CapViewProducts       Capability = "product:view"
	CapManageProducts     Capability = "product:manage"
	CapManageCategories   Capability = "category:manage"
	CapViewDiscounts      Capability = "discount:view"
	CapManageDiscounts    Capability = "discount:manage"
	CapViewTransactions   Capability = "transaction:view"
	CapCheckout           Capability = "transaction:create"
	CapViewReports        Capability = "report:view"
	CapManageUsers        Capability = "user:manage"
)

// Capabilities is the resolved set for one session.
type Capabilities map[Capability]bool

func (c Capabilities) Has(capability Capability) bool {
	return c[capability]
}

// List returns the capabilities in declaration order, for responses.
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for _, capability := range allCapabilities {
		if c[capability] {
			out = append(out, capability)
		}
	}
	return out
}

var allCapabilities = []Capability{
	CapViewOwnerDashboard,
	CapViewProducts,
	CapManageProducts,
	CapManageCategories,
	CapViewDiscounts,
	CapManageDiscounts,
	CapViewTransactions,
	CapCheckout,
	CapViewReports,
	CapManageUsers,
}

var kasirCapabilities = []Capability{
	CapViewProducts,
	CapManageProducts,
	CapViewDiscounts,
	CapManageDiscounts,
	CapViewTransactions,
	CapCheckout,
}

// CapabilitiesFor resolves the capability set of a role. Unknown roles get nothing.
func CapabilitiesFor(role Role) Capabilities {
	caps := Capabilities{}
	switch role {
	case RoleOwner:
		for _, c := range allCapabilities {
			caps[c] = true
		}
	case RoleKasir:
		for _, c := range kasirCapabilities {
			caps[c] = true
		}
	}
	return caps
}
