package enum

import "sort"

// Capability is a single permission an actor can hold. The set is closed:
// anything outside AllCapabilities is rejected when parsed.
type Capability string

const (
	CapManageUsers      Capability = "manage_users"
	CapManageRoles      Capability = "manage_roles"
	CapManageBranches   Capability = "manage_branches"
	CapManageProducts   Capability = "manage_products"
	CapManageCategories Capability = "manage_categories"
	CapManageCustomers  Capability = "manage_customers"
	CapManageSales      Capability = "manage_sales"
	CapManageRegister   Capability = "manage_register"
	CapViewReports      Capability = "view_reports"
	CapManageSettings   Capability = "manage_settings"
	CapMakeSales        Capability = "make_sales"
	CapViewCustomers    Capability = "view_customers"
)

var allCapabilities = []Capability{
	CapManageUsers,
	CapManageRoles,
	CapManageBranches,
	CapManageProducts,
	CapManageCategories,
	CapManageCustomers,
	CapManageSales,
	CapManageRegister,
	CapViewReports,
	CapManageSettings,
	CapMakeSales,
	CapViewCustomers,
}

// implied lists capabilities granted by holding a broader one.
var implied = map[Capability]Capability{
	CapMakeSales:     CapManageSales,
	CapViewCustomers: CapManageCustomers,
}

// AllCapabilities returns every known capability.
func AllCapabilities() []Capability {
	out := make([]Capability, len(allCapabilities))
	copy(out, allCapabilities)
	return out
}

func (c Capability) IsValid() bool {
	for _, known := range allCapabilities {
		if c == known {
			return true
		}
	}
	return false
}

func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a stored permission string into a Capability.
func ParseCapability(s string) (Capability, bool) {
	c := Capability(s)
	return c, c.IsValid()
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	caps map[Capability]struct{}
}

// NewCapabilitySet builds a set, silently dropping unknown values.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := CapabilitySet{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		if c.IsValid() {
			set.caps[c] = struct{}{}
		}
	}
	return set
}

// CapabilitySetFromStrings parses stored permission names.
func CapabilitySetFromStrings(names []string) CapabilitySet {
	caps := make([]Capability, 0, len(names))
	for _, n := range names {
		if c, ok := ParseCapability(n); ok {
			caps = append(caps, c)
		}
	}
	return NewCapabilitySet(caps...)
}

// Has reports whether the set grants c, directly or through an implying capability.
func (s CapabilitySet) Has(c Capability) bool {
	if _, ok := s.caps[c]; ok {
		return true
	}
	if broader, ok := implied[c]; ok {
		_, has := s.caps[broader]
		return has
	}
	return false
}

// HasAny reports whether the set grants at least one of caps.
func (s CapabilitySet) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}

func (s CapabilitySet) Len() int {
	return len(s.caps)
}

// Strings returns the sorted capability names, as carried in tokens.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s.caps))
	for c := range s.caps {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
