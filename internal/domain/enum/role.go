package enum

// Role is the coarse operator role; it seeds a user's default capabilities.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// DisplayName returns the human readable role name.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleCashier:
		return "Cashier"
	}
	return string(r)
}

// DefaultCapabilities returns the capabilities a role grants when the user has
// no per-user overrides.
func (r Role) DefaultCapabilities() []Capability {
	switch r {
	case RoleAdmin:
		return []Capability{
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
		}
	case RoleManager:
		return []Capability{
			CapManageProducts,
			CapManageCategories,
			CapManageCustomers,
			CapManageSales,
			CapManageRegister,
			CapViewReports,
		}
	case RoleCashier:
		return []Capability{
			CapMakeSales,
			CapManageRegister,
			CapViewCustomers,
		}
	}
	return nil
}
