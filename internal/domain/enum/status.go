package enum

// Status is the lifecycle flag shared by businesses, branches, users,
// categories, products and customers.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// SessionStatus is the register session state. open -> closed only.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

func (s SessionStatus) IsValid() bool {
	return s == SessionStatusOpen || s == SessionStatusClosed
}

// SubscriptionPlan names a billing plan.
type SubscriptionPlan string

const (
	PlanBasic      SubscriptionPlan = "basic"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) IsValid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// SubscriptionStatus is the billing state of a business.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// AllowsAccess reports whether operators may sign in under this status.
func (s SubscriptionStatus) AllowsAccess() bool {
	return s == SubscriptionActive || s == SubscriptionTrial
}
