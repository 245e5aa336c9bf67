package domain

const (
	RoleMerchant = "MERCHANT"
	RoleAdmin    = "ADMIN"
)

// Subscription plan tiers. PlanNone means no paid subscription.
const (
	PlanNone    = "none"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionNone     = "none"
)

// StarterMaxCards is the active-card limit on the starter plan. Pro is unlimited.
const StarterMaxCards = 2

// Card definition bounds.
const (
	MinStampsRequired = 1
	MaxStampsRequired = 20
)

const (
	FeedEventStamp  = "STAMP"
	FeedEventReward = "REWARD"
	FeedEventRedeem = "REDEEM"
)
