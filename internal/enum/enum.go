package enum

// ── Order lifecycle (enforced by the order service) ──

const (
	OrderStatusNew           = "NEW"
	OrderStatusInPreparation = "IN_PREPARATION"
	OrderStatusReady         = "READY"
	OrderStatusServed        = "SERVED"
	OrderStatusCanceled      = "CANCELED"
	OrderStatusClosed        = "CLOSED"
)

const (
	ItemStatusNew           = "NEW"
	ItemStatusInPreparation = "IN_PREPARATION"
	ItemStatusReady         = "READY"
	ItemStatusServed        = "SERVED"
	ItemStatusCanceled      = "CANCELED"
)

const (
	TableStatusFree     = "FREE"
	TableStatusOccupied = "OCCUPIED"
	TableStatusClosed   = "CLOSED"
)

// ── Accounts ──

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleWaiter     = "WAITER"
	RoleKitchen    = "KITCHEN"
)

const (
	SubscriptionTrialing = "TRIALING"
	SubscriptionActive   = "ACTIVE"
	SubscriptionExpired  = "EXPIRED"
)

// ── Billing ──

const (
	DiscountTypePercent = "PERCENT"
	DiscountTypeAmount  = "AMOUNT"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)
