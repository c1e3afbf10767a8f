// Package permission authorizes (tenant, role, capability) triples before a
// gated mutation runs. Checks are pure lookups with no side effects.
package permission

import (
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/store"
)

// Key names one class of gated mutation.
type Key string

const (
	KeyPayments            Key = "PAYMENTS"
	KeyDiscount            Key = "DISCOUNT"
	KeyComplimentary       Key = "COMPLIMENTARY"
	KeyItemCancel          Key = "ITEM_CANCEL"
	KeyItemServe           Key = "ITEM_SERVE"
	KeyTableActions        Key = "TABLE_ACTIONS"
	KeyOrderClose          Key = "ORDER_CLOSE"
	KeyKitchenItemStatus   Key = "KITCHEN_ITEM_STATUS"
	KeyKitchenMarkAllReady Key = "KITCHEN_MARK_ALL_READY"
)

// Keys lists every capability, in the order the settings UI shows them.
var Keys = []Key{
	KeyPayments,
	KeyDiscount,
	KeyComplimentary,
	KeyItemCancel,
	KeyItemServe,
	KeyTableActions,
	KeyOrderClose,
	KeyKitchenItemStatus,
	KeyKitchenMarkAllReady,
}

// defaults apply when the tenant has no override for a (role, key) pair.
// WAITER covers the order-facing floor work; KITCHEN only advances items.
var defaults = map[string]map[Key]bool{
	enum.RoleWaiter: {
		KeyPayments:      true,
		KeyDiscount:      true,
		KeyComplimentary: true,
		KeyItemCancel:    true,
		KeyItemServe:     true,
		KeyTableActions:  true,
		KeyOrderClose:    true,
	},
	enum.RoleKitchen: {
		KeyKitchenItemStatus:   true,
		KeyKitchenMarkAllReady: true,
	},
}

// Valid reports whether k is a known capability key.
func Valid(k Key) bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// HasPermission reports whether role may perform key for the tenant.
// SUPER_ADMIN and ADMIN are always authorized. A tenant override replaces
// only the keys it sets; unset keys keep the role default.
func HasPermission(tenant *store.Tenant, role string, key Key) bool {
	if role == enum.RoleSuperAdmin || role == enum.RoleAdmin {
		return true
	}
	if tenant != nil {
		if overrides, ok := tenant.Permissions[role]; ok {
			if allowed, ok := overrides[string(key)]; ok {
				return allowed
			}
		}
	}
	return defaults[role][key]
}
