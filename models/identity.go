package models

// Role is the closed set of caller roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleOperator:
		return true
	}
	return false
}

// Capability is an action an identity may be allowed to perform.
type Capability string

const (
	CapCreateBooking  Capability = "booking:create"
	CapReadOwnBooking Capability = "booking:read_own"
	CapReadAnyBooking Capability = "booking:read_any"
	CapReconcileOwn   Capability = "payment:reconcile_own"
	CapReconcileAny   Capability = "payment:reconcile_any"
	CapRefund         Capability = "payment:refund"
	CapManageWebhooks Capability = "webhook:manage"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleCustomer: {
		CapCreateBooking:  true,
		CapReadOwnBooking: true,
		CapReconcileOwn:   true,
	},
	RoleOperator: {
		CapReadOwnBooking: true,
		CapReadAnyBooking: true,
		CapReconcileOwn:   true,
		CapReconcileAny:   true,
		CapRefund:         true,
		CapManageWebhooks: true,
	},
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Can reports whether the identity holds the capability.
func (id Identity) Can(c Capability) bool {
	if id.UserID == "" {
		return false
	}
	return roleCapabilities[id.Role][c]
}

// CanAccessOwned reports whether the identity may act on a record owned by
// ownerID, given the own/any capability pair.
func (id Identity) CanAccessOwned(ownerID string, own, anyOwner Capability) bool {
	if id.Can(anyOwner) {
		return true
	}
	return id.Can(own) && id.UserID == ownerID
}
