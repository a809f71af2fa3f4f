// Package policy decides which actor may run which operation.
package policy

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleUser
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    int64
	Role  Role
	Email string
}

func (a Actor) IsManager() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

type Action string

const (
	ActionCheckout        Action = "order:checkout"
	ActionManageCart      Action = "cart:manage"
	ActionCreatePayment   Action = "payment:create"
	ActionViewOrder       Action = "order:view"
	ActionListOrders      Action = "order:list"
	ActionConfirmDelivery Action = "order:confirm-delivery"
	ActionAdvanceStatus   Action = "order:advance-status"
	ActionManageCatalog   Action = "catalog:manage"
	ActionManageShipping  Action = "shipping:manage"
	ActionManageVoucher   Action = "voucher:manage"
	ActionViewReports     Action = "report:view"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
)

type rule struct {
	roles      []Role
	ownerAllow bool // the resource owner passes regardless of role
}

var rules = map[Action]rule{
	ActionCheckout:        {ownerAllow: true},
	ActionManageCart:      {ownerAllow: true},
	ActionCreatePayment:   {roles: []Role{RoleAdmin, RoleStaff}, ownerAllow: true},
	ActionViewOrder:       {roles: []Role{RoleAdmin, RoleStaff}, ownerAllow: true},
	ActionListOrders:      {roles: []Role{RoleAdmin, RoleStaff}},
	ActionConfirmDelivery: {roles: []Role{RoleAdmin, RoleStaff}},
	ActionAdvanceStatus:   {roles: []Role{RoleAdmin}},
	ActionManageCatalog:   {roles: []Role{RoleAdmin}},
	ActionManageShipping:  {roles: []Role{RoleAdmin}},
	ActionManageVoucher:   {roles: []Role{RoleAdmin}},
	ActionViewReports:     {roles: []Role{RoleAdmin}},
}

// Authorize reports whether actor may perform action on a resource owned by
// ownerID. Pass ownerID 0 for resources without an owner.
func Authorize(actor Actor, action Action, ownerID int64) error {
	if actor.ID <= 0 || !actor.Role.Valid() {
		return ErrUnauthenticated
	}

	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrForbidden, action)
	}
	if r.ownerAllow && ownerID != 0 && ownerID == actor.ID {
		return nil
	}
	for _, role := range r.roles {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not %s", ErrForbidden, actor.Role, action)
}
