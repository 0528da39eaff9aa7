// Package authz decides whether an authenticated identity may perform
// an action on a resource. It is a pure function over the caller's role
// grants; unauthenticated requests are rejected in middleware and never
// reach it.
package authz

import (
	"errors"

	"pizza-franchise-api/models"
)

type Action string

const (
	ActionCreateFranchise Action = "franchise.create"
	ActionDeleteFranchise Action = "franchise.delete"
	ActionCreateStore     Action = "store.create"
	ActionDeleteStore     Action = "store.delete"
	ActionWriteMenu       Action = "menu.write"
	ActionUpdateUser      Action = "user.update"
	ActionCreateOrder     Action = "order.create"
	ActionReadOrders      Action = "order.read"
)

// Identity is the validated caller: who they are and what they hold
type Identity struct {
	UserID uint
	Roles  []models.RoleGrant
}

// Resource identifies what the action targets. UserID is the account
// (or diner) being acted on; FranchiseID scopes store actions.
type Resource struct {
	UserID      uint
	FranchiseID uint
}

var ErrForbidden = errors.New("insufficient role")

// Authorize evaluates the grant rules in precedence order; the first
// matching rule wins.
func Authorize(id Identity, action Action, res Resource) error {
	// 1. admin may do anything
	for _, g := range id.Roles {
		if g.Role == models.RoleAdmin {
			return nil
		}
	}

	// 2. users act on their own account and orders
	if res.UserID != 0 && res.UserID == id.UserID {
		switch action {
		case ActionUpdateUser, ActionCreateOrder, ActionReadOrders:
			return nil
		}
	}

	// 3. franchisees manage stores within their own franchise only;
	// the menu stays admin-only
	if res.FranchiseID != 0 {
		for _, g := range id.Roles {
			if g.Role == models.RoleFranchisee && g.ObjectID == res.FranchiseID {
				switch action {
				case ActionCreateStore, ActionDeleteStore:
					return nil
				}
			}
		}
	}

	return ErrForbidden
}
