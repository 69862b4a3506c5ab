// Package authz is the authorization gate for transaction operations. Rules
// are a pure function table over (user, action, resource) so they can be
// evaluated before any side effect and unit-tested in isolation.
package authz

import "tapledger/internal/adapters/persistence/models"

// Role and permission names
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	PermViewTransactions   = "view-transactions"
	PermCreateTransactions = "create-transactions"
	PermUpdateTransactions = "update-transactions"
	PermDeleteTransactions = "delete-transactions"
)

// Action identifies a guarded transaction operation
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AllPermissions lists every transaction permission
var AllPermissions = []string{
	PermViewTransactions,
	PermCreateTransactions,
	PermUpdateTransactions,
	PermDeleteTransactions,
}

// Can evaluates whether user may perform action on txn. txn is only
// consulted for ActionView (ownership); update and delete deliberately do
// not check ownership, any holder of the matching permission qualifies.
func Can(user *models.User, action Action, txn *models.Transaction) bool {
	if user == nil {
		return false
	}

	switch action {
	case ActionList:
		return user.HasRole(RoleAdmin) || user.HasPermission(PermViewTransactions)
	case ActionView:
		if txn != nil && txn.UserID == user.ID {
			return true
		}
		return user.HasRole(RoleAdmin)
	case ActionCreate:
		return user.HasRole(RoleAdmin) || user.HasPermission(PermCreateTransactions)
	case ActionUpdate:
		return user.HasRole(RoleAdmin) || user.HasPermission(PermUpdateTransactions)
	case ActionDelete:
		return user.HasRole(RoleAdmin) || user.HasPermission(PermDeleteTransactions)
	default:
		return false
	}
}
