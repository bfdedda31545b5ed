package auth

import "investment-platform/internal/models"

// Action is a back-office operation performed by one user on another
type Action string

const (
	ActionViewUser       Action = "view_user"
	ActionUpdateUser     Action = "update_user"
	ActionChangeRole     Action = "change_role"
	ActionDeactivateUser Action = "deactivate_user"
	ActionAdjustWallet   Action = "adjust_wallet"
)

type policyKey struct {
	actor  models.Role
	target models.Role
	action Action
}

var policy = map[policyKey]bool{}

// assignable lists the roles each actor may hand out
var assignable = map[models.Role][]models.Role{
	models.RoleSuperadmin: {models.RoleUser, models.RoleAdmin},
}

func grant(actor, target models.Role, actions ...Action) {
	for _, a := range actions {
		policy[policyKey{actor, target, a}] = true
	}
}

func init() {
	grant(models.RoleAdmin, models.RoleUser,
		ActionViewUser, ActionUpdateUser, ActionDeactivateUser, ActionAdjustWallet)
	grant(models.RoleAdmin, models.RoleAdmin, ActionViewUser)
	grant(models.RoleAdmin, models.RoleSuperadmin, ActionViewUser)

	grant(models.RoleSuperadmin, models.RoleUser,
		ActionViewUser, ActionUpdateUser, ActionDeactivateUser, ActionAdjustWallet, ActionChangeRole)
	grant(models.RoleSuperadmin, models.RoleAdmin,
		ActionViewUser, ActionUpdateUser, ActionDeactivateUser, ActionAdjustWallet, ActionChangeRole)
	grant(models.RoleSuperadmin, models.RoleSuperadmin, ActionViewUser)
}

// Can reports whether actor may perform action on a user holding target
func Can(actor, target models.Role, action Action) bool {
	return policy[policyKey{actor, target, action}]
}

// CanAssignRole reports whether actor may give a user the role to
func CanAssignRole(actor, to models.Role) bool {
	for _, r := range assignable[actor] {
		if r == to {
			return true
		}
	}
	return false
}
