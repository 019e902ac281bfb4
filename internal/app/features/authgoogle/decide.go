package authgoogle

import "github.com/LunarMoonDev/user-location/internal/domain/models"

// Action is the outcome of reconciling a Google identity against what
// is already stored.
type Action int

const (
	// ActionKeep leaves the stored user untouched.
	ActionKeep Action = iota
	// ActionCreate provisions a first-time user.
	ActionCreate
	// ActionRefresh overwrites the stored account with the fresh one
	// and reactivates the user if they were soft-deleted.
	ActionRefresh
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionRefresh:
		return "refresh"
	default:
		return "keep"
	}
}

// Decide reconciles a login against the stored user for the same
// provider/subject pair. Kept free of I/O so every branch is testable
// without a database.
func Decide(existing *models.User, acct models.Account) Action {
	if existing == nil {
		return ActionCreate
	}
	if existing.Account == nil {
		return ActionRefresh
	}
	if existing.IsDisabled {
		return ActionRefresh
	}
	if existing.Account.AccessToken != acct.AccessToken {
		return ActionRefresh
	}
	return ActionKeep
}
