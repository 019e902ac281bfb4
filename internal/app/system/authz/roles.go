// internal/app/system/authz/roles.go
package authz

// Rights are the permission strings consulted before mutating or
// reading users and locations.
const (
	RightGetUsers        = "getUsers"
	RightManageUsers     = "manageUsers"
	RightGetLocations    = "getLocs"
	RightManageLocations = "manageLocs"
)

// roleRights is the static role -> rights table. It is read-only after
// init; there is no way to grant rights at runtime.
var roleRights = map[string][]string{
	"user": {
		RightGetUsers,
		RightGetLocations,
	},
	"admin": {
		RightGetUsers,
		RightGetLocations,
		RightManageUsers,
		RightManageLocations,
	},
}

// RightsFor returns the rights granted to a role. Unknown roles have no
// rights.
func RightsFor(role string) []string {
	return roleRights[role]
}

// roleHas reports whether the role grants every one of the wanted rights.
func roleHas(role string, wanted ...string) bool {
	granted := roleRights[role]
	for _, want := range wanted {
		found := false
		for _, g := range granted {
			if g == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
