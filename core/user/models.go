package user

// Roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Roles = []Role{
	{Name: "Student", Value: RoleStudent},
	{Name: "Admin", Value: RoleAdmin},
}

// ValidRole reports whether role is one of the known Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r.Value == role {
			return true
		}
	}
	return false
}

// User is the authenticated identity returned by the scheduling service.
// A nil *User means "anonymous".
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Action is a privileged capability gated on the current user.
type Action string

const (
	ActionGenerateSchedule Action = "schedule:generate"
	ActionPublishSchedule  Action = "schedule:publish"
)

var actionRoles = map[Action]string{
	ActionGenerateSchedule: RoleAdmin,
	ActionPublishSchedule:  RoleAdmin,
}

// Can reports whether usr may perform action. It is consulted before any
// privileged network call, independent of any rendering decision.
func Can(usr *User, action Action) bool {
	if usr == nil {
		return false
	}
	role, ok := actionRoles[action]
	if !ok {
		return false
	}
	return usr.Role == role
}
