package rbac

type Role string
type Action string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	ActionAdmin Action = "admin"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleStudent:
		return action == ActionRead || action == ActionWrite
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleStudent, RoleAdmin:
		return Role(role)
	default:
		return RoleStudent
	}
}
