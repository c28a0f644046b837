package rbac

// Default role policy. Teachers author; students take.
var RolePermissions = map[string][]string{
	"student": {
		"exam:take",
		"exam:submit",
		"course:enroll",
		"course:list",
		"result:view-own",
	},
	"teacher": {
		"course:create",
		"course:list",
		"exam:create",
		"exam:delete_own",
		"exam:take",
		"exam:list",
		"result:view-all",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
