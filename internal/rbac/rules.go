package rbac

// Default policy table. Roles are resolved by the auth layer before a
// request reaches a handler; handlers only ever ask "does this role carry
// this permission".
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"material:view",
		"material:like",
		"quiz:view",
		"quiz:submit",
		"progress:view",
		"chat:view",
		"chat:send",
		"ai:assist",
	},
	"instructor": {
		"course:view",
		"course:create",
		"course:update_own",
		"course:delete_own",
		"course:enroll",
		"material:view",
		"material:create",
		"material:update",
		"material:delete",
		"material:like",
		"quiz:view",
		"quiz:create",
		"quiz:generate",
		"quiz:submit",
		"progress:view",
		"analytics:view",
		"chat:view",
		"chat:send",
		"chat:pin",
		"ai:assist",
		"ai:generate",
	},
	"admin": {
		"*", // everything
	},
}
