package rbac

// Default policy for the progression engine's surfaces.
var RolePermissions = map[string][]string{
	"learner": {
		"section:list",
		"attempt:start",
		"attempt:submit",
		"attempt:view-own",
		"progress:view",
	},
	"instructor": {
		"section:list",
		"progress:view",
		"course:create",
		"question:author",
		"attempt:view-all",
	},
	"reviewer": {
		"section:list",
		"attempt:start",
		"attempt:submit",
		"attempt:view-all",
		"progress:view",
	},
	"admin": {
		"*", // everything
	},
}
