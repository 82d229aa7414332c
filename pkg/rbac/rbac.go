package rbac

// 权限常量
const (
	// 敏感操作权限
	PermissionRunReallocation = "flow:reallocate"
	PermissionRunScheduling   = "flow:schedule"

	// 普通操作权限
	PermissionRunEmailFlows  = "flow:email"
	PermissionRunInvoiceFlow = "flow:invoice"
	PermissionRunLeaveFlow   = "flow:leave"
	PermissionRunReviewFlow  = "flow:review"
)

// 角色常量
const (
	RoleStaff   = "staff"
	RolePartner = "partner"
	RoleAdmin   = "admin"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleStaff: {
		PermissionRunEmailFlows,
		PermissionRunInvoiceFlow,
	},
	RolePartner: {
		PermissionRunEmailFlows,
		PermissionRunInvoiceFlow,
		PermissionRunLeaveFlow,
		PermissionRunReviewFlow,
		PermissionRunScheduling,
	},
	RoleAdmin: {
		PermissionRunEmailFlows,
		PermissionRunInvoiceFlow,
		PermissionRunLeaveFlow,
		PermissionRunReviewFlow,
		PermissionRunScheduling,
		PermissionRunReallocation,
	},
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions returns the permission list for a role, nil for unknown roles.
func Permissions(role string) []string {
	return rolePermissions[role]
}
