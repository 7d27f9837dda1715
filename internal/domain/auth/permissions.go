package auth

const (
	RoleAdmin     = "admin"
	RoleEmployee  = "employee"
	RoleEvaluator = "evaluator"
)

const (
	PermPeriodsRead       = "periods.read"
	PermPeriodsWrite      = "periods.write"
	PermPeriodsTransition = "periods.transition"
	PermProjectsRead      = "projects.read"
	PermProjectsWrite     = "projects.write"
	PermSelfEvalRead      = "evaluations.self.read"
	PermSelfEvalWrite     = "evaluations.self.write"
	PermDownwardRead      = "evaluations.downward.read"
	PermDownwardWrite     = "evaluations.downward.write"
	PermApprovalsWrite    = "approvals.write"
	PermRevisionRequest   = "approvals.revision"
	PermNotificationsRead = "notifications.read"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
	PermSystemAdmin       = "admin.system"
)

var DefaultPermissions = []string{
	PermPeriodsRead,
	PermPeriodsWrite,
	PermPeriodsTransition,
	PermProjectsRead,
	PermProjectsWrite,
	PermSelfEvalRead,
	PermSelfEvalWrite,
	PermDownwardRead,
	PermDownwardWrite,
	PermApprovalsWrite,
	PermRevisionRequest,
	PermNotificationsRead,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermPeriodsRead,
		PermProjectsRead,
		PermSelfEvalRead,
		PermSelfEvalWrite,
		PermNotificationsRead,
		PermReportsRead,
	},
	RoleEvaluator: {
		PermPeriodsRead,
		PermProjectsRead,
		PermSelfEvalRead,
		PermDownwardRead,
		PermDownwardWrite,
		PermApprovalsWrite,
		PermRevisionRequest,
		PermNotificationsRead,
		PermReportsRead,
	},
	RoleAdmin: {
		PermPeriodsRead,
		PermPeriodsWrite,
		PermPeriodsTransition,
		PermProjectsRead,
		PermProjectsWrite,
		PermSelfEvalRead,
		PermSelfEvalWrite,
		PermDownwardRead,
		PermDownwardWrite,
		PermApprovalsWrite,
		PermRevisionRequest,
		PermNotificationsRead,
		PermReportsRead,
		PermAuditRead,
		PermSystemAdmin,
	},
}
