package channel

// IsRunsEvent reports whether e was published on a runs channel with a runs event tag.
func IsRunsEvent(e Event) bool { return isDomainEvent(e, TypeRuns) }

// IsRunEvent reports whether e was published on a run channel with a run event tag.
func IsRunEvent(e Event) bool { return isDomainEvent(e, TypeRun) }

// IsApprovalsEvent reports whether e was published on an approvals channel with an approvals event tag.
func IsApprovalsEvent(e Event) bool { return isDomainEvent(e, TypeApprovals) }

// IsAuditEvent reports whether e was published on an audit channel with an audit event tag.
func IsAuditEvent(e Event) bool { return isDomainEvent(e, TypeAudit) }

func isDomainEvent(e Event, t Type) bool {
	return e.Domain() == t && e.Type.BelongsTo(t)
}
