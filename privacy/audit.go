package privacy

// auditCapacity is the hard cap on retained audit entries. Older entries are
// silently dropped; this is not configurable.
const auditCapacity = 1000

// auditRing is a fixed-capacity circular buffer of audit entries. Appends
// never fail and never allocate past the initial backing slice.
type auditRing struct {
	entries []AuditEntry
	head    int
	count   int
}

func newAuditRing() *auditRing {
	return &auditRing{entries: make([]AuditEntry, auditCapacity)}
}

func (r *auditRing) append(e AuditEntry) {
	r.entries[(r.head+r.count)%auditCapacity] = e
	if r.count < auditCapacity {
		r.count++
	} else {
		r.head = (r.head + 1) % auditCapacity
	}
}

// snapshot returns the retained entries, oldest first.
func (r *auditRing) snapshot() []AuditEntry {
	out := make([]AuditEntry, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(r.head+i)%auditCapacity])
	}
	return out
}

func (r *auditRing) clear() {
	r.head = 0
	r.count = 0
}

// AuditLog returns retained audit entries, oldest first, narrowed by the
// optional filter.
func (e *Engine) AuditLog(filter *AuditFilter) []AuditEntry {
	entries := e.audit.snapshot()
	if filter == nil {
		return entries
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if filter.Operation != "" && entry.Operation != filter.Operation {
			continue
		}
		if !filter.Since.IsZero() && entry.Timestamp.Before(filter.Since) {
			continue
		}
		filtered = append(filtered, entry)
	}
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[len(filtered)-filter.Limit:]
	}
	return filtered
}

// ClearAuditLog drops every retained entry.
func (e *Engine) ClearAuditLog() {
	e.audit.clear()
}
