package auth

import "practiceops/pkg/domain"

// Capability is a boundary-level permission. Who sees what is a cross-cutting
// check evaluated here, never inside the core entities.
type Capability string

const (
	CapViewOwn        Capability = "view_own"
	CapViewTeam       Capability = "view_team"
	CapViewAudit      Capability = "view_audit"
	CapManageSchedule Capability = "manage_schedule"
	CapDecideLeave    Capability = "decide_leave"
	CapScoreKPI       Capability = "score_kpi"
	CapIssueWarning   Capability = "issue_warning"
	CapRecordEvents   Capability = "record_events"
)

var staffCaps = []Capability{CapViewOwn}

var managerCaps = []Capability{
	CapViewOwn, CapViewTeam, CapManageSchedule,
	CapDecideLeave, CapScoreKPI, CapIssueWarning, CapRecordEvents,
}

// roleCapabilities maps practice roles to capability sets. Dentists may decide
// leave (the original practice routes leave approval through doctors as well
// as the manager); only the Super Admin reads the audit log.
var roleCapabilities = map[domain.Role][]Capability{
	domain.RoleReceptionist:    staffCaps,
	domain.RoleDentalAssistant: staffCaps,
	domain.RoleCleaner:         staffCaps,
	domain.RoleDentist:         append([]Capability{CapDecideLeave}, staffCaps...),
	domain.RolePracticeManager: managerCaps,
	domain.RoleSuperAdmin:      append([]Capability{CapViewAudit}, managerCaps...),
}

// CapabilitiesFor returns the capability set for a role. Unknown roles get
// nothing.
func CapabilitiesFor(role domain.Role) []Capability {
	return roleCapabilities[role]
}
