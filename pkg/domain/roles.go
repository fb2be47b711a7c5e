package domain

// Role enumerates the practice roles known to the core. The profile subsystem
// owns role assignment; the core only reads it for capability checks and
// schedule bookkeeping.
type Role string

const (
	RoleReceptionist    Role = "Receptionist"
	RoleDentist         Role = "Dentist"
	RoleDentalAssistant Role = "DentalAssistant"
	RoleCleaner         Role = "Cleaner"
	RolePracticeManager Role = "PracticeManager"
	RoleSuperAdmin      Role = "SuperAdmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReceptionist, RoleDentist, RoleDentalAssistant, RoleCleaner, RolePracticeManager, RoleSuperAdmin:
		return true
	}
	return false
}
