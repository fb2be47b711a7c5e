package httptransport

import (
	"net/http"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/requestcontext"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, field+" must be a YYYY-MM-DD date")
	}
	return t, nil
}

// resolveStaff returns the staff ID a read targets: the raw parameter when
// present, the actor otherwise. Reading someone else's records needs the
// ViewTeam capability.
func resolveStaff(r *http.Request, raw string) (domain.StaffID, error) {
	actor := requestcontext.ActorID(r.Context())
	if raw == "" {
		return actor, nil
	}
	staffID, err := domain.ParseStaffID(raw)
	if err != nil {
		return domain.StaffID{}, err
	}
	if staffID != actor && !auth.Has(r.Context(), auth.CapViewTeam) {
		return domain.StaffID{}, dErrors.New(dErrors.CodeForbidden, "viewing other staff requires the view_team capability")
	}
	return staffID, nil
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}
