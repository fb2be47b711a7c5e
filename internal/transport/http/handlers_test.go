package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"practiceops/internal/attendance"
	"practiceops/internal/escalation"
	"practiceops/internal/kpi"
	"practiceops/internal/leave"
	"practiceops/internal/recognition"
	"practiceops/internal/schedule"
	"practiceops/internal/staff"
	"practiceops/internal/tasks"
	"practiceops/internal/timeline"
	"practiceops/internal/warning"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/middleware/auth"
	"practiceops/pkg/platform/tx"
)

var testSigningKey = []byte("test-signing-key")

// HandlersSuite runs requests against the full router backed by in-memory
// stores, the same wiring the server builds without a database.
type HandlersSuite struct {
	suite.Suite

	router http.Handler

	staffID   domain.StaffID
	managerID domain.StaffID
	adminID   domain.StaffID
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(auditmem.New())
	runner := tx.NopRunner{}
	locks := keylock.New()

	s.staffID = domain.NewStaffID()
	s.managerID = domain.NewStaffID()
	s.adminID = domain.NewStaffID()

	directory := staff.NewInMemoryDirectory()
	directory.Put(staff.Member{ID: s.staffID, Name: "A. Assistant", Role: domain.RoleDentalAssistant, Status: staff.StatusActive, StartDate: time.Now().AddDate(-2, 0, 0)})
	directory.Put(staff.Member{ID: s.managerID, Name: "M. Manager", Role: domain.RolePracticeManager, Status: staff.StatusActive, StartDate: time.Now().AddDate(-5, 0, 0)})

	leaves := leave.NewService(leave.NewInMemoryStore(), recorder, locks, runner, nil, logger)
	schedules := schedule.NewService(schedule.NewInMemoryStore(), leaves, recorder, locks, runner, nil, logger)
	kpis := kpi.NewService(kpi.NewInMemoryStore(), directory, recorder, runner, nil, logger, 70)
	warnings := warning.NewService(warning.NewInMemoryStore(), recorder, runner, nil, logger)
	attendances := attendance.NewService(attendance.NewInMemoryStore(), recorder, runner, logger)
	taskEvents := tasks.NewService(tasks.NewInMemoryStore(), recorder, runner, logger)
	recognitions := recognition.NewService(recognition.NewInMemoryStore(), recorder, runner, logger)
	timelines := timeline.NewService(warnings, recognitions, taskEvents, leaves, kpis)

	engine := escalation.NewEngine(
		escalation.Config{LatenessCount: 3, OverdueTaskCount: 3, KPIThreshold: 70},
		escalation.NewInMemoryWatermarks(),
		locks,
		warnings, attendances, taskEvents, kpis, recognitions, logger,
	)
	attendances.AddListener(engine)
	taskEvents.AddListener(engine)
	kpis.AddCloseListener(engine)

	s.router = NewRouter(Deps{
		Leave:         leaves,
		Schedule:      schedules,
		KPI:           kpis,
		Warnings:      warnings,
		Attendance:    attendances,
		Tasks:         taskEvents,
		Recognition:   recognitions,
		Timeline:      timelines,
		Audit:         recorder,
		JWTSigningKey: testSigningKey,
		Logger:        logger,
	})
}

func (s *HandlersSuite) token(staffID domain.StaffID, role domain.Role) string {
	claims := auth.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	s.Require().NoError(err)
	return signed
}

func (s *HandlersSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlersSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlersSuite) TestHealthzIsPublic() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersSuite) TestMissingTokenRejected() {
	rec := s.do(http.MethodGet, "/leave", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlersSuite) TestWrongKeyTokenRejected() {
	claims := jwt.RegisteredClaims{Subject: s.staffID.String()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-key"))
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/leave", forged, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlersSuite) TestStaffCannotManageSchedule() {
	rec := s.do(http.MethodPost, "/schedule", s.token(s.staffID, domain.RoleDentalAssistant), assignRequest{
		StaffID: s.staffID.String(), Date: "2026-04-10", Shift: "Morning", Role: "DentalAssistant",
	})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlersSuite) TestLeaveFlow() {
	staffToken := s.token(s.staffID, domain.RoleDentalAssistant)
	managerToken := s.token(s.managerID, domain.RolePracticeManager)

	rec := s.do(http.MethodPost, "/leave", staffToken, submitLeaveRequest{
		Type: "Annual", Start: "2026-07-01", End: "2026-07-03", Reason: "family visit",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := s.decode(rec)
	s.Equal("Pending", created["status"])
	intervalID := created["id"].(string)

	// The requesting assistant cannot decide their own leave.
	rec = s.do(http.MethodPost, "/leave/"+intervalID+"/decision", staffToken, decideLeaveRequest{Decision: "approve"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/leave/"+intervalID+"/decision", managerToken, decideLeaveRequest{Decision: "approve"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("Approved", s.decode(rec)["status"])

	// A second decision conflicts.
	rec = s.do(http.MethodPost, "/leave/"+intervalID+"/decision", managerToken, decideLeaveRequest{Decision: "reject"})
	s.Equal(http.StatusConflict, rec.Code)

	// Scheduling over the approved leave is refused, and the envelope names
	// the blocking interval.
	rec = s.do(http.MethodPost, "/schedule", managerToken, assignRequest{
		StaffID: s.staffID.String(), Date: "2026-07-02", Shift: "Morning", Role: "DentalAssistant",
	})
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "leave")
	conflict := s.decode(rec)["conflict"].(map[string]any)
	s.Equal(intervalID, conflict["interval_id"])
	s.Equal("2026-07-01", conflict["start"])
	s.Equal("2026-07-03", conflict["end"])
}

func (s *HandlersSuite) TestOverlapConflictNamesBlockingInterval() {
	staffToken := s.token(s.staffID, domain.RoleDentalAssistant)
	managerToken := s.token(s.managerID, domain.RolePracticeManager)

	rec := s.do(http.MethodPost, "/leave", staffToken, submitLeaveRequest{
		Type: "Annual", Start: "2026-09-01", End: "2026-09-05",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	firstID := s.decode(rec)["id"].(string)
	rec = s.do(http.MethodPost, "/leave/"+firstID+"/decision", managerToken, decideLeaveRequest{Decision: "approve"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/leave", staffToken, submitLeaveRequest{
		Type: "Unpaid", Start: "2026-09-04", End: "2026-09-08",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	secondID := s.decode(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/leave/"+secondID+"/decision", managerToken, decideLeaveRequest{Decision: "approve"})
	s.Equal(http.StatusConflict, rec.Code)
	conflict := s.decode(rec)["conflict"].(map[string]any)
	s.Equal(firstID, conflict["interval_id"])
	s.Equal("Annual", conflict["type"])
}

func (s *HandlersSuite) TestDentistCannotApproveOwnLeave() {
	// A dentist carries the decide-leave capability, so the refusal has to
	// come from the ledger itself, not the capability check.
	dentistID := domain.NewStaffID()
	dentistToken := s.token(dentistID, domain.RoleDentist)

	rec := s.do(http.MethodPost, "/leave", dentistToken, submitLeaveRequest{
		Type: "Annual", Start: "2026-08-10", End: "2026-08-12",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	intervalID := s.decode(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/leave/"+intervalID+"/decision", dentistToken, decideLeaveRequest{Decision: "approve"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/leave/"+intervalID+"/decision", s.token(s.managerID, domain.RolePracticeManager), decideLeaveRequest{Decision: "approve"})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlersSuite) TestScheduleDuplicateConflict() {
	managerToken := s.token(s.managerID, domain.RolePracticeManager)
	body := assignRequest{StaffID: s.staffID.String(), Date: "2026-04-10", Shift: "Morning", Role: "DentalAssistant"}

	rec := s.do(http.MethodPost, "/schedule", managerToken, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	assignmentID := s.decode(rec)["id"].(string)

	rec = s.do(http.MethodPost, "/schedule", managerToken, body)
	s.Equal(http.StatusConflict, rec.Code)
	conflict := s.decode(rec)["conflict"].(map[string]any)
	s.Equal(assignmentID, conflict["assignment_id"])
	s.Equal("2026-04-10", conflict["date"])
}

func (s *HandlersSuite) TestStaffCannotReadOthersRecords() {
	staffToken := s.token(s.staffID, domain.RoleDentalAssistant)
	rec := s.do(http.MethodGet, "/warnings?staff_id="+s.managerID.String(), staffToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// Their own records are fine.
	rec = s.do(http.MethodGet, "/warnings", staffToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersSuite) TestAuditRequiresSuperAdmin() {
	rec := s.do(http.MethodGet, "/audit", s.token(s.managerID, domain.RolePracticeManager), nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/audit", s.token(s.adminID, domain.RoleSuperAdmin), nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersSuite) TestAuditCapturesMutations() {
	managerToken := s.token(s.managerID, domain.RolePracticeManager)
	rec := s.do(http.MethodPost, "/warnings", managerToken, issueWarningRequest{
		StaffID: s.staffID.String(), Reason: "missed morning briefing",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/audit?action=warning_issued", s.token(s.adminID, domain.RoleSuperAdmin), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	entries := s.decode(rec)["entries"].([]any)
	s.Require().Len(entries, 1)
	entry := entries[0].(map[string]any)
	s.Equal(s.managerID.String(), entry["actor_id"])
}

func (s *HandlersSuite) TestKPIFlowOverHTTP() {
	managerToken := s.token(s.managerID, domain.RolePracticeManager)

	rec := s.do(http.MethodPost, "/kpi/observations", managerToken, observationRequest{
		StaffID: s.staffID.String(), Period: "2026-03", Category: "Productivity", Met: true,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/kpi/periods/2026-03/ranking", managerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	ranking := s.decode(rec)["ranking"].([]any)
	s.Require().Len(ranking, 1)

	rec = s.do(http.MethodPost, "/kpi/periods/2026-03/close", managerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/kpi/observations", managerToken, observationRequest{
		StaffID: s.staffID.String(), Period: "2026-03", Category: "Teamwork", Met: false,
	})
	s.Equal(http.StatusConflict, rec.Code, "closed periods accept no observations")
}

func (s *HandlersSuite) TestTimelineOverHTTP() {
	managerToken := s.token(s.managerID, domain.RolePracticeManager)
	rec := s.do(http.MethodPost, "/warnings", managerToken, issueWarningRequest{
		StaffID: s.staffID.String(), Reason: "late filing",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	today := time.Now().UTC().Format(dateLayout)
	rec = s.do(http.MethodGet, "/timeline?staff_id="+s.staffID.String()+"&from="+today+"&to="+today, managerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	events := s.decode(rec)["events"].([]any)
	s.Require().Len(events, 1)
	s.Equal("Warning", events[0].(map[string]any)["type"])
}
