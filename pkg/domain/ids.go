// Package domain holds the identifier and enumeration types shared across the
// accountability core. IDs are distinct types over uuid.UUID so a staff ID can
// never be passed where a warning ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "practiceops/pkg/domain-errors"
)

type (
	StaffID         uuid.UUID
	LeaveIntervalID uuid.UUID
	AssignmentID    uuid.UUID
	ObservationID   uuid.UUID
	WarningID       uuid.UUID
	AuditEntryID    uuid.UUID
	TaskID          uuid.UUID
	RecognitionID   uuid.UUID
)

func (id StaffID) String() string         { return uuid.UUID(id).String() }
func (id StaffID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id LeaveIntervalID) String() string { return uuid.UUID(id).String() }
func (id AssignmentID) String() string    { return uuid.UUID(id).String() }
func (id ObservationID) String() string   { return uuid.UUID(id).String() }
func (id WarningID) String() string       { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string    { return uuid.UUID(id).String() }
func (id TaskID) String() string          { return uuid.UUID(id).String() }
func (id RecognitionID) String() string   { return uuid.UUID(id).String() }

func NewStaffID() StaffID                 { return StaffID(uuid.New()) }
func NewLeaveIntervalID() LeaveIntervalID { return LeaveIntervalID(uuid.New()) }
func NewAssignmentID() AssignmentID       { return AssignmentID(uuid.New()) }
func NewObservationID() ObservationID     { return ObservationID(uuid.New()) }
func NewWarningID() WarningID             { return WarningID(uuid.New()) }
func NewAuditEntryID() AuditEntryID       { return AuditEntryID(uuid.New()) }
func NewTaskID() TaskID                   { return TaskID(uuid.New()) }
func NewRecognitionID() RecognitionID     { return RecognitionID(uuid.New()) }

// parseUUID enforces the trust-boundary invariant: IDs arriving from outside
// must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseStaffID(raw string) (StaffID, error) {
	parsed, err := parseUUID(raw)
	return StaffID(parsed), err
}

func ParseLeaveIntervalID(raw string) (LeaveIntervalID, error) {
	parsed, err := parseUUID(raw)
	return LeaveIntervalID(parsed), err
}

func ParseAssignmentID(raw string) (AssignmentID, error) {
	parsed, err := parseUUID(raw)
	return AssignmentID(parsed), err
}

func ParseWarningID(raw string) (WarningID, error) {
	parsed, err := parseUUID(raw)
	return WarningID(parsed), err
}

func ParseObservationID(raw string) (ObservationID, error) {
	parsed, err := parseUUID(raw)
	return ObservationID(parsed), err
}

func ParseTaskID(raw string) (TaskID, error) {
	parsed, err := parseUUID(raw)
	return TaskID(parsed), err
}

func ParseRecognitionID(raw string) (RecognitionID, error) {
	parsed, err := parseUUID(raw)
	return RecognitionID(parsed), err
}
