package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "practiceops/pkg/domain-errors"
)

// IDs crossing the trust boundary must be valid, non-empty, non-nil UUIDs;
// every typed parser enforces that through parseUUID.
func TestParseStaffID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseStaffID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseStaffID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseStaffID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID and round-trips", func(t *testing.T) {
		want := NewStaffID()
		got, err := ParseStaffID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("accepts uppercase UUID", func(t *testing.T) {
		want := NewStaffID()
		got, err := ParseStaffID(strings.ToUpper(want.String()))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestTypedParsersShareTheInvariant(t *testing.T) {
	valid := uuid.New().String()

	parsers := map[string]func(string) (string, error){
		"leave interval": func(raw string) (string, error) {
			id, err := ParseLeaveIntervalID(raw)
			return id.String(), err
		},
		"assignment": func(raw string) (string, error) {
			id, err := ParseAssignmentID(raw)
			return id.String(), err
		},
		"observation": func(raw string) (string, error) {
			id, err := ParseObservationID(raw)
			return id.String(), err
		},
		"warning": func(raw string) (string, error) {
			id, err := ParseWarningID(raw)
			return id.String(), err
		},
		"task": func(raw string) (string, error) {
			id, err := ParseTaskID(raw)
			return id.String(), err
		},
		"recognition": func(raw string) (string, error) {
			id, err := ParseRecognitionID(raw)
			return id.String(), err
		},
	}
	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			got, err := parse(valid)
			require.NoError(t, err)
			assert.Equal(t, valid, got)

			_, err = parse("garbage")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			_, err = parse(uuid.Nil.String())
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, StaffID{}.IsNil())
	assert.False(t, NewStaffID().IsNil())
}
