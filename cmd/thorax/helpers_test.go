package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/thorax/pkg/types"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, types.ErrInvalidID, "input %q", bad)
	}
}

func TestParseEntityJSON(t *testing.T) {
	t.Run("valid patient", func(t *testing.T) {
		entity, err := parseEntityJSON(types.KindPatient,
			[]byte(`{"hospital_id":"H-001","cancer_type":"lung","sex":"F"}`))
		require.NoError(t, err)

		p, ok := entity.(*types.Patient)
		require.True(t, ok)
		assert.Equal(t, "H-001", p.HospitalID)
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := parseEntityJSON(types.KindPatient, []byte(`{"sex":"F"}`))
		require.ErrorIs(t, err, types.ErrValidation)
		assert.Contains(t, err.Error(), "hospital")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := parseEntityJSON(types.KindSurgery, []byte(`{`))
		assert.ErrorIs(t, err, types.ErrInvalidData)
	})

	t.Run("follow-up event", func(t *testing.T) {
		entity, err := parseEntityJSON(types.KindFollowUpEvent,
			[]byte(`{"event_date":"240601","event_type":"visit"}`))
		require.NoError(t, err)

		e, ok := entity.(*types.FollowUpEvent)
		require.True(t, ok)
		assert.Equal(t, "visit", e.Type)
	})
}

func TestParseDependentKind(t *testing.T) {
	kind, err := parseDependentKind("Surgery")
	require.NoError(t, err)
	assert.Equal(t, types.KindSurgery, kind)

	_, err = parseDependentKind("Patient")
	assert.Error(t, err)

	_, err = parseDependentKind("Visits")
	assert.Error(t, err)
}
