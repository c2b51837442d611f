package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchedule() *DowntimeSchedule {
	return &DowntimeSchedule{
		HostName:  "h1",
		ShortName: "maint1",
		Ranges:    map[string]string{"monday": "09:00-17:00"},
		Author:    "ops",
		Comment:   "weekly window",
		Fixed:     true,
	}
}

func TestComposeName_Host(t *testing.T) {
	s := validSchedule()
	assert.Equal(t, "h1!maint1", s.ComposeName())
}

func TestComposeName_Service(t *testing.T) {
	s := validSchedule()
	s.ServiceName = "svc1"
	assert.Equal(t, "h1!svc1!maint1", s.ComposeName())
}

func TestScheduleValidate(t *testing.T) {
	s := validSchedule()

	require.NoError(t, s.Validate())
	assert.Equal(t, "h1!maint1", s.Name)
	assert.False(t, s.CreatedAt.IsZero())
	assert.False(t, s.UpdatedAt.IsZero())
}

func TestScheduleValidate_MissingHost(t *testing.T) {
	s := validSchedule()
	s.HostName = ""

	err := s.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "host_name", verr.Field)
}

func TestScheduleValidate_MissingShortName(t *testing.T) {
	s := validSchedule()
	s.ShortName = ""

	var verr *ValidationError
	require.ErrorAs(t, s.Validate(), &verr)
	assert.Equal(t, "short_name", verr.Field)
}

func TestScheduleValidate_FlexibleRequiresDuration(t *testing.T) {
	s := validSchedule()
	s.Fixed = false

	var verr *ValidationError
	require.ErrorAs(t, s.Validate(), &verr)
	assert.Equal(t, "duration", verr.Field)

	s.Duration = 3600
	assert.NoError(t, s.Validate())
}

func TestScheduleValidate_EmptyRangesAllowed(t *testing.T) {
	s := validSchedule()
	s.Ranges = nil

	assert.NoError(t, s.Validate())
}

func TestValidateRanges_BadDayRule(t *testing.T) {
	err := ValidateRanges(map[string]string{"invalid-weekday-xyz": "00:00-24:00"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ranges", verr.Field)
	assert.Contains(t, verr.Message, "invalid time specification")
}

func TestValidateRanges_BadTimeRange(t *testing.T) {
	err := ValidateRanges(map[string]string{"monday": "17:00-09:00"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ranges", verr.Field)
	assert.Contains(t, verr.Message, "invalid time range definition")
}

func TestValidateRanges_Valid(t *testing.T) {
	assert.NoError(t, ValidateRanges(map[string]string{
		"monday":            "09:00-17:00",
		"saturday - sunday": "00:00-24:00",
		"day 1 - day 15":    "08:00-10:00, 18:00-20:00",
		"2026-12-24":        "00:00-24:00",
	}))
}

func TestCheckableKey(t *testing.T) {
	assert.Equal(t, "h1", CheckableKey("h1", ""))
	assert.Equal(t, "h1!svc1", CheckableKey("h1", "svc1"))
}

func TestCheckableValidate(t *testing.T) {
	c := &Checkable{HostName: "h1"}
	require.NoError(t, c.Validate())
	assert.False(t, c.CreatedAt.IsZero())

	assert.Error(t, (&Checkable{}).Validate())
}
