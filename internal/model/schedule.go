package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/asoares/lull/internal/timeperiod"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DowntimeSchedule is a declarative recurring maintenance-window definition
// attached to one checkable. It produces zero or more downtime records over
// its lifetime; created records are never retracted when the schedule is
// deleted.
type DowntimeSchedule struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	HostName    string             `json:"host_name" bson:"host_name"`
	ServiceName string             `json:"service_name,omitempty" bson:"service_name,omitempty"`
	ShortName   string             `json:"short_name" bson:"short_name"`
	// Ranges maps a day rule to a time-of-day range expression, in the
	// timeperiod grammar. Empty is legal and simply never produces windows.
	Ranges    map[string]string `json:"ranges" bson:"ranges"`
	Author    string            `json:"author" bson:"author"`
	Comment   string            `json:"comment" bson:"comment"`
	Fixed     bool              `json:"fixed" bson:"fixed"`
	Duration  int64             `json:"duration,omitempty" bson:"duration,omitempty"`
	Enabled   bool              `json:"enabled" bson:"enabled"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// ComposeName builds the schedule's unique name from its checkable key and
// short name: "host!short", or "host!service!short" for service schedules.
func (s *DowntimeSchedule) ComposeName() string {
	return CheckableKey(s.HostName, s.ServiceName) + "!" + s.ShortName
}

// Validate validates the schedule definition and gates the ranges map
// through the timeperiod grammar. It also stamps the composed name and
// metadata timestamps.
func (s *DowntimeSchedule) Validate() error {
	if s.HostName == "" {
		return &ValidationError{Field: "host_name", Message: "host name is required"}
	}
	if s.ShortName == "" {
		return &ValidationError{Field: "short_name", Message: "short name is required"}
	}
	if !s.Fixed && s.Duration <= 0 {
		return &ValidationError{Field: "duration", Message: "duration is required for flexible downtimes"}
	}
	if err := ValidateRanges(s.Ranges); err != nil {
		return err
	}

	s.Name = s.ComposeName()

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// ValidateRanges checks every range pair against the timeperiod grammar,
// using the current time as a synthetic reference day. It fails fast on the
// first unparsable pair; keys are visited in sorted order so the reported
// error is deterministic.
func ValidateRanges(ranges map[string]string) error {
	ref := time.Now()

	keys := make([]string, 0, len(ranges))
	for k := range ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := timeperiod.ParseDayRule(key); err != nil {
			return &ValidationError{
				Field:   "ranges",
				Message: fmt.Sprintf("invalid time specification %q: %v", key, err),
			}
		}
		if _, err := timeperiod.ExpandTimeRanges(ranges[key], ref); err != nil {
			return &ValidationError{
				Field:   "ranges",
				Message: fmt.Sprintf("invalid time range definition %q: %v", ranges[key], err),
			}
		}
	}
	return nil
}
