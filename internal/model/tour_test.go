package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTourBookable(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := "10:00"

	assert.True(t, Tour{Status: TourStatusActive, ScheduledDate: &date, StartTime: &start}.Bookable())
	assert.False(t, Tour{Status: TourStatusDeleted, ScheduledDate: &date, StartTime: &start}.Bookable())
	assert.False(t, Tour{Status: TourStatusActive, StartTime: &start}.Bookable())
	assert.False(t, Tour{Status: TourStatusActive, ScheduledDate: &date}.Bookable())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("TRAVELER")
	assert.True(t, ok)
	assert.Equal(t, RoleTraveler, r)

	r, ok = ParseRole("GUIDE")
	assert.True(t, ok)
	assert.Equal(t, RoleGuide, r)

	_, ok = ParseRole("ADMIN")
	assert.False(t, ok)
}
