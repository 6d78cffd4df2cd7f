package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduledScrapeInterval(t *testing.T) {
	assert.Equal(t, time.Hour, (&ScheduledScrape{Frequency: SCHEDULE_FREQ_HOURLY}).Interval())
	assert.Equal(t, 24*time.Hour, (&ScheduledScrape{Frequency: SCHEDULE_FREQ_DAILY}).Interval())
	assert.Equal(t, 7*24*time.Hour, (&ScheduledScrape{Frequency: SCHEDULE_FREQ_WEEKLY}).Interval())
	// unknown frequency falls back to daily
	assert.Equal(t, 24*time.Hour, (&ScheduledScrape{Frequency: "fortnightly"}).Interval())
}

func TestScheduledScrapeIsDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	inactive := &ScheduledScrape{IsActive: false, NextRunAt: &past}
	assert.False(t, inactive.IsDue(now))

	neverRun := &ScheduledScrape{IsActive: true}
	assert.True(t, neverRun.IsDue(now))

	due := &ScheduledScrape{IsActive: true, NextRunAt: &past}
	assert.True(t, due.IsDue(now))

	notYet := &ScheduledScrape{IsActive: true, NextRunAt: &future}
	assert.False(t, notYet.IsDue(now))
}
