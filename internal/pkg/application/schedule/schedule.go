package schedule

import (
	"sort"
	"time"

	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/samber/lo"
)

// DayPlan returns the active prescriptions flagged for the given weekday,
// ordered by scheduled time. This backs the daily schedule view.
func DayPlan(prescriptions []types.Prescription, day time.Weekday) []types.Prescription {
	due := lo.Filter(prescriptions, func(p types.Prescription, _ int) bool {
		return p.Active && p.ScheduledOn(day)
	})

	// HH:MM strings order correctly lexicographically
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].ScheduledTime < due[j].ScheduledTime
	})

	return due
}

// NextDay and PreviousDay wrap around the week for the schedule's day
// navigation.
func NextDay(day time.Weekday) time.Weekday {
	return (day + 1) % 7
}

func PreviousDay(day time.Weekday) time.Weekday {
	return (day + 6) % 7
}
