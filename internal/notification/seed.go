package notification

import "time"

// DefaultSeed is installed on the first dashboard load. Entries are ordered
// most recent first relative to now.
func DefaultSeed(now time.Time) []Notification {
	return []Notification{
		{Message: "Welcome to MedGate. Your dashboard is ready.", CreatedAt: now},
		{Message: "Flu vaccination clinics are open on level 2 this week.", CreatedAt: now.Add(-2 * time.Hour)},
		{Message: "Scheduled maintenance on Sunday 02:00-04:00 may affect records access.", CreatedAt: now.Add(-26 * time.Hour), Read: true},
	}
}
