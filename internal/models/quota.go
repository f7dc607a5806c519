package models

import "database/sql"

// QuotaCheck is the result of the check_video_generation_limit database
// function, consulted before every billable generation step.
type QuotaCheck struct {
	Allowed           bool
	Reason            string
	VideosGenerated   int
	VideosQuota       int
	PlanName          sql.NullString
	PlanDisplayName   sql.NullString
	CurrentPeriodEnd  sql.NullTime
	CancelAtPeriodEnd bool
}

// QuotaIncrement is the result of increment_video_generation_count, called
// exactly once after a billable operation fully succeeds.
type QuotaIncrement struct {
	Success     bool
	NewCount    int
	VideosQuota int
}
