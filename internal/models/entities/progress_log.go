package entities

import "time"

// SetupProgressLog is one immutable audit record in the append-only
// setup_progress_logs table. Inserted through the raw sqlx path so a
// logging failure never joins the status write's transaction.
type SetupProgressLog struct {
	ID             string     `db:"id"`
	StudioID       string     `db:"studio_id"`
	SectionID      *string    `db:"section_id"` // nil = aggregate-level event
	EventType      string     `db:"event_type"`
	PreviousStatus *string    `db:"previous_status"`
	NewStatus      *string    `db:"new_status"`
	Metadata       []byte     `db:"metadata"` // JSONB stored as bytes
	CreatedAt      time.Time  `db:"created_at"`
}
