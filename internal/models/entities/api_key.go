package entities

import "time"

// ApiKey is an admin API key row for the rule management endpoints
type ApiKey struct {
	ID        string    `db:"id"`
	Key       string    `db:"key"`
	Label     *string   `db:"label"`
	Status    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
