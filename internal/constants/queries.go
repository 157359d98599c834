package constants

const (
	InsertProgressLog = `
	INSERT INTO setup_progress_logs
		(id, studio_id, section_id, event_type, previous_status, new_status, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	GetProgressLogsByStudio = `
	SELECT * FROM setup_progress_logs
	WHERE studio_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	GetStatusByApiKey = `
	SELECT * FROM api_keys WHERE key = $1
	`
)
