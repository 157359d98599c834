package dtos

import "time"

// SectionStatusDTO is one section's evaluation result as returned to the frontend
type SectionStatusDTO struct {
	SectionID            string     `json:"sectionId"`
	Title                string     `json:"title,omitempty"`
	Status               string     `json:"status"`
	CompletionPercentage int        `json:"completionPercentage"`
	CompletedFields      []string   `json:"completedFields"`
	MissingFields        []string   `json:"missingFields"`
	Errors               []string   `json:"errors,omitempty"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	LastUpdatedAt        time.Time  `json:"lastUpdatedAt"`
}

// SetupStatusData is the data payload for GET /api/studio/{slug}/setup-status
type SetupStatusData struct {
	Project           ProjectSummary     `json:"project"`
	OverallProgress   int                `json:"overallProgress"`
	IsFullyConfigured bool               `json:"isFullyConfigured"`
	Sections          []SectionStatusDTO `json:"sections"`
	LastValidatedAt   time.Time          `json:"lastValidatedAt"`
}

// ProjectSummary identifies the studio the status belongs to
type ProjectSummary struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// RevalidateRequest is the body for POST /api/studio/{slug}/setup-status
type RevalidateRequest struct {
	Force bool `json:"force"`
}

// RevalidateData is the data payload returned after a revalidation
type RevalidateData struct {
	OverallProgress   int       `json:"overallProgress"`
	IsFullyConfigured bool      `json:"isFullyConfigured"`
	LastValidatedAt   time.Time `json:"lastValidatedAt"`
}

// SectionRuleDTO is the admin-facing rule representation
type SectionRuleDTO struct {
	SectionID      string   `json:"sectionId"`
	Title          string   `json:"title,omitempty"`
	RequiredFields []string `json:"requiredFields"`
	OptionalFields []string `json:"optionalFields,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
	Weight         float64  `json:"weight"`
	Position       int      `json:"position"`
	IsActive       bool     `json:"isActive"`
}

// ProgressLogEntryDTO is one audit entry as returned by the log endpoint
type ProgressLogEntryDTO struct {
	ID             string         `json:"id"`
	SectionID      *string        `json:"sectionId,omitempty"`
	EventType      string         `json:"eventType"`
	PreviousStatus *string        `json:"previousStatus,omitempty"`
	NewStatus      *string        `json:"newStatus,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
