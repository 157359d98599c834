package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// SectionSnapshot is the persisted evaluation result for one section.
// Stored inside the aggregate row's jsonb sections column.
type SectionSnapshot struct {
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

// SectionSnapshotList is the jsonb column type holding the ordered sections
type SectionSnapshotList []SectionSnapshot

// Scan implements the sql.Scanner interface for SectionSnapshotList
func (l *SectionSnapshotList) Scan(value interface{}) error {
	if value == nil {
		*l = SectionSnapshotList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	var result []SectionSnapshot
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*l = result
	return nil
}

// Value implements the driver.Valuer interface for SectionSnapshotList
func (l SectionSnapshotList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]SectionSnapshot{})
	}
	return json.Marshal([]SectionSnapshot(l))
}

// StudioSetupStatus is the persisted aggregate, one row per studio,
// overwritten atomically on every revalidation
type StudioSetupStatus struct {
	ID                string              `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	StudioID          string              `gorm:"column:studio_id;type:uuid;not null;uniqueIndex"`
	Sections          SectionSnapshotList `gorm:"column:sections;type:jsonb"`
	OverallProgress   int                 `gorm:"column:overall_progress;not null"`
	IsFullyConfigured bool                `gorm:"column:is_fully_configured;default:false"`
	LastValidatedAt   time.Time           `gorm:"column:last_validated_at;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (StudioSetupStatus) TableName() string {
	return "studio_setup_statuses"
}
