package gorm

import "time"

// SectionRule is the static descriptor for one onboarding section.
// Rules are configuration data maintained by platform administrators;
// the evaluator only ever reads them.
type SectionRule struct {
	SectionID      string     `gorm:"column:section_id;primaryKey;type:varchar(100)"`
	Title          string     `gorm:"column:title"`
	RequiredFields StringList `gorm:"column:required_fields;type:jsonb"`
	OptionalFields StringList `gorm:"column:optional_fields;type:jsonb"`
	Dependencies   StringList `gorm:"column:dependencies;type:jsonb"`
	Weight         float64    `gorm:"column:weight;type:numeric(8,2);not null"`
	Position       int        `gorm:"column:position;not null;index"`
	IsActive       bool       `gorm:"column:is_active;default:true;index"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SectionRule) TableName() string {
	return "section_rules"
}
