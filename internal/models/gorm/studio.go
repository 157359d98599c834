package gorm

import "time"

// Studio represents one tenant studio on the platform
type Studio struct {
	ID                string     `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	Slug              string     `gorm:"column:slug;uniqueIndex;not null"`
	Name              string     `gorm:"column:name"`
	Slogan            *string    `gorm:"column:slogan"`
	Description       *string    `gorm:"column:description;type:text"`
	LogoURL           *string    `gorm:"column:logo_url;type:text"`
	Email             *string    `gorm:"column:email"`
	Phone             *string    `gorm:"column:phone;type:varchar(30)"`
	Website           *string    `gorm:"column:website;type:text"`
	Address           *string    `gorm:"column:address;type:text"`
	InstagramURL      *string    `gorm:"column:instagram_url;type:text"`
	FacebookURL       *string    `gorm:"column:facebook_url;type:text"`
	BasePrice         *float64   `gorm:"column:base_price;type:numeric(12,2)"`
	AdvancePercentage *float64   `gorm:"column:advance_percentage;type:numeric(5,2)"`
	StandardHours     *float64   `gorm:"column:standard_hours;type:numeric(6,2)"`
	IsActive          bool       `gorm:"column:is_active;default:true;index"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Settings     []StudioSetting `gorm:"foreignKey:StudioID"`
	CatalogItems []CatalogItem   `gorm:"foreignKey:StudioID"`
}

// TableName specifies the table name for GORM
func (Studio) TableName() string {
	return "studios"
}

// StudioSetting holds per-studio key/value configuration that has no
// first-class column on the studios table (payment terms, policies, ...)
type StudioSetting struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	StudioID  string    `gorm:"column:studio_id;type:uuid;not null;uniqueIndex:,composite:studio_setting_key_unique"`
	Key       string    `gorm:"column:key;type:varchar(100);not null;uniqueIndex:,composite:studio_setting_key_unique"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (StudioSetting) TableName() string {
	return "studio_settings"
}

// CatalogItem is one service offering in a studio's catalog
type CatalogItem struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	StudioID  string    `gorm:"column:studio_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Price     *float64  `gorm:"column:price;type:numeric(12,2)"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CatalogItem) TableName() string {
	return "catalog_items"
}
