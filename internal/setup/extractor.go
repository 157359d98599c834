package setup

import (
	"context"
	"strings"

	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/logging"
	gormModels "prosocial/zen-core/internal/models/gorm"
)

// FieldValue is the extracted state of one configuration field
type FieldValue struct {
	Present bool
	Value   any
}

// FieldExtractor is the seam to the tenant data store. Implementations
// resolve field names to whatever tables back them.
type FieldExtractor interface {
	// ExtractFields returns presence and raw value for every requested
	// field. It must fail for an unknown studio rather than return a
	// partial result.
	ExtractFields(ctx context.Context, studioID string, fieldNames []string) (map[string]FieldValue, error)
}

// StudioReader is the slice of the studio repository the extractor needs
type StudioReader interface {
	GetByID(ctx context.Context, studioID string) (*gormModels.Studio, error)
	GetSettings(ctx context.Context, studioID string) (map[string]string, error)
	CountActiveCatalogItems(ctx context.Context, studioID string) (int64, error)
}

// StudioFieldExtractor resolves field names against the studios table,
// the studio_settings key/value table, and derived catalog counts
type StudioFieldExtractor struct {
	studios StudioReader
}

func NewStudioFieldExtractor(studios StudioReader) *StudioFieldExtractor {
	return &StudioFieldExtractor{studios: studios}
}

// Virtual fields derived from related tables rather than studio columns
const fieldActiveServices = "activeServices"

func (x *StudioFieldExtractor) ExtractFields(ctx context.Context, studioID string, fieldNames []string) (map[string]FieldValue, error) {
	studio, err := x.studios.GetByID(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if studio == nil {
		return nil, NewNotFoundError(studioID)
	}

	columns := studioColumnValues(studio)

	var settings map[string]string
	var catalogCount int64
	catalogLoaded := false

	result := make(map[string]FieldValue, len(fieldNames))
	for _, name := range fieldNames {
		if v, ok := columns[name]; ok {
			result[name] = v
			continue
		}

		if name == fieldActiveServices {
			if !catalogLoaded {
				catalogCount, err = x.studios.CountActiveCatalogItems(ctx, studioID)
				if err != nil {
					return nil, err
				}
				catalogLoaded = true
			}
			result[name] = FieldValue{Present: catalogCount > 0, Value: catalogCount}
			continue
		}

		// Fall back to the key/value settings table
		if settings == nil {
			settings, err = x.studios.GetSettings(ctx, studioID)
			if err != nil {
				return nil, err
			}
			logging.Debug("Loaded studio settings",
				"studio_id", studioID,
				"keys", common.GetKeysStringMap(settings),
			)
		}
		result[name] = stringField(settings[name])
	}

	return result, nil
}

// studioColumnValues maps field names to their studio column values
func studioColumnValues(s *gormModels.Studio) map[string]FieldValue {
	return map[string]FieldValue{
		"name":              stringField(s.Name),
		"slug":              stringField(s.Slug),
		"slogan":            stringPtrField(s.Slogan),
		"description":       stringPtrField(s.Description),
		"logoUrl":           stringPtrField(s.LogoURL),
		"email":             stringPtrField(s.Email),
		"phone":             stringPtrField(s.Phone),
		"website":           stringPtrField(s.Website),
		"address":           stringPtrField(s.Address),
		"instagramUrl":      stringPtrField(s.InstagramURL),
		"facebookUrl":       stringPtrField(s.FacebookURL),
		"basePrice":         floatPtrField(s.BasePrice),
		"advancePercentage": floatPtrField(s.AdvancePercentage),
		"standardHours":     floatPtrField(s.StandardHours),
	}
}

// A string field counts present only when non-empty after trimming
func stringField(v string) FieldValue {
	trimmed := strings.TrimSpace(v)
	return FieldValue{Present: trimmed != "", Value: trimmed}
}

func stringPtrField(v *string) FieldValue {
	if v == nil {
		return FieldValue{}
	}
	return stringField(*v)
}

func floatPtrField(v *float64) FieldValue {
	if v == nil {
		return FieldValue{}
	}
	return FieldValue{Present: true, Value: *v}
}
