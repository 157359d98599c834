package setup

import (
	"context"
	"errors"
	"testing"

	gormModels "prosocial/zen-core/internal/models/gorm"
)

// fakeStudioReader backs the extractor with canned rows
type fakeStudioReader struct {
	studio       *gormModels.Studio
	settings     map[string]string
	catalogCount int64
	getErr       error

	settingsCalls int
	catalogCalls  int
}

func (f *fakeStudioReader) GetByID(ctx context.Context, studioID string) (*gormModels.Studio, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.studio, nil
}

func (f *fakeStudioReader) GetSettings(ctx context.Context, studioID string) (map[string]string, error) {
	f.settingsCalls++
	return f.settings, nil
}

func (f *fakeStudioReader) CountActiveCatalogItems(ctx context.Context, studioID string) (int64, error) {
	f.catalogCalls++
	return f.catalogCount, nil
}

func ptr[T any](v T) *T { return &v }

func TestExtractFields_ColumnsAndPresence(t *testing.T) {
	reader := &fakeStudioReader{
		studio: &gormModels.Studio{
			ID:        "s1",
			Slug:      "atelier-luz",
			Name:      "Atelier Luz",
			LogoURL:   ptr("https://cdn.zen.mx/logo.png"),
			Slogan:    ptr("   "), // whitespace only: not present
			BasePrice: ptr(1500.0),
		},
	}
	x := NewStudioFieldExtractor(reader)

	fields, err := x.ExtractFields(context.Background(), "s1",
		[]string{"name", "logoUrl", "slogan", "email", "basePrice"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cases := map[string]bool{
		"name":      true,
		"logoUrl":   true,
		"slogan":    false,
		"email":     false,
		"basePrice": true,
	}
	for name, wantPresent := range cases {
		if fields[name].Present != wantPresent {
			t.Errorf("Field %s: expected present=%v, got %v", name, wantPresent, fields[name].Present)
		}
	}
	if fields["basePrice"].Value != 1500.0 {
		t.Errorf("Expected basePrice value, got %v", fields["basePrice"].Value)
	}
}

func TestExtractFields_SettingsFallback(t *testing.T) {
	reader := &fakeStudioReader{
		studio: &gormModels.Studio{ID: "s1", Name: "Atelier Luz"},
		settings: map[string]string{
			"paymentTerms": "50% anticipo",
		},
	}
	x := NewStudioFieldExtractor(reader)

	fields, err := x.ExtractFields(context.Background(), "s1",
		[]string{"paymentTerms", "cancellationPolicy"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !fields["paymentTerms"].Present {
		t.Error("Expected paymentTerms present from settings")
	}
	if fields["cancellationPolicy"].Present {
		t.Error("Expected missing setting to be absent")
	}
	if reader.settingsCalls != 1 {
		t.Errorf("Settings must be fetched once per extraction, got %d calls", reader.settingsCalls)
	}
}

func TestExtractFields_ActiveServicesVirtualField(t *testing.T) {
	reader := &fakeStudioReader{
		studio:       &gormModels.Studio{ID: "s1", Name: "Atelier Luz"},
		catalogCount: 3,
	}
	x := NewStudioFieldExtractor(reader)

	fields, err := x.ExtractFields(context.Background(), "s1", []string{"activeServices"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !fields["activeServices"].Present {
		t.Error("Expected activeServices present with 3 catalog items")
	}

	reader.catalogCount = 0
	fields, err = x.ExtractFields(context.Background(), "s1", []string{"activeServices"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fields["activeServices"].Present {
		t.Error("Expected activeServices absent with an empty catalog")
	}
}

func TestExtractFields_UnknownStudio(t *testing.T) {
	x := NewStudioFieldExtractor(&fakeStudioReader{})

	_, err := x.ExtractFields(context.Background(), "ghost", []string{"name"})
	if err == nil {
		t.Fatal("Expected an error for an unknown studio")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected not-found, got %v", err)
	}
}

func TestExtractFields_ReaderErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	x := NewStudioFieldExtractor(&fakeStudioReader{getErr: boom})

	_, err := x.ExtractFields(context.Background(), "s1", []string{"name"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected reader error to propagate, got %v", err)
	}
}
