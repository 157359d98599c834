package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"prosocial/zen-core/internal/auth"
	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/constants"
	"prosocial/zen-core/internal/models/dtos"
	"prosocial/zen-core/internal/models/entities"
	gormModels "prosocial/zen-core/internal/models/gorm"
	"prosocial/zen-core/internal/setup"
)

// GetSetupStatusHandler handles GET /api/studio/{slug}/setup-status
func GetSetupStatusHandler(svc *setup.SetupStatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		slug := chi.URLParam(r, "slug")

		result, err := svc.GetOrCompute(r.Context(), slug, false)
		if err != nil {
			handleSetupError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Setup status fetched", buildSetupStatusData(result))
	}
}

// RevalidateSetupStatusHandler handles POST /api/studio/{slug}/setup-status
func RevalidateSetupStatusHandler(svc *setup.SetupStatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		slug := chi.URLParam(r, "slug")

		claims := auth.GetStudioClaims(r.Context())
		if claims == nil || !claims.CanManageStudio(slug) {
			common.RespondError(w, initTime, nil, "Forbidden for this studio", http.StatusForbidden)
			return
		}

		var req dtos.RevalidateRequest
		if r.Body != nil {
			// An empty body means force=false
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		result, err := svc.GetOrCompute(r.Context(), slug, req.Force)
		if err != nil {
			handleSetupError(w, initTime, err)
			return
		}

		message := constants.MsgRevalidationDone
		if !result.Recomputed {
			message = constants.MsgRevalidationSkipped
		}

		common.RespondSuccess(w, initTime, message, dtos.RevalidateData{
			OverallProgress:   result.Status.OverallProgress,
			IsFullyConfigured: result.Status.IsFullyConfigured,
			LastValidatedAt:   result.Status.LastValidatedAt,
		})
	}
}

// GetProgressLogHandler handles GET /api/studio/{slug}/setup-status/log
func GetProgressLogHandler(svc *setup.SetupStatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		slug := chi.URLParam(r, "slug")

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		entries, err := svc.GetProgressLog(r.Context(), slug, limit)
		if err != nil {
			handleSetupError(w, initTime, err)
			return
		}

		payload := make([]dtos.ProgressLogEntryDTO, 0, len(entries))
		for _, e := range entries {
			payload = append(payload, buildLogEntryDTO(e))
		}

		common.RespondSuccess(w, initTime, "Progress log fetched", payload)
	}
}

// handleSetupError maps setup errors to HTTP responses
func handleSetupError(w http.ResponseWriter, initTime time.Time, err error) {
	var validationErr *setup.ValidationError
	if errors.As(err, &validationErr) {
		common.RespondError(w, initTime, err, constants.GetErrorMessage(validationErr.Code), http.StatusUnprocessableEntity)
		return
	}

	var accessErr *setup.DataAccessError
	if errors.As(err, &accessErr) {
		status := http.StatusInternalServerError
		if setup.IsNotFound(err) {
			status = http.StatusNotFound
		}
		common.RespondError(w, initTime, err, constants.GetErrorMessage(accessErr.Code), status)
		return
	}

	common.RespondError(w, initTime, err, "An unexpected error occurred", http.StatusInternalServerError)
}

func buildSetupStatusData(result *setup.Result) dtos.SetupStatusData {
	sections := make([]dtos.SectionStatusDTO, 0, len(result.Status.Sections))
	for _, snap := range result.Status.Sections {
		sections = append(sections, sectionDTO(snap))
	}

	return dtos.SetupStatusData{
		Project: dtos.ProjectSummary{
			ID:   result.Studio.ID,
			Slug: result.Studio.Slug,
			Name: result.Studio.Name,
		},
		OverallProgress:   result.Status.OverallProgress,
		IsFullyConfigured: result.Status.IsFullyConfigured,
		Sections:          sections,
		LastValidatedAt:   result.Status.LastValidatedAt,
	}
}

func sectionDTO(snap gormModels.SectionSnapshot) dtos.SectionStatusDTO {
	return dtos.SectionStatusDTO{
		SectionID:            snap.SectionID,
		Title:                snap.Title,
		Status:               snap.Status,
		CompletionPercentage: snap.CompletionPercentage,
		CompletedFields:      snap.CompletedFields,
		MissingFields:        snap.MissingFields,
		Errors:               snap.Errors,
		CompletedAt:          snap.CompletedAt,
		LastUpdatedAt:        snap.LastUpdatedAt,
	}
}

func buildLogEntryDTO(e entities.SetupProgressLog) dtos.ProgressLogEntryDTO {
	var metadata map[string]any
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return dtos.ProgressLogEntryDTO{
		ID:             e.ID,
		SectionID:      e.SectionID,
		EventType:      e.EventType,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
	}
}
