package api

import (
	"encoding/json"
	"net/http"
	"time"

	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/models/dtos"
	gormModels "prosocial/zen-core/internal/models/gorm"
	"prosocial/zen-core/internal/setup"
)

// ListRulesHandler handles GET /api/v1/admin/setup/rules
func ListRulesHandler(svc *setup.RuleRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		rules, err := svc.ListAllRules(r.Context())
		if err != nil {
			handleSetupError(w, initTime, err)
			return
		}

		payload := make([]dtos.SectionRuleDTO, 0, len(rules))
		for _, rule := range rules {
			payload = append(payload, ruleDTO(rule))
		}

		common.RespondSuccess(w, initTime, "Section rules fetched", payload)
	}
}

// UpsertRuleHandler handles POST /api/v1/admin/setup/rules
func UpsertRuleHandler(svc *setup.RuleRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.SectionRuleDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}

		rule := &gormModels.SectionRule{
			SectionID:      req.SectionID,
			Title:          req.Title,
			RequiredFields: req.RequiredFields,
			OptionalFields: req.OptionalFields,
			Dependencies:   req.Dependencies,
			Weight:         req.Weight,
			Position:       req.Position,
			IsActive:       req.IsActive,
		}

		if err := svc.UpsertRule(r.Context(), rule); err != nil {
			handleSetupError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Section rule saved", ruleDTO(*rule))
	}
}

func ruleDTO(rule gormModels.SectionRule) dtos.SectionRuleDTO {
	return dtos.SectionRuleDTO{
		SectionID:      rule.SectionID,
		Title:          rule.Title,
		RequiredFields: rule.RequiredFields,
		OptionalFields: rule.OptionalFields,
		Dependencies:   rule.Dependencies,
		Weight:         rule.Weight,
		Position:       rule.Position,
		IsActive:       rule.IsActive,
	}
}
