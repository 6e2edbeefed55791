package handlers

import (
	"servicearea-service/internal/adapters/sources"
	"servicearea-service/internal/api/dto"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/services"
)

func serviceAreaResponse(res services.Result) dto.ServiceAreaResponse {
	out := dto.ServiceAreaResponse{
		RunID:        res.RunID,
		TierSpecs:    tierSpecResponses(res.TierSpecs),
		SeedCount:    res.SeedCount,
		ServiceAreas: sources.ServiceAreaCollection(res.ServiceAreas),
	}
	if res.Intermediates != nil {
		out.Intermediates = dto.NewIntermediatesResponse(res.Intermediates)
	}
	return out
}

func tierSpecResponses(specs []domain.TierSpec) []dto.TierSpecResponse {
	out := make([]dto.TierSpecResponse, 0, len(specs))
	for _, s := range specs {
		out = append(out, dto.TierSpecResponse{
			TierNum:      s.TierNum,
			TierName:     s.TierName,
			TravelCostMi: s.TravelCostMi,
			TravelCostM:  s.TravelCostM,
			OrderMinimum: s.OrderMinimum,
		})
	}
	return out
}
