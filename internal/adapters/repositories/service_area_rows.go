package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/ports"
)

// paramsRecord is the params_json column.
type paramsRecord struct {
	TierCount    int     `json:"tier_count"`
	MilesPerTier float64 `json:"miles_per_tier"`
	TierMinimums *string `json:"tier_minimums"`
	AvgSpeed     int     `json:"avg_speed"`
	CellSize     int     `json:"cell_size"`
}

func encodeParams(p domain.Params) (string, error) {
	b, err := json.Marshal(paramsRecord{
		TierCount:    p.TierCount,
		MilesPerTier: p.MilesPerTier,
		TierMinimums: p.TierMinimums,
		AvgSpeed:     p.AvgSpeed,
		CellSize:     p.CellSize,
	})
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}

func decodeParams(raw []byte) (domain.Params, error) {
	var r paramsRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Params{}, fmt.Errorf("decode params: %w", err)
	}
	return domain.Params{
		TierCount:    r.TierCount,
		MilesPerTier: r.MilesPerTier,
		TierMinimums: r.TierMinimums,
		AvgSpeed:     r.AvgSpeed,
		CellSize:     r.CellSize,
	}, nil
}

// tierColumns holds the nullable tier columns of one service_areas row.
type tierColumns struct {
	Num      sql.NullInt64
	Name     sql.NullString
	OrderMin sql.NullString
	Miles    sql.NullFloat64
	Meters   sql.NullFloat64
}

func columnsFor(t *domain.TierSpec) tierColumns {
	if t == nil {
		return tierColumns{}
	}
	c := tierColumns{
		Num:    sql.NullInt64{Int64: int64(t.TierNum), Valid: true},
		Name:   sql.NullString{String: t.TierName, Valid: true},
		Miles:  sql.NullFloat64{Float64: t.TravelCostMi, Valid: true},
		Meters: sql.NullFloat64{Float64: t.TravelCostM, Valid: true},
	}
	if t.OrderMinimum != nil {
		c.OrderMin = sql.NullString{String: *t.OrderMinimum, Valid: true}
	}
	return c
}

func (c tierColumns) tier() *domain.TierSpec {
	if !c.Num.Valid {
		return nil
	}
	t := &domain.TierSpec{
		TierNum:      int(c.Num.Int64),
		TierName:     c.Name.String,
		TravelCostMi: c.Miles.Float64,
		TravelCostM:  c.Meters.Float64,
	}
	if c.OrderMin.Valid {
		v := c.OrderMin.String
		t.OrderMinimum = &v
	}
	return t
}

// finishRun fills the derived tier table of a loaded run.
func finishRun(run *ports.ServiceAreaRun) {
	specs, err := domain.BuildTierSpecs(run.Params.TierCount, run.Params.MilesPerTier, run.Params.TierMinimumList())
	if err == nil {
		run.TierSpecs = specs
	}
}
