package isochrone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"servicearea-service/internal/domain"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type isochroneRequest struct {
	Locations [][]float64 `json:"locations"`
	Range     []float64   `json:"range"`
	RangeType string      `json:"range_type"`
	Interval  float64     `json:"interval"`
	Units     string      `json:"units,omitempty"`
}

// fetchIsochrones retrieves the bands around up to five locations. The
// result holds one slice per location, in location order, each sorted by
// cost level with geometry in WGS84.
func (o *ORSIsochroneEngine) fetchIsochrones(
	ctx context.Context,
	locations []orb.Point,
	rs rangeSpec,
) ([][]domain.IsochronePolygon, error) {
	if len(locations) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v2/isochrones/%s", o.baseURL, o.profile)

	locs := make([][]float64, len(locations))
	for i, p := range locations {
		locs[i] = []float64{p[0], p[1]}
	}

	bodyObj := isochroneRequest{
		Locations: locs,
		Range:     rs.boundaries(),
		RangeType: rs.Type,
		Interval:  rs.Step,
	}
	if rs.Type == "distance" {
		bodyObj.Units = "m"
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal isochrone request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return o.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return nil, fmt.Errorf("isochrone request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read isochrone response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode isochrone response: %w", err)
	}

	out := make([][]domain.IsochronePolygon, len(locations))
	for i, f := range fc.Features {
		group, ok := numberProperty(f.Properties, "group_index")
		if !ok || int(group) < 0 || int(group) >= len(locations) {
			return nil, fmt.Errorf("feature %d: invalid group_index %v", i, f.Properties["group_index"])
		}
		value, ok := numberProperty(f.Properties, "value")
		if !ok {
			return nil, fmt.Errorf("feature %d: missing value", i)
		}

		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return nil, fmt.Errorf("feature %d: unexpected geometry %T", i, f.Geometry)
		}

		out[int(group)] = append(out[int(group)], domain.IsochronePolygon{
			CostLevel: costLevel(value, rs.Step),
			Geometry:  mp,
		})
	}

	for _, bands := range out {
		sort.SliceStable(bands, func(a, b int) bool { return bands[a].CostLevel < bands[b].CostLevel })
	}

	return out, nil
}

func numberProperty(p geojson.Properties, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
