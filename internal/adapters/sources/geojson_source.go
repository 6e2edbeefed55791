package sources

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"

	"github.com/paulmach/orb/geojson"
)

// GeoJSONSource reads a FeatureCollection file.
type GeoJSONSource struct {
	Path string
}

func NewGeoJSONSource(path string) *GeoJSONSource {
	return &GeoJSONSource{Path: path}
}

var _ ports.FeatureSource = (*GeoJSONSource)(nil)

func (s *GeoJSONSource) LoadFeatures(ctx context.Context) (_ []domain.Feature, err error) {
	defer obs.Time(ctx, "geojson.LoadFeatures")(&err)

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load geojson %q: %w", s.Path, err)
	}
	defer f.Close()

	features, err := ReadGeoJSON(f)
	if err != nil {
		return nil, fmt.Errorf("load geojson %q: %w", s.Path, err)
	}
	return features, nil
}

// ReadGeoJSON decodes a FeatureCollection into features, keeping source
// order. Features without geometry are skipped.
func ReadGeoJSON(r io.Reader) ([]domain.Feature, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return FromFeatureCollection(fc), nil
}

// FromFeatureCollection converts decoded GeoJSON features.
func FromFeatureCollection(fc *geojson.FeatureCollection) []domain.Feature {
	if fc == nil {
		return nil
	}

	out := make([]domain.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		out = append(out, domain.Feature{
			Geometry:   f.Geometry,
			Attributes: domain.Attributes(maps.Clone(map[string]any(f.Properties))),
		})
	}
	return out
}

// ServiceAreaCollection encodes service areas with the five tier fields.
// Unlabeled areas carry null values.
func ServiceAreaCollection(areas []domain.ServiceArea) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range areas {
		f := geojson.NewFeature(a.Geometry)
		attrs := a.Attributes()
		for _, k := range domain.OutputFields {
			f.Properties[k] = attrs[k]
		}
		fc.Append(f)
	}
	return fc
}
