package sources

import (
	"fmt"
	"path/filepath"
	"servicearea-service/internal/ports"
	"strings"
)

// Layer formats understood by Open.
const (
	FormatGeoJSON = "geojson"
	FormatOSM     = "osm"
)

// Open returns the source for a layer file. An empty format is taken from
// the file extension: .osm and .xml read OSM XML, anything else GeoJSON.
func Open(path, format string) (ports.FeatureSource, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".osm", ".xml":
			format = FormatOSM
		default:
			format = FormatGeoJSON
		}
	}

	switch strings.ToLower(format) {
	case FormatGeoJSON:
		return NewGeoJSONSource(path), nil
	case FormatOSM:
		return NewOSMSource(path), nil
	}
	return nil, fmt.Errorf("open source %q: unknown format %q", path, format)
}
