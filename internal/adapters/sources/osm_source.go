package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
)

// OSMSource reads the drivable ways of an OSM XML extract as a road
// network in lon/lat.
type OSMSource struct {
	Path string
}

func NewOSMSource(path string) *OSMSource {
	return &OSMSource{Path: path}
}

var _ ports.FeatureSource = (*OSMSource)(nil)

// highway values that never carry cars.
var nonDrivable = map[string]bool{
	"footway":      true,
	"path":         true,
	"cycleway":     true,
	"bridleway":    true,
	"steps":        true,
	"pedestrian":   true,
	"track":        true,
	"construction": true,
	"proposed":     true,
	"corridor":     true,
}

func (s *OSMSource) LoadFeatures(ctx context.Context) (_ []domain.Feature, err error) {
	defer obs.Time(ctx, "osm.LoadFeatures")(&err)

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load osm %q: %w", s.Path, err)
	}
	defer f.Close()

	network, err := ReadOSMRoadNetwork(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load osm %q: %w", s.Path, err)
	}
	return network, nil
}

// ReadOSMRoadNetwork keeps ways tagged highway=* that cars can use. Nodes
// must precede the ways that reference them, as in standard extracts.
// Way nodes missing from the file are skipped.
func ReadOSMRoadNetwork(ctx context.Context, r io.Reader) (domain.RoadNetwork, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	nodes := make(map[osm.NodeID]orb.Point)
	var out domain.RoadNetwork
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = o.Point()
		case *osm.Way:
			highway := o.Tags.Find("highway")
			if highway == "" || nonDrivable[highway] {
				continue
			}

			ls := make(orb.LineString, 0, len(o.Nodes))
			for _, wn := range o.Nodes {
				if p, ok := nodes[wn.ID]; ok {
					ls = append(ls, p)
				}
			}
			if len(ls) < 2 {
				continue
			}

			attrs := domain.Attributes{
				"osm_id":  int64(o.ID),
				"highway": highway,
			}
			if name := o.Tags.Find("name"); name != "" {
				attrs["name"] = name
			}
			out = append(out, domain.Feature{Geometry: ls, Attributes: attrs})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm xml: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
