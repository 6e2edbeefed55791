package geo

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// ClipLines returns the portions of the linear parts of g that lie inside
// mask, split where they leave and re-enter it.
func ClipLines(g orb.Geometry, mask orb.MultiPolygon) orb.MultiLineString {
	if len(mask) == 0 || g == nil {
		return nil
	}

	bound := mask.Bound()
	lines := clip.MultiLineString(bound, orb.MultiLineString(Lines(g)))
	if len(lines) == 0 {
		return nil
	}

	edges := ringSegments(mask)

	var out orb.MultiLineString
	for _, ls := range lines {
		out = append(out, clipLine(ls, mask, edges)...)
	}
	return out
}

type seg struct{ a, b orb.Point }

func ringSegments(mp orb.MultiPolygon) []seg {
	var out []seg
	for _, poly := range mp {
		for _, r := range poly {
			for i := 0; i < len(r)-1; i++ {
				out = append(out, seg{r[i], r[i+1]})
			}
		}
	}
	return out
}

func clipLine(ls orb.LineString, mask orb.MultiPolygon, edges []seg) orb.MultiLineString {
	var (
		out  orb.MultiLineString
		cur  orb.LineString
		emit = func() {
			if len(cur) >= 2 {
				out = append(out, cur)
			}
			cur = nil
		}
	)

	for i := 0; i < len(ls)-1; i++ {
		a, b := ls[i], ls[i+1]
		if a == b {
			continue
		}

		ts := []float64{0, 1}
		for _, e := range edges {
			if t, ok := segmentParam(a, b, e.a, e.b); ok {
				ts = append(ts, t)
			}
		}
		slices.SortFunc(ts, cmp.Compare[float64])
		ts = slices.Compact(ts)

		for j := 0; j < len(ts)-1; j++ {
			p, q := lerp(a, b, ts[j]), lerp(a, b, ts[j+1])
			if p == q {
				continue
			}
			if !planar.MultiPolygonContains(mask, lerp(a, b, (ts[j]+ts[j+1])/2)) {
				emit()
				continue
			}
			if len(cur) == 0 || cur[len(cur)-1] != p {
				emit()
				cur = orb.LineString{p}
			}
			cur = append(cur, q)
		}
	}
	emit()

	return out
}

// segmentParam returns the parameter along ab where it properly crosses cd.
func segmentParam(a, b, c, d orb.Point) (float64, bool) {
	r := orb.Point{b[0] - a[0], b[1] - a[1]}
	s := orb.Point{d[0] - c[0], d[1] - c[1]}
	denom := r[0]*s[1] - r[1]*s[0]
	if denom == 0 {
		return 0, false
	}
	w := orb.Point{c[0] - a[0], c[1] - a[1]}
	t := (w[0]*s[1] - w[1]*s[0]) / denom
	u := (w[0]*r[1] - w[1]*r[0]) / denom
	if t <= 0 || t >= 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func lerp(a, b orb.Point, t float64) orb.Point {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}
