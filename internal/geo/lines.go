package geo

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
)

// Lines flattens the linear parts of g into single-part linestrings.
// Polygon rings count as lines; points are ignored.
func Lines(g orb.Geometry) []orb.LineString {
	var out []orb.LineString
	switch g := g.(type) {
	case orb.LineString:
		if len(g) >= 2 {
			out = append(out, g)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			out = append(out, Lines(ls)...)
		}
	case orb.Ring:
		out = append(out, Lines(orb.LineString(g))...)
	case orb.Polygon:
		for _, r := range g {
			out = append(out, Lines(r)...)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			out = append(out, Lines(p)...)
		}
	case orb.Collection:
		for _, c := range g {
			out = append(out, Lines(c)...)
		}
	}
	return out
}

// MergeLines sews lines together end to end wherever exactly two line ends
// meet. Lines are never merged through junctions of three or more ends.
// Closed chains of degree-two nodes come back as closed linestrings.
func MergeLines(lines []orb.LineString) []orb.LineString {
	type end struct {
		line    int
		atStart bool
	}

	nodes := make(map[orb.Point][]end)
	for i, ls := range lines {
		if len(ls) < 2 {
			continue
		}
		nodes[ls[0]] = append(nodes[ls[0]], end{i, true})
		nodes[ls[len(ls)-1]] = append(nodes[ls[len(ls)-1]], end{i, false})
	}

	used := make([]bool, len(lines))
	walk := func(i int, fromStart bool) orb.LineString {
		var merged orb.LineString
		for {
			used[i] = true
			ls := lines[i]
			if !fromStart {
				ls = reversed(ls)
			}
			if len(merged) == 0 {
				merged = append(merged, ls...)
			} else {
				merged = append(merged, ls[1:]...)
			}

			ends := nodes[merged[len(merged)-1]]
			if len(ends) != 2 {
				return merged
			}
			far := end{i, !fromStart}
			next := ends[0]
			if next == far {
				next = ends[1]
			}
			if used[next.line] {
				return merged
			}
			i, fromStart = next.line, next.atStart
		}
	}

	var out []orb.LineString
	for i, ls := range lines {
		if used[i] || len(ls) < 2 {
			continue
		}
		switch {
		case len(nodes[ls[0]]) != 2:
			out = append(out, walk(i, true))
		case len(nodes[ls[len(ls)-1]]) != 2:
			out = append(out, walk(i, false))
		}
	}
	for i, ls := range lines {
		if !used[i] && len(ls) >= 2 {
			out = append(out, walk(i, true))
		}
	}
	return out
}

func reversed(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}

// LineIntersections returns the junction points of a line set: every point
// where two lines (or two non-adjacent segments of one line) cross or touch.
// A line that meets no other line contributes its two end points instead,
// so an isolated road still yields junctions. Points are unique and come
// back in generation order.
func LineIntersections(lines []orb.LineString) []orb.Point {
	var pts []orb.Point
	seen := make(map[orb.Point]bool)
	add := func(p orb.Point) {
		if !seen[p] {
			seen[p] = true
			pts = append(pts, p)
		}
	}

	bounds := make([]orb.Bound, len(lines))
	order := make([]int, 0, len(lines))
	for i, ls := range lines {
		if len(ls) < 2 {
			continue
		}
		bounds[i] = ls.Bound()
		order = append(order, i)
	}

	crossed := make([]bool, len(lines))

	// Sweep over lines ordered by their left edge.
	sweep := slices.Clone(order)
	slices.SortStableFunc(sweep, func(x, y int) int { return cmp.Compare(bounds[x].Min[0], bounds[y].Min[0]) })

	for k, i := range sweep {
		if selfIntersections(lines[i], add) {
			crossed[i] = true
		}
		for _, j := range sweep[k+1:] {
			if bounds[j].Min[0] > bounds[i].Max[0] {
				break
			}
			if !bounds[i].Intersects(bounds[j]) {
				continue
			}
			a, b := lines[i], lines[j]
			if j < i {
				a, b = b, a
			}
			for s := 0; s < len(a)-1; s++ {
				for t := 0; t < len(b)-1; t++ {
					for _, p := range SegmentIntersections(a[s], a[s+1], b[t], b[t+1]) {
						crossed[i], crossed[j] = true, true
						add(p)
					}
				}
			}
		}
	}

	for _, i := range order {
		if !crossed[i] {
			add(lines[i][0])
			add(lines[i][len(lines[i])-1])
		}
	}
	return pts
}

func selfIntersections(ls orb.LineString, add func(orb.Point)) bool {
	found := false
	n := len(ls) - 1
	for s := 0; s < n; s++ {
		for t := s + 2; t < n; t++ {
			if s == 0 && t == n-1 && ls[0] == ls[n] {
				// a ring's closing vertex is not a crossing
				continue
			}
			for _, p := range SegmentIntersections(ls[s], ls[s+1], ls[t], ls[t+1]) {
				found = true
				add(p)
			}
		}
	}
	return found
}

// SegmentIntersections returns the points shared by segments ab and cd: the
// crossing point, or both ends of a collinear overlap.
func SegmentIntersections(a, b, c, d orb.Point) []orb.Point {
	r := orb.Point{b[0] - a[0], b[1] - a[1]}
	s := orb.Point{d[0] - c[0], d[1] - c[1]}
	w := orb.Point{c[0] - a[0], c[1] - a[1]}
	denom := crossP(r, s)

	if denom == 0 {
		if crossP(w, r) != 0 {
			return nil
		}
		rr := dotP(r, r)
		if rr == 0 {
			return nil
		}
		t0 := dotP(w, r) / rr
		t1 := t0 + dotP(s, r)/rr
		lo, hi := max(0, min(t0, t1)), min(1, max(t0, t1))
		switch {
		case lo > hi:
			return nil
		case lo == hi:
			return []orb.Point{lerp(a, b, lo)}
		}
		return []orb.Point{lerp(a, b, lo), lerp(a, b, hi)}
	}

	t := crossP(w, s) / denom
	u := crossP(w, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return nil
	}
	// Prefer exact input coordinates for touching ends.
	switch {
	case u == 0:
		return []orb.Point{c}
	case u == 1:
		return []orb.Point{d}
	}
	return []orb.Point{lerp(a, b, t)}
}

func crossP(p, q orb.Point) float64 { return p[0]*q[1] - p[1]*q[0] }
func dotP(p, q orb.Point) float64   { return p[0]*q[0] + p[1]*q[1] }
