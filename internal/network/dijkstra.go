package network

import (
	"container/heap"
	"math"
)

type item struct {
	node int
	cost float64
}

type costQueue []item

func (q costQueue) Len() int           { return len(q) }
func (q costQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q costQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *costQueue) Push(x any)        { *q = append(*q, x.(item)) }
func (q *costQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// ShortestCosts runs Dijkstra from several sources, each with a starting
// cost. weight maps an edge length to its traversal cost. Nodes costlier
// than maxCost are left at +Inf.
func (g *Graph) ShortestCosts(sources map[int]float64, maxCost float64, weight func(length float64) float64) []float64 {
	dist := make([]float64, len(g.Nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	q := &costQueue{}
	for n, c := range sources {
		if c <= maxCost && c < dist[n] {
			dist[n] = c
			heap.Push(q, item{node: n, cost: c})
		}
	}

	for q.Len() > 0 {
		it := heap.Pop(q).(item)
		if it.cost > dist[it.node] {
			continue
		}
		for _, e := range g.Adj[it.node] {
			c := it.cost + weight(e.Length)
			if c > maxCost || c >= dist[e.To] {
				continue
			}
			dist[e.To] = c
			heap.Push(q, item{node: e.To, cost: c})
		}
	}
	return dist
}
