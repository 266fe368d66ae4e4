package match

import (
	"sort"

	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/model"
)

// ClusterEdge is an undirected similarity edge between two observations in a
// batch, identified by their indices into the batch slice
type ClusterEdge struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight"`
}

// Cluster is one connected component of the batch similarity graph. Members
// are batch indices in batch order; a cluster with a single member means the
// observation had no within-batch coreference.
type Cluster struct {
	Members []int         `json:"members"`
	Edges   []ClusterEdge `json:"edges"`
}

// MaxIncidentWeight returns the strongest edge weight touching the given
// member, or 0 if the member has no edges
func (c *Cluster) MaxIncidentWeight(member int) float64 {
	best := 0.0
	for _, e := range c.Edges {
		if (e.A == member || e.B == member) && e.Weight > best {
			best = e.Weight
		}
	}
	return best
}

// BuildClusters builds the undirected similarity graph over a closed batch of
// observations and returns its connected components as coreference clusters.
// Edges only connect observations of the same type with similarity at or
// above the threshold; type equality is therefore an invariant of every
// non-trivial cluster. Components are ordered by their smallest member index.
func (e *Engine) BuildClusters(batch []*model.Observation) []Cluster {
	parent := make([]int, len(batch))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	var edges []ClusterEdge
	for i := 0; i < len(batch); i++ {
		if batch[i].Name == "" {
			continue
		}
		for j := i + 1; j < len(batch); j++ {
			if batch[j].Name == "" || batch[i].Type != batch[j].Type {
				continue
			}
			score := normalize.SimilarityNGram(batch[i].Name, batch[j].Name, e.config.NGramMin, e.config.NGramMax)
			if score >= e.config.SimilarityThreshold {
				edges = append(edges, ClusterEdge{A: i, B: j, Weight: score})
				union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	for i := range batch {
		root := find(i)
		members[root] = append(members[root], i)
	}

	clusterEdges := make(map[int][]ClusterEdge)
	for _, edge := range edges {
		root := find(edge.A)
		clusterEdges[root] = append(clusterEdges[root], edge)
	}

	roots := make([]int, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		return members[roots[i]][0] < members[roots[j]][0]
	})

	clusters := make([]Cluster, 0, len(roots))
	for _, root := range roots {
		clusters = append(clusters, Cluster{
			Members: members[root],
			Edges:   clusterEdges[root],
		})
	}

	return clusters
}
