// Package graph turns a user's saved items into the knowledge graph shown
// on the dashboard: a fixed hub node, one node per item, and weighted edges
// between items that share a tag or a category.
package graph

import (
	"sort"
	"unicode/utf8"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// Hub node identity and sizing.
const (
	HubID    = "hub"
	HubTitle = "Your Brain"

	HubRadius  = 42.0
	ItemRadius = 28.0

	labelRunes = 22
)

// EdgeKind says why two nodes are connected.
type EdgeKind string

const (
	EdgeHub      EdgeKind = "hub"
	EdgeTag      EdgeKind = "tag"
	EdgeCategory EdgeKind = "category"
)

// Weights are the link strengths handed to the force simulation.
type Weights struct {
	Hub      float64 `json:"hub" yaml:"hub"`
	Tag      float64 `json:"tag" yaml:"tag"`
	Category float64 `json:"category" yaml:"category"`
}

// DefaultWeights match the strengths the dashboard was tuned with.
func DefaultWeights() Weights {
	return Weights{Hub: 0.3, Tag: 0.6, Category: 0.2}
}

// Node is a vertex of the knowledge graph.
type Node struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Label         string   `json:"label"`
	Category      string   `json:"category,omitempty"`
	ColorCategory string   `json:"color_category,omitempty"`
	SourceType    string   `json:"source_type,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Radius        float64  `json:"radius"`

	IsHub       bool `json:"is_hub"`
	Fixed       bool `json:"fixed"`
	Interactive bool `json:"interactive"`

	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

// Edge is an undirected weighted link between two nodes.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Strength float64  `json:"strength"`
	Kind     EdgeKind `json:"kind"`
}

// Graph is the Build output. Nodes[0] is always the hub.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Stats summarises a graph for logs and the API response.
type Stats struct {
	Nodes         int     `json:"nodes"`
	HubEdges      int     `json:"hub_edges"`
	TagEdges      int     `json:"tag_edges"`
	CategoryEdges int     `json:"category_edges"`
	Density       float64 `json:"density"`
}

// Stats counts edges by kind. Density only considers item-to-item edges.
func (g Graph) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes)}
	for _, e := range g.Edges {
		switch e.Kind {
		case EdgeHub:
			s.HubEdges++
		case EdgeTag:
			s.TagEdges++
		case EdgeCategory:
			s.CategoryEdges++
		}
	}
	items := len(g.Nodes) - 1
	if items > 1 {
		possible := float64(items*(items-1)) / 2
		s.Density = float64(s.TagEdges+s.CategoryEdges) / possible
	}
	return s
}

// ============================================================================
// BUILD OPTIONS
// ============================================================================

// IndexThreshold is the item count above which Build buckets items instead
// of comparing every pair.
const IndexThreshold = 200

type buildConfig struct {
	weights   Weights
	threshold int
	indexed   *bool
	width     float64
	height    float64
}

// Option tunes Build.
type Option func(*buildConfig)

// WithWeights overrides the edge strengths.
func WithWeights(w Weights) Option {
	return func(c *buildConfig) { c.weights = w }
}

// WithIndexedPairs forces the bucketed pair strategy.
func WithIndexedPairs() Option {
	return func(c *buildConfig) {
		on := true
		c.indexed = &on
	}
}

// WithPairwiseScan forces the plain O(n²) pair strategy.
func WithPairwiseScan() Option {
	return func(c *buildConfig) {
		off := false
		c.indexed = &off
	}
}

// WithCanvas sets the canvas the hub is pinned to the centre of.
func WithCanvas(width, height float64) Option {
	return func(c *buildConfig) {
		c.width = width
		c.height = height
	}
}

// WithIndexThreshold changes the size at which bucketing kicks in.
func WithIndexThreshold(n int) Option {
	return func(c *buildConfig) { c.threshold = n }
}

// ============================================================================
// BUILD
// ============================================================================

// Build creates the knowledge graph for items. It never fails and does not
// modify its input.
func Build(items []domain.SavedItem, opts ...Option) Graph {
	force := DefaultForceConfig()
	cfg := buildConfig{
		weights:   DefaultWeights(),
		threshold: IndexThreshold,
		width:     force.Width,
		height:    force.Height,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	nodes := make([]Node, 0, len(items)+1)
	nodes = append(nodes, hubNode(cfg.width/2, cfg.height/2))
	for _, item := range items {
		nodes = append(nodes, itemNode(item))
	}

	edges := make([]Edge, 0, len(items)*2)
	for _, n := range nodes[1:] {
		edges = append(edges, Edge{Source: HubID, Target: n.ID, Strength: cfg.weights.Hub, Kind: EdgeHub})
	}

	indexed := len(items) > cfg.threshold
	if cfg.indexed != nil {
		indexed = *cfg.indexed
	}

	itemNodes := nodes[1:]
	if indexed {
		edges = append(edges, indexedPairs(itemNodes, cfg.weights)...)
	} else {
		edges = append(edges, scanPairs(itemNodes, cfg.weights)...)
	}

	return Graph{Nodes: nodes, Edges: edges}
}

// hubNode is pinned at (cx, cy) whether or not Layout runs.
func hubNode(cx, cy float64) Node {
	return Node{
		ID:     HubID,
		Title:  HubTitle,
		Label:  HubTitle,
		Radius: HubRadius,
		IsHub:  true,
		Fixed:  true,
		X:      cx,
		Y:      cy,
		FX:     &cx,
		FY:     &cy,
	}
}

func itemNode(item domain.SavedItem) Node {
	category := string(item.Category)
	if category == "" {
		category = string(domain.CategoryOther)
	}
	source := string(item.SourceType)
	if source == "" || source == "text" {
		source = string(domain.SourceNote)
	}
	tags := append([]string{}, item.Tags...)
	title := item.DisplayTitle()

	return Node{
		ID:            item.ID,
		Title:         title,
		Label:         truncateLabel(title),
		Category:      category,
		ColorCategory: string(domain.NormalizeCategory(category)),
		SourceType:    source,
		Tags:          tags,
		Summary:       item.Summary,
		Radius:        ItemRadius,
		Interactive:   true,
	}
}

func truncateLabel(title string) string {
	if utf8.RuneCountInString(title) <= labelRunes {
		return title
	}
	r := []rune(title)
	return string(r[:labelRunes]) + "..."
}

// pairEdge decides the link between two item nodes. Category comparison is
// raw string equality, so two items carrying the same unknown category
// still group together.
func pairEdge(a, b Node, w Weights) (Edge, bool) {
	if sharesTag(a.Tags, b.Tags) {
		return Edge{Source: a.ID, Target: b.ID, Strength: w.Tag, Kind: EdgeTag}, true
	}
	if a.Category == b.Category {
		return Edge{Source: a.ID, Target: b.ID, Strength: w.Category, Kind: EdgeCategory}, true
	}
	return Edge{}, false
}

func sharesTag(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func scanPairs(nodes []Node, w Weights) []Edge {
	var edges []Edge
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if e, ok := pairEdge(nodes[i], nodes[j], w); ok {
				edges = append(edges, e)
			}
		}
	}
	return edges
}

// indexedPairs finds the same edges as scanPairs by only looking at items
// that share a tag bucket or a category bucket, then restores scan order.
func indexedPairs(nodes []Node, w Weights) []Edge {
	type pair struct{ i, j int }

	byTag := make(map[string][]int)
	byCategory := make(map[string][]int)
	for idx, n := range nodes {
		seen := make(map[string]struct{}, len(n.Tags))
		for _, t := range n.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			byTag[t] = append(byTag[t], idx)
		}
		byCategory[n.Category] = append(byCategory[n.Category], idx)
	}

	strong := make(map[pair]struct{})
	for _, members := range byTag {
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				strong[pair{members[a], members[b]}] = struct{}{}
			}
		}
	}

	found := make([]pair, 0, len(strong))
	for p := range strong {
		found = append(found, p)
	}
	for _, members := range byCategory {
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				p := pair{members[a], members[b]}
				if _, ok := strong[p]; !ok {
					found = append(found, p)
				}
			}
		}
	}

	sort.Slice(found, func(a, b int) bool {
		if found[a].i != found[b].i {
			return found[a].i < found[b].i
		}
		return found[a].j < found[b].j
	})

	edges := make([]Edge, 0, len(found))
	for _, p := range found {
		a, b := nodes[p.i], nodes[p.j]
		if _, ok := strong[p]; ok {
			edges = append(edges, Edge{Source: a.ID, Target: b.ID, Strength: w.Tag, Kind: EdgeTag})
			continue
		}
		edges = append(edges, Edge{Source: a.ID, Target: b.ID, Strength: w.Category, Kind: EdgeCategory})
	}
	return edges
}
