package graph

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// ForceConfig is the simulation contract shared with the dashboard. The
// client runs the interactive simulation with these parameters; Layout uses
// them to compute seed positions server side.
type ForceConfig struct {
	LinkDistance    float64 `json:"link_distance" yaml:"link_distance"`
	Charge          float64 `json:"charge" yaml:"charge"`
	CollisionMargin float64 `json:"collision_margin" yaml:"collision_margin"`
	CenterStrength  float64 `json:"center_strength" yaml:"center_strength"`
	Width           float64 `json:"width" yaml:"width"`
	Height          float64 `json:"height" yaml:"height"`

	Seed       uint64 `json:"-" yaml:"seed"`
	Iterations int    `json:"-" yaml:"iterations"`
}

// DefaultForceConfig returns the tuned dashboard parameters.
func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		LinkDistance:    130,
		Charge:          -400,
		CollisionMargin: 20,
		CenterStrength:  0.05,
		Width:           960,
		Height:          640,
		Seed:            1,
		Iterations:      200,
	}
}

const collisionPasses = 100

// Layout assigns coordinates to every node of g and returns the updated
// graph. The hub is pinned at the canvas centre. g is not modified.
func Layout(g Graph, cfg ForceConfig) Graph {
	out := Graph{
		Nodes: append([]Node(nil), g.Nodes...),
		Edges: append([]Edge(nil), g.Edges...),
	}
	if len(out.Nodes) == 0 {
		return out
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultForceConfig().Iterations
	}

	cx, cy := cfg.Width/2, cfg.Height/2
	pos := make([]r2.Vec, len(out.Nodes))
	if len(out.Nodes) > 1 {
		pos = optimize(out, cfg)
	}

	centreOnHub(pos)
	scaleToLinkDistance(pos, cfg.LinkDistance)
	resolveCollisions(pos, out.Nodes, cfg.CollisionMargin)

	for i := range out.Nodes {
		out.Nodes[i].X = pos[i].X + cx
		out.Nodes[i].Y = pos[i].Y + cy
	}
	hx, hy := cx, cy
	out.Nodes[0].FX = &hx
	out.Nodes[0].FY = &hy
	return out
}

// optimize runs the Eades spring embedder over the node indices.
func optimize(g Graph, cfg ForceConfig) []r2.Vec {
	index := make(map[string]int64, len(g.Nodes))
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i, n := range g.Nodes {
		index[n.ID] = int64(i)
		wg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges {
		from, okFrom := index[e.Source]
		to, okTo := index[e.Target]
		if !okFrom || !okTo || from == to {
			continue
		}
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(from), simple.Node(to), e.Strength))
	}

	eades := layout.EadesR2{
		Updates:   cfg.Iterations,
		Repulsion: math.Abs(cfg.Charge) / 400,
		Rate:      0.1,
		Theta:     0.5,
		Src:       rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15),
	}
	opt := layout.NewOptimizerR2(wg, eades.Update)
	for opt.Update() {
	}

	pos := make([]r2.Vec, len(g.Nodes))
	for i := range g.Nodes {
		pos[i] = opt.Coord2(int64(i))
	}
	return pos
}

func centreOnHub(pos []r2.Vec) {
	hub := pos[0]
	for i := range pos {
		pos[i] = r2.Sub(pos[i], hub)
	}
}

// scaleToLinkDistance stretches positions around the hub so the mean hub
// edge is exactly linkDistance long.
func scaleToLinkDistance(pos []r2.Vec, linkDistance float64) {
	var total float64
	var count int
	for i := 1; i < len(pos); i++ {
		total += r2.Norm(pos[i])
		count++
	}
	if count == 0 || total == 0 || linkDistance <= 0 {
		spreadOnCircle(pos, linkDistance)
		return
	}
	factor := linkDistance / (total / float64(count))
	for i := range pos {
		pos[i] = r2.Scale(factor, pos[i])
	}
}

// spreadOnCircle is used when the optimizer collapsed every node onto the
// hub.
func spreadOnCircle(pos []r2.Vec, radius float64) {
	n := len(pos) - 1
	for i := 1; i < len(pos); i++ {
		angle := 2 * math.Pi * float64(i-1) / float64(n)
		pos[i] = r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}
}

// resolveCollisions pushes overlapping nodes apart. Index 0 is the hub and
// is never moved.
func resolveCollisions(pos []r2.Vec, nodes []Node, margin float64) {
	for pass := 0; pass < collisionPasses; pass++ {
		moved := false
		for i := 0; i < len(pos); i++ {
			for j := i + 1; j < len(pos); j++ {
				minDist := nodes[i].Radius + nodes[j].Radius + margin
				delta := r2.Sub(pos[j], pos[i])
				dist := r2.Norm(delta)
				if dist >= minDist {
					continue
				}
				moved = true
				var dir r2.Vec
				if dist > 1e-9 {
					dir = r2.Scale(1/dist, delta)
				} else {
					angle := float64(i*31+j*17) * 0.618
					dir = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
				}
				overlap := minDist - dist
				if i == 0 {
					pos[j] = r2.Add(pos[j], r2.Scale(overlap, dir))
					continue
				}
				half := r2.Scale(overlap/2, dir)
				pos[i] = r2.Sub(pos[i], half)
				pos[j] = r2.Add(pos[j], half)
			}
		}
		if !moved {
			return
		}
	}
}
