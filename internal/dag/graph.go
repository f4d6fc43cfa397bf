package dag

import "sync"

// Node is a vertex of the workflow graph. Its name is its identity: a job
// name, an event sentinel (~pr, ~commit, ~release, ~tag), a branch-scoped
// sentinel (~commit:main, ~pr:/^feat/) or an external pipeline reference
// (~sd@123:publish).
type Node struct {
	Name string `json:"name" yaml:"name"`
}

// Edge records that Dest requires Src. Join marks Dest as waiting for all
// of its plain predecessors.
type Edge struct {
	Src  string `json:"src" yaml:"src"`
	Dest string `json:"dest" yaml:"dest"`
	Join bool   `json:"join,omitempty" yaml:"join,omitempty"`
}

// Graph holds the nodes and edges of a workflow.
// It is immutable once built; hot-reload builds a new Graph and swaps it.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	once sync.Once
	idx  *index
}

// index is derived from Edges on first use and shared by all readers.
type index struct {
	out     map[string][]int // src → edge positions, in edge order
	sources []source         // parsed form of each edge src
}

func (g *Graph) lookup() *index {
	g.once.Do(func() {
		ix := &index{
			out:     make(map[string][]int, len(g.Nodes)),
			sources: make([]source, len(g.Edges)),
		}
		for i, e := range g.Edges {
			ix.out[e.Src] = append(ix.out[e.Src], i)
			ix.sources[i] = parseSource(e.Src)
		}
		g.idx = ix
	})
	return g.idx
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Node returns the node with the given name.
func (g *Graph) Node(name string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Successors returns the destinations of every edge whose source is
// exactly name, in edge order and without duplicates.
func (g *Graph) Successors(name string) []string {
	positions := g.lookup().out[name]
	out := make([]string, 0, len(positions))
	seen := make(map[string]struct{}, len(positions))
	for _, i := range positions {
		d := g.Edges[i].Dest
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
