package dag

// HasJoin reports whether any edge of g is part of a join.
func HasJoin(g *Graph) bool {
	for _, e := range g.Edges {
		if e.Join {
			return true
		}
	}
	return false
}

// JoinSources returns the nodes that must all complete before jobName runs.
// It is empty when jobName is not a join.
func JoinSources(g *Graph, jobName string) ([]Node, error) {
	if jobName == "" {
		return nil, ErrMissingJobName
	}
	out := []Node{}
	seen := make(map[string]struct{})
	for _, e := range g.Edges {
		if e.Dest != jobName || !e.Join {
			continue
		}
		if _, ok := seen[e.Src]; ok {
			continue
		}
		seen[e.Src] = struct{}{}
		n, ok := g.Node(e.Src)
		if !ok {
			n = Node{Name: e.Src}
		}
		out = append(out, n)
	}
	return out, nil
}
