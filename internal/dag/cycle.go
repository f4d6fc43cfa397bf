package dag

const (
	unvisited uint8 = iota
	onPath
	done
)

// frame is one level of the explicit DFS stack.
type frame struct {
	node int // arena index
	next int // position in the node's successor list
}

// HasCycle reports whether any walk along the edges of g returns to a node
// already on the current path. Joins and diamonds are not cycles.
func HasCycle(g *Graph) bool {
	return len(FindCycle(g)) > 0
}

// FindCycle returns the first cycle found as a closed path (first and last
// element equal), or nil. Every node is used as a starting point so
// detached subgraphs are covered.
func FindCycle(g *Graph) []string {
	names, ids := arena(g)
	succ := make([][]int, len(names))
	for i, name := range names {
		for _, d := range g.Successors(name) {
			succ[i] = append(succ[i], ids[d])
		}
	}

	state := make([]uint8, len(names))
	for start := range names {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{node: start}}
		state[start] = onPath

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(succ[top.node]) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			n := succ[top.node][top.next]
			top.next++

			switch state[n] {
			case onPath:
				return closePath(names, stack, n)
			case unvisited:
				state[n] = onPath
				stack = append(stack, frame{node: n})
			}
		}
	}
	return nil
}

// arena numbers every node name and edge endpoint of g.
func arena(g *Graph) ([]string, map[string]int) {
	ids := make(map[string]int, len(g.Nodes))
	var names []string
	add := func(name string) {
		if _, ok := ids[name]; ok {
			return
		}
		ids[name] = len(names)
		names = append(names, name)
	}
	for _, n := range g.Nodes {
		add(n.Name)
	}
	for _, e := range g.Edges {
		add(e.Src)
		add(e.Dest)
	}
	return names, ids
}

func closePath(names []string, stack []frame, to int) []string {
	i := 0
	for i < len(stack) && stack[i].node != to {
		i++
	}
	path := make([]string, 0, len(stack)-i+1)
	for _, f := range stack[i:] {
		path = append(path, names[f.node])
	}
	return append(path, names[to])
}
