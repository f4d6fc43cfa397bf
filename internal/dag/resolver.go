package dag

// NextJobs returns the jobs fired next in g by the event d.
// Results keep the edge order of their first match and contain no duplicates.
func NextJobs(g *Graph, d Descriptor) ([]string, error) {
	t, err := ParseTrigger(d)
	if err != nil {
		return nil, err
	}
	return t.Next(g), nil
}

// Next applies the trigger to every edge of g.
func (t Trigger) Next(g *Graph) []string {
	ix := g.lookup()
	jobs := newOrderedSet()

	for i, e := range g.Edges {
		switch t.Kind {
		case KindJob:
			if e.Src == t.Name {
				jobs.add(e.Dest)
			}
		case KindEvent:
			if e.Src != t.Name {
				continue
			}
			if t.Name == SentinelPR {
				jobs.add(PRScoped(t.PRNum, e.Dest))
			} else {
				jobs.add(e.Dest)
			}
		case KindBranch:
			if !ix.sources[i].matches(t.Event, t.Branch) {
				continue
			}
			if t.Event == eventPR && t.PRNum != "" {
				jobs.add(PRScoped(t.PRNum, e.Dest))
			} else {
				jobs.add(e.Dest)
			}
		case KindPRChain:
			if e.Src == t.Job {
				jobs.add(PRScoped(t.PRNum, e.Dest))
			}
		}
	}
	return jobs.items
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
