package dag

import (
	"regexp"
	"strings"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
)

// legacyAnchor is the job every legacy workflow starts from.
const legacyAnchor = "main"

// keepTilde matches names whose leading ~ is part of the name rather than
// the logical-OR marker.
var keepTilde = regexp.MustCompile(`^~(pr|commit|release|tag|sd@)`)

// BuildOptions selects how a pipeline config is turned into a graph.
type BuildOptions struct {
	// UseLegacy builds a linear chain when no job declares requires.
	UseLegacy bool
}

// Mode names the strategy used to build a graph.
type Mode string

const (
	ModeDependency Mode = "dependency"
	ModeLegacy     Mode = "legacy"
)

// ModeFor reports which strategy Build will use for cfg.
func ModeFor(cfg *config.PipelineConfig, opts BuildOptions) Mode {
	if cfg != nil && opts.UseLegacy && !cfg.Jobs.DeclaresRequires() {
		return ModeLegacy
	}
	return ModeDependency
}

// Build constructs the workflow graph for cfg.
// Jobs declaring requires always produce a dependency graph; the legacy
// chain is only used when asked for and nothing declares requires.
func Build(cfg *config.PipelineConfig, opts BuildOptions) (*Graph, error) {
	if cfg == nil || cfg.Jobs.Len() == 0 {
		return nil, ErrConfiguration
	}
	if ModeFor(cfg, opts) == ModeLegacy {
		return buildLegacy(cfg.Jobs, cfg.Workflow), nil
	}
	return buildDependency(cfg.Jobs), nil
}

// filterNodeName strips the logical-OR ~ from a requires entry, leaving
// sentinels and external pipeline references untouched.
func filterNodeName(name string) string {
	if keepTilde.MatchString(name) {
		return name
	}
	return strings.TrimPrefix(name, "~")
}

func isSpecial(name string) bool {
	return strings.HasPrefix(name, "~")
}

func buildDependency(jobs config.Jobs) *Graph {
	nodes := newOrderedSet()
	for _, s := range Sentinels {
		nodes.add(s)
	}
	var edges []Edge

	for _, dest := range jobs.Names() {
		nodes.add(dest)
		job, _ := jobs.Get(dest)
		if job.Requires == nil {
			continue
		}

		special := newOrderedSet()
		plain := newOrderedSet()
		for _, req := range job.Requires {
			nodes.add(filterNodeName(req))
			if isSpecial(req) {
				special.add(filterNodeName(req))
			} else {
				plain.add(req)
			}
		}
		join := len(plain.items) > 1

		for _, src := range special.items {
			if _, dup := plain.seen[src]; dup {
				continue
			}
			edges = append(edges, Edge{Src: src, Dest: dest})
		}
		for _, src := range plain.items {
			edges = append(edges, Edge{Src: src, Dest: dest, Join: join})
		}
	}
	return newGraph(nodes.items, edges)
}

func buildLegacy(jobs config.Jobs, workflow []string) *Graph {
	if workflow == nil {
		workflow = jobs.Names()
	}

	nodes := newOrderedSet()
	for _, s := range Sentinels {
		nodes.add(s)
	}
	nodes.add(legacyAnchor)
	for _, name := range jobs.Names() {
		nodes.add(name)
	}

	edges := []Edge{
		{Src: SentinelPR, Dest: legacyAnchor},
		{Src: SentinelCommit, Dest: legacyAnchor},
	}
	seen := map[Edge]struct{}{}
	src := legacyAnchor
	for _, dest := range workflow {
		if dest == legacyAnchor {
			continue
		}
		nodes.add(dest)
		e := Edge{Src: src, Dest: dest}
		if _, dup := seen[e]; !dup {
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
		src = dest
	}
	return newGraph(nodes.items, edges)
}

func newGraph(names []string, edges []Edge) *Graph {
	nodes := make([]Node, len(names))
	for i, n := range names {
		nodes[i] = Node{Name: n}
	}
	if edges == nil {
		edges = []Edge{}
	}
	return &Graph{Nodes: nodes, Edges: edges}
}
