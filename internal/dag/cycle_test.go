package dag_test

import (
	"strconv"
	"testing"

	"github.com/go-test/deep"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

func TestHasCycle(t *testing.T) {
	cases := []struct {
		name  string
		graph *dag.Graph
		want  bool
	}{
		{
			name:  "linear",
			graph: linearGraph(),
			want:  false,
		},
		{
			name: "join without cycle",
			graph: &dag.Graph{
				Nodes: withSentinels("main", "foo", "bar", "baz"),
				Edges: []dag.Edge{
					{Src: "~commit", Dest: "main"},
					{Src: "main", Dest: "foo"},
					{Src: "main", Dest: "bar"},
					{Src: "foo", Dest: "baz", Join: true},
					{Src: "bar", Dest: "baz", Join: true},
				},
			},
			want: false,
		},
		{
			name: "cycle through a join",
			graph: &dag.Graph{
				Nodes: withSentinels("main", "foo", "bar"),
				Edges: []dag.Edge{
					{Src: "~commit", Dest: "main"},
					{Src: "main", Dest: "foo"},
					{Src: "foo", Dest: "bar", Join: true},
					{Src: "~pr", Dest: "bar", Join: true},
					{Src: "bar", Dest: "main"},
				},
			},
			want: true,
		},
		{
			name: "detached cycle",
			graph: &dag.Graph{
				Nodes: withSentinels("main", "foo", "bar"),
				Edges: []dag.Edge{
					{Src: "~commit", Dest: "main"},
					{Src: "foo", Dest: "bar"},
					{Src: "bar", Dest: "foo"},
				},
			},
			want: true,
		},
		{
			name: "self loop",
			graph: &dag.Graph{
				Nodes: nodes("a"),
				Edges: []dag.Edge{{Src: "a", Dest: "a"}},
			},
			want: true,
		},
		{
			name: "endpoints missing from nodes",
			graph: &dag.Graph{
				Edges: []dag.Edge{
					{Src: "x", Dest: "y"},
					{Src: "y", Dest: "x"},
				},
			},
			want: true,
		},
		{
			name:  "empty",
			graph: &dag.Graph{},
			want:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dag.HasCycle(tc.graph); got != tc.want {
				t.Errorf("HasCycle = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestFindCycle_Path(t *testing.T) {
	g := &dag.Graph{
		Nodes: withSentinels("main", "foo", "bar"),
		Edges: []dag.Edge{
			{Src: "~commit", Dest: "main"},
			{Src: "main", Dest: "foo"},
			{Src: "foo", Dest: "bar"},
			{Src: "bar", Dest: "main"},
		},
	}
	want := []string{"main", "foo", "bar", "main"}
	if diff := deep.Equal(dag.FindCycle(g), want); diff != nil {
		t.Error(diff)
	}

	self := &dag.Graph{Edges: []dag.Edge{{Src: "a", Dest: "a"}}}
	if diff := deep.Equal(dag.FindCycle(self), []string{"a", "a"}); diff != nil {
		t.Error(diff)
	}

	if path := dag.FindCycle(linearGraph()); path != nil {
		t.Errorf("expected no cycle, got %v", path)
	}
}

func TestHasCycle_DeepChain(t *testing.T) {
	const depth = 100000
	edges := make([]dag.Edge, 0, depth)
	for i := 0; i < depth; i++ {
		edges = append(edges, dag.Edge{Src: jobName(i), Dest: jobName(i + 1)})
	}
	g := &dag.Graph{Edges: edges}
	if dag.HasCycle(g) {
		t.Fatal("long chain reported as cyclic")
	}
	g = &dag.Graph{Edges: append(edges, dag.Edge{Src: jobName(depth), Dest: jobName(0)})}
	if !dag.HasCycle(g) {
		t.Fatal("closed chain not reported as cyclic")
	}
}

func jobName(i int) string {
	return "job-" + strconv.Itoa(i)
}
