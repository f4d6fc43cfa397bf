package dag_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

func TestParseTrigger(t *testing.T) {
	cases := []struct {
		d    dag.Descriptor
		want dag.Trigger
	}{
		{
			dag.Descriptor{Trigger: "main"},
			dag.Trigger{Kind: dag.KindJob, Name: "main"},
		},
		{
			dag.Descriptor{Trigger: "~commit"},
			dag.Trigger{Kind: dag.KindEvent, Name: "~commit"},
		},
		{
			dag.Descriptor{Trigger: "~pr", PRNum: "5"},
			dag.Trigger{Kind: dag.KindEvent, Name: "~pr", PRNum: "5"},
		},
		{
			dag.Descriptor{Trigger: "~sd@12:publish"},
			dag.Trigger{Kind: dag.KindEvent, Name: "~sd@12:publish"},
		},
		{
			dag.Descriptor{Trigger: "~commit:release/v1"},
			dag.Trigger{Kind: dag.KindBranch, Name: "~commit:release/v1", Event: "commit", Branch: "release/v1"},
		},
		{
			dag.Descriptor{Trigger: "~pr:main", PRNum: "3"},
			dag.Trigger{Kind: dag.KindBranch, Name: "~pr:main", Event: "pr", Branch: "main", PRNum: "3"},
		},
		{
			dag.Descriptor{Trigger: "PR-42:test"},
			dag.Trigger{Kind: dag.KindPRChain, Name: "PR-42:test", Job: "test", PRNum: "42"},
		},
		{
			dag.Descriptor{Trigger: "PR-42:test", PRNum: "1"},
			dag.Trigger{Kind: dag.KindPRChain, Name: "PR-42:test", Job: "test", PRNum: "42"},
		},
		{
			dag.Descriptor{Trigger: "test", PRNum: "8", PRChain: true},
			dag.Trigger{Kind: dag.KindPRChain, Name: "test", Job: "test", PRNum: "8"},
		},
		{
			dag.Descriptor{Trigger: "PR-x:test"},
			dag.Trigger{Kind: dag.KindJob, Name: "PR-x:test"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.d.Trigger, func(t *testing.T) {
			got, err := dag.ParseTrigger(tc.d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := deep.Equal(got, tc.want); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[dag.Kind]string{
		dag.KindJob:     "job",
		dag.KindEvent:   "event",
		dag.KindBranch:  "branch",
		dag.KindPRChain: "pr_chain",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestSplitPRScoped(t *testing.T) {
	pr, job, ok := dag.SplitPRScoped(dag.PRScoped("12", "deploy"))
	if !ok || pr != "12" || job != "deploy" {
		t.Errorf("got (%q, %q, %t), want (12, deploy, true)", pr, job, ok)
	}
	if _, job, ok := dag.SplitPRScoped("deploy"); ok || job != "deploy" {
		t.Errorf("unscoped name reported as scoped: %q %t", job, ok)
	}
}
