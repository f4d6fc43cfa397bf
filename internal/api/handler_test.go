package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/gyaneshwarpardhi/wfgraph/internal/api"
	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/engine"
)

const pipeline = `
jobs:
  main:
    requires: [~commit, ~pr]
  a:
    requires: [main]
  b:
    requires: [main]
  c:
    requires: [a, b]
engine:
  trigger_workers: 2
  queue_depth: 16
`

type fixture struct {
	srv    *httptest.Server
	path   string
	eng    *engine.Engine
	loader *config.Loader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screwdriver.yaml")
	if err := os.WriteFile(path, []byte(pipeline), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	g, err := engine.BuildGraph(loader.Config(), dag.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, g, loader.Config().Engine)
	loader.OnChange(eng.Reloader(dag.BuildOptions{}))
	srv := httptest.NewServer(api.New(eng, loader, dag.BuildOptions{}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		eng.Shutdown()
	})
	return &fixture{srv: srv, path: path, eng: eng, loader: loader}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestResolveTrigger(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		body   string
		status int
		next   []interface{}
	}{
		{"commit", `{"trigger": "~commit"}`, http.StatusOK, []interface{}{"main"}},
		{"pr", `{"trigger": "~pr", "pr_num": "3"}`, http.StatusOK, []interface{}{"PR-3:main"}},
		{"join", `{"trigger": "a"}`, http.StatusOK, []interface{}{"c"}},
		{"missing trigger", `{}`, http.StatusBadRequest, nil},
		{"pr without number", `{"trigger": "~pr"}`, http.StatusBadRequest, nil},
		{"malformed", `{`, http.StatusBadRequest, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, "/v1/triggers", tc.body)
			if status != tc.status {
				t.Fatalf("status = %d, want %d (%v)", status, tc.status, body)
			}
			if tc.next == nil {
				if body["error"] == nil {
					t.Error("expected error message")
				}
				return
			}
			if diff := deep.Equal(body["next_jobs"], tc.next); diff != nil {
				t.Error(diff)
			}
			if body["event_id"] == "" {
				t.Error("expected generated event id")
			}
		})
	}
}

func TestResolveTrigger_Joins(t *testing.T) {
	f := newFixture(t)
	_, body := f.do(t, http.MethodPost, "/v1/triggers", `{"trigger": "PR-9:a"}`)
	want := map[string]interface{}{"PR-9:c": []interface{}{"PR-9:a", "PR-9:b"}}
	if diff := deep.Equal(body["joins"], want); diff != nil {
		t.Error(diff)
	}
}

func TestResolveBatch(t *testing.T) {
	f := newFixture(t)
	results := make(chan *engine.Result, 8)
	f.eng.OnResult(func(res *engine.Result) { results <- res })

	status, body := f.do(t, http.MethodPost, "/v1/triggers/batch",
		`[{"trigger": "~commit"}, {"trigger": "~pr"}, null, {"trigger": "main"}]`)
	if status != http.StatusAccepted {
		t.Fatalf("status = %d (%v)", status, body)
	}
	if body["total"] != float64(4) || body["queued"] != float64(2) {
		t.Errorf("unexpected counts: %v", body)
	}
	if invalid, _ := body["invalid"].([]interface{}); len(invalid) != 2 {
		t.Errorf("invalid = %v", body["invalid"])
	}

	next := map[string][]string{}
	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			next[res.Trigger] = res.NextJobs
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of 2 queued triggers resolved", i)
		}
	}
	want := map[string][]string{"~commit": {"main"}, "main": {"a", "b"}}
	if diff := deep.Equal(next, want); diff != nil {
		t.Error(diff)
	}

	status, _ = f.do(t, http.MethodPost, "/v1/triggers/batch", `[]`)
	if status != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", status)
	}

	big := "[" + strings.TrimSuffix(strings.Repeat(`{"trigger":"main"},`, 101), ",") + "]"
	status, _ = f.do(t, http.MethodPost, "/v1/triggers/batch", big)
	if status != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d", status)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/v1/workflow", "")
	if status != http.StatusOK {
		t.Fatalf("workflow status = %d", status)
	}
	if nodes, _ := body["nodes"].([]interface{}); len(nodes) != 8 {
		t.Errorf("nodes = %v", body["nodes"])
	}

	_, body = f.do(t, http.MethodGet, "/v1/workflow/cycle", "")
	if body["has_cycle"] != false {
		t.Errorf("cycle = %v", body)
	}

	_, body = f.do(t, http.MethodGet, "/v1/workflow/joins", "")
	if body["has_join"] != true {
		t.Errorf("joins = %v", body)
	}

	status, body = f.do(t, http.MethodGet, "/v1/workflow/joins/c", "")
	if status != http.StatusOK {
		t.Fatalf("join sources status = %d", status)
	}
	want := []interface{}{
		map[string]interface{}{"name": "a"},
		map[string]interface{}{"name": "b"},
	}
	if diff := deep.Equal(body["sources"], want); diff != nil {
		t.Error(diff)
	}

	status, body = f.do(t, http.MethodGet, "/v1/workflow/joins/a", "")
	if status != http.StatusOK || body["join"] != false {
		t.Errorf("non-join: %d %v", status, body)
	}

	status, _ = f.do(t, http.MethodGet, "/v1/workflow/joins/ghost", "")
	if status != http.StatusNotFound {
		t.Errorf("unknown job status = %d", status)
	}
}

func TestBuildWorkflow(t *testing.T) {
	f := newFixture(t)

	doc := `{
		// posted pipelines may carry comments
		"jobs": {"main": {}, "test": {}, "deploy": {},},
	}`
	status, body := f.do(t, http.MethodPost, "/v1/workflow/build?legacy=true", doc)
	if status != http.StatusOK {
		t.Fatalf("status = %d (%v)", status, body)
	}
	if body["mode"] != string(dag.ModeLegacy) {
		t.Errorf("mode = %v", body["mode"])
	}
	wf := body["workflow"].(map[string]interface{})
	if edges, _ := wf["edges"].([]interface{}); len(edges) != 4 {
		t.Errorf("edges = %v", wf["edges"])
	}

	cyclic := `{"jobs": {"a": {"requires": ["b"]}, "b": {"requires": ["a"]}}}`
	_, body = f.do(t, http.MethodPost, "/v1/workflow/build", cyclic)
	if body["has_cycle"] != true {
		t.Errorf("expected cycle: %v", body)
	}

	status, _ = f.do(t, http.MethodPost, "/v1/workflow/build", `{"jobs": {}}`)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("empty jobs status = %d", status)
	}

	status, _ = f.do(t, http.MethodPost, "/v1/workflow/build", `{"jobs": `)
	if status != http.StatusBadRequest {
		t.Errorf("malformed status = %d", status)
	}
}

func TestReloadWorkflow(t *testing.T) {
	f := newFixture(t)

	next := "jobs:\n  main:\n    requires: [~commit]\n  ship:\n    requires: [main]\n"
	if err := os.WriteFile(f.path, []byte(next), 0o644); err != nil {
		t.Fatal(err)
	}
	status, body := f.do(t, http.MethodPost, "/v1/workflow/reload", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d (%v)", status, body)
	}
	_, body = f.do(t, http.MethodPost, "/v1/triggers", `{"trigger": "main"}`)
	if diff := deep.Equal(body["next_jobs"], []interface{}{"ship"}); diff != nil {
		t.Error(diff)
	}

	cyclic := "jobs:\n  a:\n    requires: [b]\n  b:\n    requires: [a]\n"
	if err := os.WriteFile(f.path, []byte(cyclic), 0o644); err != nil {
		t.Fatal(err)
	}
	status, _ = f.do(t, http.MethodPost, "/v1/workflow/reload", "")
	if status != http.StatusUnprocessableEntity {
		t.Errorf("cyclic reload status = %d", status)
	}
	if _, ok := f.loader.Config().Jobs.Get("ship"); !ok {
		t.Errorf("rejected reload replaced the loader config: %v", f.loader.Config().Jobs.Names())
	}
	_, body = f.do(t, http.MethodPost, "/v1/triggers", `{"trigger": "main"}`)
	if diff := deep.Equal(body["next_jobs"], []interface{}{"ship"}); diff != nil {
		t.Errorf("cyclic reload replaced the graph: %v", diff)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		status, _ := f.do(t, http.MethodGet, path, "")
		if status != http.StatusOK {
			t.Errorf("%s status = %d", path, status)
		}
	}

	resp, err := http.Get(f.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "wfgraph_graph_builds_total") {
		t.Error("metrics output missing wfgraph_graph_builds_total")
	}
}
