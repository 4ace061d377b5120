package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/planktosim/planktosim/internal/plankton"
)

func TestConfigBuilder(t *testing.T) {
	cfg := NewConfig().
		Populations(500, 40).
		Domain(100, 80).
		Steps(1000).
		Seed(7).
		Rules(func(r *plankton.RuleParams) {
			r.EatGain = 5
		}).
		Build()

	if cfg.PopulationPhyto != 500 || cfg.PopulationZoo != 40 {
		t.Errorf("Unexpected populations: %d/%d", cfg.PopulationPhyto, cfg.PopulationZoo)
	}
	if cfg.Width != 100 || cfg.Height != 80 {
		t.Errorf("Unexpected domain: %gx%g", cfg.Width, cfg.Height)
	}
	if cfg.Steps != 1000 || cfg.Seed != 7 {
		t.Errorf("Unexpected steps/seed: %d/%d", cfg.Steps, cfg.Seed)
	}
	if cfg.Rules.EatGain != 5 {
		t.Errorf("Expected eat gain 5, got %d", cfg.Rules.EatGain)
	}
	// Untouched fields keep their defaults.
	if cfg.Rules.MetabolicCost != 1 {
		t.Errorf("Expected default metabolic cost 1, got %d", cfg.Rules.MetabolicCost)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Built config failed validation: %v", err)
	}
}

// recordingHandler captures the last request and plays back a canned
// response.
type recordingHandler struct {
	method string
	path   string
	query  string
	body   []byte

	status   int
	response string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.body, _ = io.ReadAll(r.Body)

	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	if h.response != "" {
		_, _ = w.Write([]byte(h.response))
	}
}

func newTestClient(t *testing.T, h *recordingHandler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClient_Health(t *testing.T) {
	h := &recordingHandler{response: "ok"}
	c := newTestClient(t, h)

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/healthz" {
		t.Errorf("Unexpected request: %s %s", h.method, h.path)
	}
}

func TestClient_CreateSimulation(t *testing.T) {
	h := &recordingHandler{response: "simulation created"}
	c := newTestClient(t, h)

	cfg := NewConfig().Populations(10, 5).Build()
	if err := c.CreateSimulation(context.Background(), "tank", &cfg); err != nil {
		t.Fatalf("CreateSimulation failed: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/sim/tank" {
		t.Errorf("Unexpected request: %s %s", h.method, h.path)
	}

	var sent plankton.SimConfig
	if err := json.Unmarshal(h.body, &sent); err != nil {
		t.Fatalf("Request body is not a config: %v", err)
	}
	if sent.PopulationPhyto != 10 || sent.PopulationZoo != 5 {
		t.Errorf("Config not delivered intact: %+v", sent)
	}
}

func TestClient_CreateSimulationWithDefaults(t *testing.T) {
	h := &recordingHandler{}
	c := newTestClient(t, h)

	if err := c.CreateSimulation(context.Background(), "tank", nil); err != nil {
		t.Fatalf("CreateSimulation failed: %v", err)
	}
	if len(h.body) != 0 {
		t.Errorf("Expected an empty body for a nil config, got %q", h.body)
	}
}

func TestClient_Step(t *testing.T) {
	h := &recordingHandler{response: `{"id":"tank","step":5,"counts":{"phyto":120,"zoo":8}}`}
	c := newTestClient(t, h)

	info, err := c.Step(context.Background(), "tank", 5)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/sim/tank/step" || h.query != "n=5" {
		t.Errorf("Unexpected request: %s %s?%s", h.method, h.path, h.query)
	}
	if info.Step != 5 || info.Counts[plankton.SpeciesPhyto] != 120 {
		t.Errorf("Unexpected info: %+v", info)
	}
}

func TestClient_StepClampsCount(t *testing.T) {
	h := &recordingHandler{response: `{"id":"tank","step":1,"counts":{}}`}
	c := newTestClient(t, h)

	if _, err := c.Step(context.Background(), "tank", 0); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if h.query != "n=1" {
		t.Errorf("Expected n=1 for a non-positive count, got %q", h.query)
	}
}

func TestClient_RunAndStop(t *testing.T) {
	h := &recordingHandler{response: "running"}
	c := newTestClient(t, h)

	if err := c.Run(context.Background(), "tank", 250*time.Millisecond); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if h.path != "/sim/tank/run" {
		t.Errorf("Unexpected path: %s", h.path)
	}
	var req map[string]int
	if err := json.Unmarshal(h.body, &req); err != nil {
		t.Fatalf("Run body is not JSON: %v", err)
	}
	if req["interval_ms"] != 250 {
		t.Errorf("Expected interval_ms 250, got %d", req["interval_ms"])
	}

	if err := c.Stop(context.Background(), "tank"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if h.path != "/sim/tank/stop" {
		t.Errorf("Unexpected path: %s", h.path)
	}
}

func TestClient_AgentsAndCounts(t *testing.T) {
	h := &recordingHandler{response: `[{"id":1,"species":"phyto","x":1,"y":2},{"id":2,"species":"zoo","x":3,"y":4,"energy":6}]`}
	c := newTestClient(t, h)

	agents, err := c.Agents(context.Background(), "tank")
	if err != nil {
		t.Fatalf("Agents failed: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("Expected 2 agents, got %d", len(agents))
	}
	if agents[0].Energy != nil {
		t.Error("Phyto record must not carry energy")
	}
	if agents[1].Energy == nil || *agents[1].Energy != 6 {
		t.Error("Zoo record lost its energy")
	}

	h.response = `{"phyto":150,"zoo":12}`
	counts, err := c.Counts(context.Background(), "tank")
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[plankton.SpeciesZoo] != 12 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestClient_SnapshotAndSave(t *testing.T) {
	h := &recordingHandler{response: `{"simulation_id":"tank","step":9,"agents":[]}`}
	c := newTestClient(t, h)

	snap, err := c.Snapshot(context.Background(), "tank")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if h.method != http.MethodGet || snap.Step != 9 {
		t.Errorf("Unexpected snapshot fetch: method=%s step=%d", h.method, snap.Step)
	}

	h.response = `{"path":"/data/tank-step-000009.json"}`
	path, err := c.SaveSnapshot(context.Background(), "tank")
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if h.method != http.MethodPost {
		t.Errorf("Expected POST for save, got %s", h.method)
	}
	if path != "/data/tank-step-000009.json" {
		t.Errorf("Unexpected path: %s", path)
	}
}

func TestClient_ListAndDelete(t *testing.T) {
	h := &recordingHandler{response: `["a","b"]`}
	c := newTestClient(t, h)

	ids, err := c.ListSimulations(context.Background())
	if err != nil {
		t.Fatalf("ListSimulations failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" {
		t.Errorf("Unexpected ids: %v", ids)
	}

	h.response = "simulation deleted"
	if err := c.DeleteSimulation(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteSimulation failed: %v", err)
	}
	if h.method != http.MethodDelete || h.path != "/sim/a" {
		t.Errorf("Unexpected request: %s %s", h.method, h.path)
	}
}

func TestClient_ServerErrorIncludesBody(t *testing.T) {
	h := &recordingHandler{status: http.StatusNotFound, response: "simulation not found"}
	c := newTestClient(t, h)

	err := c.Health(context.Background())
	if err == nil {
		t.Fatal("Expected an error for a 404 response")
	}
	if !strings.Contains(err.Error(), "simulation not found") {
		t.Errorf("Expected the server message in the error, got %q", err.Error())
	}
}
