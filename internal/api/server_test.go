package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcampedelli/riposte/internal/runtime"
	"github.com/lcampedelli/riposte/pkg/adapters/memory"
	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/observability"
)

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *runtime.Runner) {
	t.Helper()

	m, err := domain.NewMachine("fishing-bot")
	require.NoError(t, err)

	initial := m.CurrentState()
	casting := domain.NewState("Casting", "line in the water")
	require.NoError(t, m.AddState(casting))

	bite, err := domain.NewCondition("bobber_dipped", domain.OpEqual, true)
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(domain.NewGuardedTransition(initial.ID, casting.ID, bite, "hook the fish")))
	require.NoError(t, m.AddTransition(domain.NewTransition(casting.ID, initial.ID, "recast")))

	lowBait, err := domain.NewCondition("bait", domain.OpLessThan, 5)
	require.NoError(t, err)
	restock, err := domain.NewRule("restock-bait", lowBait, "open_bag", 1)
	require.NoError(t, err)
	require.NoError(t, m.AddRule(restock))

	require.NoError(t, m.Activate())
	m.ClearEvents()

	dispatcher := memory.NewDispatcher()
	dispatcher.Register("open_bag", func(ctx context.Context, action string, facts domain.Facts) (any, error) {
		return nil, nil
	})

	runner := runtime.NewRunner(m, memory.NewSource(nil), dispatcher,
		runtime.WithLogger(slogt.New(t)),
	)

	srv := httptest.NewServer(NewServer(runner, append([]Option{WithLogger(slogt.New(t))}, opts...)...).Handler())
	t.Cleanup(srv.Close)
	return srv, runner
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fishing-bot", body["machine"])
	assert.Equal(t, domain.InitialStateName, body["state"])
}

func TestServer_Machine(t *testing.T) {
	srv, runner := newTestServer(t)

	resp, err := http.Get(srv.URL + "/machine")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap domain.MachineSnapshot
	decodeBody(t, resp, &snap)
	assert.Equal(t, runner.Machine().ID, snap.ID)
	assert.Len(t, snap.States, 2)
	assert.Len(t, snap.Transitions, 2)
	assert.Len(t, snap.Rules, 1)
}

func TestServer_Facts(t *testing.T) {
	srv, runner := newTestServer(t)

	resp, err := http.Post(srv.URL+"/facts", "application/json",
		strings.NewReader(`{"bait": 2, "bobber_dipped": true}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Triggered []struct {
			Rule   string `json:"rule"`
			Action string `json:"action"`
		} `json:"triggered"`
		State string `json:"state"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.Triggered, 1)
	assert.Equal(t, "restock-bait", body.Triggered[0].Rule)
	assert.Equal(t, "open_bag", body.Triggered[0].Action)
	assert.Equal(t, "Casting", body.State, "guarded transition should have fired")
	assert.Equal(t, "Casting", runner.Machine().CurrentState().Name)
}

func TestServer_Facts_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/facts", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Transition(t *testing.T) {
	srv, runner := newTestServer(t)

	resp, err := http.Post(srv.URL+"/transition", "application/json",
		strings.NewReader(`{"to": "Casting", "description": "manual cast"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "Casting", body["state"])
	assert.Equal(t, "Casting", runner.Machine().CurrentState().Name)
}

func TestServer_Transition_UnknownState(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/transition", "application/json",
		strings.NewReader(`{"to": "Ghost"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_Transition_MissingTarget(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/transition", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Reset(t *testing.T) {
	srv, runner := newTestServer(t)

	_, err := http.Post(srv.URL+"/transition", "application/json",
		strings.NewReader(`{"to": "Casting"}`))
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/reset", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, domain.InitialStateName, body["state"])
	assert.Equal(t, domain.InitialStateName, runner.Machine().CurrentState().Name)
}

func TestServer_ReadsDoNotRaceEvaluationPasses(t *testing.T) {
	srv, runner := newTestServer(t)

	// Hammer the machine through Apply the way a background poll loop
	// does, while HTTP reads hit every read endpoint.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = runner.Apply(context.Background(), func(m *domain.Machine) error {
				m.Reset()
				return nil
			})
			_, _ = runner.EvaluateOnce(context.Background(), domain.Facts{"bait": 1})
		}
	}()

	for i := 0; i < 50; i++ {
		for _, path := range []string{"/machine", "/healthz"} {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			resp.Body.Close()
		}
	}
	<-done
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)

	srv, _ := newTestServer(t, WithMetricsRegistry(reg))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Metrics_Disabled(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
