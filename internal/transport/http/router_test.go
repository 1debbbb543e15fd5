package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
	"charmcli/internal/middleware"
	"charmcli/internal/operations"
	"charmcli/internal/operations/testutil"
	"charmcli/internal/validation"
	api "charmcli/pkg/contracts/api/v1"
	"charmcli/pkg/contracts/domain"
)

type testServer struct {
	handler http.Handler
	env     *operations.Env
	queue   *operations.Queue
}

func newTestServer(t *testing.T, steps ...*testutil.MockStep) *testServer {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Study.InputRoot = filepath.Join(root, "data")
	cfg.Study.OutputRoot = filepath.Join(root, "results")
	for _, id := range []string{"01", "02"} {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.Study.InputRoot, cfg.Study.RawDataFolder, id), 0o755))
	}

	logger, _ := testutil.CreateTestSlogLogger()
	env, err := operations.NewEnv(cfg, logger, nil)
	require.NoError(t, err)

	if len(steps) == 0 {
		steps = []*testutil.MockStep{testutil.CreateSuccessfulStep("a")}
	}
	registry, err := testutil.NewRegistry(steps...)
	require.NoError(t, err)
	manager := operations.NewManager(registry, nil, operations.WithLogger(logger))
	queue := operations.NewQueue(manager, logger)
	t.Cleanup(func() { _ = queue.Stop(time.Second) })

	return &testServer{
		handler: NewRouter(Deps{
			Env:     env,
			Manager: manager,
			Queue:   queue,
			Server:  cfg.Server,
			Logger:  logger,
			Prometheus: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("# metrics\n"))
			}),
		}),
		env:   env,
		queue: queue,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "ok", decode[api.HealthResponse](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, os.RemoveAll(s.env.Paths.RawDir))
	rec = s.do(t, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParticipants(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/participants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ParticipantsResponse](t, rec)
	assert.Equal(t, []string{"01", "02"}, resp.Participants)
	assert.Equal(t, 2, resp.Count)
}

func TestInputs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/inputs?participants=01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[validation.Report](t, rec)
	require.Len(t, report.Participants, 1)
	assert.False(t, report.OK())

	require.NoError(t, os.RemoveAll(s.env.Paths.RawDir))
	rec = s.do(t, http.MethodGet, "/api/inputs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResults(t *testing.T) {
	s := newTestServer(t)
	path := s.env.Paths.Circadian(s.env.Study.Files.CRModel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("ID,Amplitude\n01,0.4\n02,0.5\n"), 0o644))

	rec := s.do(t, http.MethodGet, "/api/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.ResultListResponse](t, rec)
	require.NotEmpty(t, list.Results)
	available := map[string]bool{}
	for _, r := range list.Results {
		available[r.Table] = r.Available
	}
	assert.True(t, available["cosinor-models"])
	assert.False(t, available["non-parametric"])

	rec = s.do(t, http.MethodGet, "/api/results/cosinor-models?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tbl := decode[api.TableResponse](t, rec)
	assert.Equal(t, []string{"ID", "Amplitude"}, tbl.Columns)
	assert.Equal(t, [][]string{{"01", "0.4"}}, tbl.Rows)
	assert.Equal(t, 2, tbl.Total)

	rec = s.do(t, http.MethodGet, "/api/results/cosinor-models?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "02,0.5")

	rec = s.do(t, http.MethodGet, "/api/results/cosinor-models?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/results/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[middleware.Problem](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/results/non-parametric", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func waitForRun(t *testing.T, s *testServer, id string, want domain.RunStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/runs/"+id, "")
		if rec.Code != http.StatusOK {
			return false
		}
		return decode[api.RunResponse](t, rec).Run.Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRuns(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/runs", `{"participants":["01","x"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	p := decode[middleware.Problem](t, rec)
	assert.Equal(t, "VALIDATION_FAILED", p.Code)
	assert.NotEmpty(t, p.Errors)

	rec = s.do(t, http.MethodPost, "/api/runs", `{"step":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader("step=all"))
	req.Header.Set("Content-Type", "text/plain")
	plain := httptest.NewRecorder()
	s.handler.ServeHTTP(plain, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, plain.Code)

	rec = s.do(t, http.MethodPost, "/api/runs", `{"participants":["01"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	run := decode[api.RunResponse](t, rec).Run
	assert.Equal(t, "/api/runs/"+run.ID, rec.Header().Get("Location"))
	assert.Equal(t, operations.StepAll, run.Step)
	waitForRun(t, s, run.ID, domain.RunStatusCompleted)

	rec = s.do(t, http.MethodGet, "/api/runs?status=completed&page_size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.RunListResponse](t, rec)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, run.ID, list.Runs[0].ID)

	rec = s.do(t, http.MethodGet, "/api/runs?since=2999-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.RunListResponse](t, rec).Runs)

	rec = s.do(t, http.MethodGet, "/api/runs?since=someday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/runs?status=exploded", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/runs/"+run.ID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RUN_NOT_CANCELLABLE", decode[middleware.Problem](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/runs/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[middleware.Problem](t, rec).Code)
}

func TestRuns_ConflictAndCancel(t *testing.T) {
	started := make(chan struct{})
	blocking := &testutil.MockStep{
		IDValue: "block",
		ExecuteFunc: func(ctx context.Context, _ *operations.RunState) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	s := newTestServer(t, blocking)

	rec := s.do(t, http.MethodPost, "/api/runs", `{}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[api.RunResponse](t, rec).Run.ID
	<-started

	rec = s.do(t, http.MethodPost, "/api/runs", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RUN_IN_PROGRESS", decode[middleware.Problem](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/runs/"+id+"/cancel", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	waitForRun(t, s, id, domain.RunStatusCancelled)
}

func TestSteps(t *testing.T) {
	s := newTestServer(t, testutil.CreateDiamondSteps()...)

	rec := s.do(t, http.MethodGet, "/api/steps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	steps := decode[[]operations.StepInfo](t, rec)
	require.Len(t, steps, 4)
	assert.Equal(t, "A", steps[0].ID)
}

func TestRouting(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = s.do(t, http.MethodDelete, "/api/participants", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}
