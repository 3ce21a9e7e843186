package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/qanda-core/internal/core/services"
	"github.com/custodia-labs/qanda-core/internal/runtime"
	"github.com/custodia-labs/qanda-core/internal/worker"
)

// newTestServer builds a server over the full service stack with mocked
// driven adapters.
func newTestServer(t *testing.T, secret string) (*Server, *mocks.MockVectorStore, *mocks.MockJobQueue, *mocks.MockStatusStore) {
	t.Helper()

	store := mocks.NewMockVectorStore()
	queue := mocks.NewMockJobQueue()
	status := mocks.NewMockStatusStore()
	llm := mocks.NewMockLLM(`RELEVANTE QUELLEN: Keine
KONFIDENZ: NIEDRIG
ANTWORT: Dazu habe ich keine Informationen gefunden.`)

	rt := runtime.NewServices(mocks.NewMockEmbedding(), llm)
	rt.SetModelsReady(true)

	router := services.NewQueryRouter(services.QueryRouterConfig{
		Classifier:   services.NewIntentClassifier(nil, nil),
		Synthesizer:  services.NewAnswerSynthesizer(llm, nil),
		VectorStore:  store,
		Services:     rt,
		CorpusPrefix: "/mnt/data/",
		TrashExclude: "/.trash/",
	})

	srv := NewServer(Config{
		Addr:           ":0",
		InternalSecret: secret,
		Queries:        router,
		Jobs:           services.NewJobService(queue, status, nil),
		Indexing:       services.NewIndexer(store, rt, nil),
		Runtime:        rt,
		Store:          store,
		Queue:          queue,
	})
	return srv, store, queue, status
}

func doRequest(srv *Server, method, path, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(internalSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuerySearchMode(t *testing.T) {
	srv, store, _, _ := newTestServer(t, "")
	store.SearchResults = []domain.Candidate{
		{FileID: "rechnung.txt", FilePath: "/mnt/data/rechnung.txt", Content: "Inhalt", Similarity: 0.9},
	}

	rec := doRequest(srv, http.MethodPost, "/api/v1/query", `{"query":"Rechnung Müller"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp domain.RoutedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode != domain.QueryModeSearch {
		t.Errorf("mode = %q, want search", resp.Mode)
	}
	if len(resp.Files) != 1 || resp.Files[0].FileID != "rechnung.txt" {
		t.Errorf("files = %+v", resp.Files)
	}
}

func TestHandleQueryValidation(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodPost, "/api/v1/query", `{"query":""}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: status = %d, want 400", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/v1/query", `not json`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryModelsNotReady(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")
	srv.cfg.Runtime.SetModelsReady(false)

	rec := doRequest(srv, http.MethodPost, "/api/v1/query", `{"query":"Rechnung"}`, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleSubmitJob(t *testing.T) {
	srv, _, queue, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodPost, "/api/v1/jobs", `{"job_id":"job-1","query":"alle Rechnungen"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp submitJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID != "job-1" || resp.Status != "queued" {
		t.Errorf("resp = %+v", resp)
	}

	delivery, _ := queue.Dequeue(context.Background(), 1)
	if delivery == nil || delivery.JobID != "job-1" {
		t.Errorf("delivery = %+v, want the submitted job", delivery)
	}
}

func TestHandleSubmitJobGeneratesID(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodPost, "/api/v1/jobs", `{"query":"alle Rechnungen"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp submitJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" {
		t.Error("a job id must be generated when the caller omits one")
	}
}

func TestHandleSubmitJobMissingQuery(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodPost, "/api/v1/jobs", `{"job_id":"job-1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleJobStatus(t *testing.T) {
	srv, _, queue, status := newTestServer(t, "")

	// Submit, then run a worker pass so the record reaches a terminal state
	doRequest(srv, http.MethodPost, "/api/v1/jobs", `{"job_id":"job-1","query":"Rechnung Müller"}`, "")

	w := worker.New(worker.Config{
		Queue:          queue,
		Status:         status,
		Router:         srv.cfg.Queries,
		DequeueTimeout: 1,
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer w.Stop()

	deadline := 0
	for deadline < 200 {
		rec := doRequest(srv, http.MethodGet, "/api/v1/jobs/job-1", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var job domain.Job
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if job.Status == domain.JobStatusCompleted {
			if job.Result == nil {
				t.Fatal("completed job must carry its result")
			}
			return
		}
		deadline++
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestHandleJobStatusUnknown(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodGet, "/api/v1/jobs/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDocumentsLifecycle(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodPost, "/api/v1/documents",
		`{"file_id":"doc-1","file_path":"/mnt/data/doc.txt","content":"Inhalt","mime_type":"text/plain"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("index: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/v1/documents", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list struct {
		FileIDs []string `json:"file_ids"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || len(list.FileIDs) != 1 || list.FileIDs[0] != "doc-1" {
		t.Errorf("list = %+v", list)
	}

	rec = doRequest(srv, http.MethodDelete, "/api/v1/documents?file_id=doc-1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	var del map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &del); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if del["deleted"] != 1 {
		t.Errorf("deleted = %d, want 1", del["deleted"])
	}
}

func TestHandleDeleteDocumentWithoutSelector(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodDelete, "/api/v1/documents", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, queue, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || !health.ModelsReady {
		t.Errorf("health = %+v", health)
	}

	queue.FailPing = true
	rec = doRequest(srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _, _, _ := newTestServer(t, "")

	rec := doRequest(srv, http.MethodGet, "/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.ModelsReady {
		t.Error("models ready must be reported")
	}
	if status.EmbeddingModel != "mock-embedding" || status.LLMModel != "mock-llm" {
		t.Errorf("models = %q / %q", status.EmbeddingModel, status.LLMModel)
	}
}
