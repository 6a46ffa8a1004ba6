// Package httpapi exposes the daemon's REST + SSE surface.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DesmondSol/speedops/internal/activity"
	"github.com/DesmondSol/speedops/internal/brief"
	"github.com/DesmondSol/speedops/internal/ingest"
	"github.com/DesmondSol/speedops/internal/stage"
	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/internal/store/postgres"
	"github.com/DesmondSol/speedops/internal/workflow"
	"github.com/DesmondSol/speedops/pkg/models"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read
// more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (dashboard dev server on a
// different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key,
// DB, pipeline, AI, metrics).
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	DBDriver       string       // "sqlite" (default) or "postgres"
	DBURL          string       // for postgres: connection string (or set DATABASE_URL env)
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
	Pipeline       *stage.Graph // custom stage pipeline; nil means the built-in six stages
	RequireProof   bool         // reject transitions without a proof link
	AIAPIKey       string       // Anthropic key; empty runs the brief service in placeholder mode
	AIModel        string
}

// App holds the HTTP server, SSE hub, store, workflow gate, and helpers.
type App struct {
	Server   *http.Server
	Hub      *SSEHub
	Store    store.Store
	Gate     *workflow.Gate
	Recorder *activity.Recorder
	Brief    *brief.Service
	Graph    *stage.Graph
	Home     string
}

// NewApp creates the HTTP app and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	hub := NewSSEHub()
	mux := http.NewServeMux()

	var st store.Store
	var err error
	if opts.DBDriver == "postgres" {
		st, err = postgres.Open(opts.DBURL)
	} else {
		st, err = store.Open(opts.Home)
	}
	if err != nil {
		return nil, err
	}
	st = store.WithRetry(st)

	graph := opts.Pipeline
	if graph == nil {
		graph = stage.Default()
	}
	recorder := activity.NewRecorder(st, slog.Default())
	gate := &workflow.Gate{
		Store:        st,
		Graph:        graph,
		Recorder:     recorder,
		RequireProof: opts.RequireProof,
	}
	briefSvc, err := brief.NewService(opts.AIAPIKey, opts.AIModel, slog.Default())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	app := &App{
		Hub:      hub,
		Store:    st,
		Gate:     gate,
		Recorder: recorder,
		Brief:    briefSvc,
		Graph:    graph,
		Home:     opts.Home,
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", app.handlePlainMetrics)
	}

	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Config{
			HumanName:   "human",
			Home:        opts.Home,
			BootstrapID: getBootstrapID(opts.Home),
		})
	})

	mux.HandleFunc("/bootstrap", app.handleBootstrap)
	mux.HandleFunc("/stream", hub.Handler())
	mux.HandleFunc("/workspaces", app.handleWorkspaces)
	mux.HandleFunc("/workspaces/", app.handleWorkspaceScoped)

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "speedops")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		recorder.Close()
		_ = st.Close()
	})

	app.Server = srv
	return app, nil
}

// handlePlainMetrics is the non-OTel fallback: a single per-stage task gauge
// in Prometheus text format, summed across all workspaces.
func (a *App) handlePlainMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	counts := make(map[string]int64, len(a.Graph.States()))
	for _, s := range a.Graph.States() {
		counts[s] = 0
	}
	workspaces, _ := a.Store.ListWorkspaces(r.Context())
	for _, ws := range workspaces {
		tasks, _ := a.Store.ListTasks(r.Context(), ws.ID, false)
		for _, t := range tasks {
			counts[t.Status]++
		}
	}
	_, _ = fmt.Fprintf(w, "# TYPE speedops_tasks_total gauge\n")
	for _, s := range a.Graph.States() {
		_, _ = fmt.Fprintf(w, "speedops_tasks_total{stage=%q} %d\n", s, counts[s])
	}
}

func (a *App) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workspaces, _ := a.Store.ListWorkspaces(ctx)
	out := models.Bootstrap{
		Config: models.Config{
			HumanName:   "human",
			Home:        a.Home,
			BootstrapID: getBootstrapID(a.Home),
		},
		Workspaces: workspaces,
	}
	if len(workspaces) == 0 {
		writeJSON(w, out)
		return
	}
	initial := workspaces[0].ID
	out.InitialWorkspace = &initial
	out.Projects, _ = a.Store.ListProjects(ctx, initial)
	out.Tasks, _ = a.Store.ListTasks(ctx, initial, false)
	out.Members, _ = a.Store.ListMembers(ctx, initial)
	out.Milestones, _ = a.Store.ListMilestones(ctx, initial)
	out.Clients, _ = a.Store.ListClients(ctx, initial)
	native, _ := a.Store.ListErrorLogs(ctx, initial)
	out.Errors = ingest.Queue(native, out.Tasks)
	out.Activity, _ = a.Store.ListActivity(ctx, initial, models.DefaultActivityListLimit)
	writeJSON(w, out)
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// getBootstrapID returns the stable per-install identifier, minting one on
// first use.
func getBootstrapID(home string) string {
	protected := filepath.Join(home, "protected")
	_ = os.MkdirAll(protected, 0o755)
	path := filepath.Join(protected, "bootstrap_id")
	if b, err := os.ReadFile(path); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s
		}
	}
	id := randomHex(16)
	_ = os.WriteFile(path, []byte(id+"\n"), 0o644)
	return id
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// fallback: time-based
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
