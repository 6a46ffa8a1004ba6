package daemon

// StartOptions configures the daemon (home, port, DB, pipeline, AI, metrics).
type StartOptions struct {
	Home         string
	Port         int
	Dev          bool
	PprofAddr    string
	DBDriver     string // "sqlite" (default) or "postgres"
	DBURL        string // for postgres: connection string (or DATABASE_URL env)
	PipelineYML  string // optional custom stage pipeline file
	RequireProof bool   // reject transitions without a proof link
	AIModel      string // Anthropic model for briefs/breakdowns
	EnableOtel   bool   // OpenTelemetry metrics (Prometheus exporter + HTTP/SSE instrumentation)
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
