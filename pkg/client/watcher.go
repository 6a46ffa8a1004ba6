package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/DesmondSol/speedops/internal/mirror"
)

// StreamEvent is one /stream message: an invalidation naming the workspace
// collection that changed.
type StreamEvent struct {
	Type       string `json:"type"`
	Workspace  string `json:"workspace,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// Watcher consumes /stream and keeps a local snapshot cache current: on every
// invalidation it refetches the named collection and replaces the snapshot
// whole. Use Snapshot to read and Seq to cheaply detect change.
type Watcher struct {
	Client *Client
	Log    *slog.Logger

	// OnEvent, when set, is called for every decoded stream event after the
	// cache has been refreshed.
	OnEvent func(StreamEvent)

	cache *mirror.Cache
}

// NewWatcher returns a watcher bound to the given API client.
func NewWatcher(c *Client) *Watcher {
	return &Watcher{Client: c, cache: mirror.New()}
}

func (w *Watcher) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}

// Snapshot returns the cached raw JSON for a workspace collection, or
// ok=false if nothing has been fetched yet.
func (w *Watcher) Snapshot(workspace, collection string) (json.RawMessage, bool) {
	return w.cache.Get(workspace, collection)
}

// Seq returns the cache sequence number; it increases on every refresh.
func (w *Watcher) Seq() uint64 {
	return w.cache.Seq()
}

// Run connects to /stream and processes events until ctx is cancelled,
// reconnecting with exponential backoff on stream failure.
func (w *Watcher) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry forever; ctx bounds the loop

	return backoff.Retry(func() error {
		err := w.stream(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err != nil {
			w.logger().Warn("stream dropped, reconnecting", "err", err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

func (w *Watcher) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.Client.BaseURL+"/stream", nil)
	if err != nil {
		return err
	}
	if w.Client.APIKey != "" {
		req.Header.Set("X-API-Key", w.Client.APIKey)
	}
	resp, err := w.Client.client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return io.EOF
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		if ev.Type == "invalidate" && ev.Workspace != "" && ev.Collection != "" {
			w.refresh(ctx, ev.Workspace, ev.Collection)
		}
		if w.OnEvent != nil {
			w.OnEvent(ev)
		}
	}
	return scanner.Err()
}

// refresh refetches one collection and replaces the cached snapshot.
func (w *Watcher) refresh(ctx context.Context, workspace, collection string) {
	resp, err := w.Client.do(ctx, http.MethodGet, wsPath(workspace, "/"+collection), nil)
	if err != nil {
		w.logger().Warn("snapshot refetch failed", "workspace", workspace, "collection", collection, "err", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	w.cache.Apply(workspace, collection, raw)
}
