// Package brief generates project briefs and task breakdowns with the
// Anthropic API. Without an API key the service degrades to deterministic
// placeholders so the rest of the product keeps working.
package brief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/DesmondSol/speedops/pkg/models"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second

	// DefaultModel is used when config names no model.
	DefaultModel = "claude-3-5-haiku-latest"
)

// Service wraps the Anthropic API for brief and breakdown generation.
type Service struct {
	client         anthropic.Client
	model          anthropic.Model
	enabled        bool
	log            *slog.Logger
	maxRetries     int
	initialBackoff time.Duration

	briefTmpl     *template.Template
	breakdownTmpl *template.Template
}

// NewService builds the service. Env var ANTHROPIC_API_KEY takes precedence
// over the explicit apiKey; with neither set the service runs disabled and
// serves placeholders.
func NewService(apiKey, model string, log *slog.Logger) (*Service, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}

	funcs := template.FuncMap{"join": strings.Join}
	briefTmpl, err := template.New("brief").Funcs(funcs).Parse(briefPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse brief template: %w", err)
	}
	breakdownTmpl, err := template.New("breakdown").Funcs(funcs).Parse(breakdownPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse breakdown template: %w", err)
	}

	s := &Service{
		model:          anthropic.Model(model),
		log:            log,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		briefTmpl:      briefTmpl,
		breakdownTmpl:  breakdownTmpl,
	}
	if apiKey != "" {
		s.client = anthropic.NewClient(option.WithAPIKey(apiKey))
		s.enabled = true
	}
	return s, nil
}

// Enabled reports whether real API calls will be made.
func (s *Service) Enabled() bool { return s.enabled }

type briefData struct {
	Name        string
	Client      string
	Description string
	Objectives  []string
	Team        []models.TeamMember
}

// GenerateBrief returns a five-section markdown brief. Any API failure
// degrades to the placeholder; the result is always renderable.
func (s *Service) GenerateBrief(ctx context.Context, p models.Project, team []models.TeamMember) string {
	if !s.enabled {
		return placeholderBrief(p)
	}
	var prompt strings.Builder
	data := briefData{Name: p.Name, Client: p.Client, Description: p.Description, Objectives: p.Objectives, Team: team}
	if err := s.briefTmpl.Execute(&prompt, data); err != nil {
		s.log.Warn("brief prompt render failed", "project", p.ID, "err", err)
		return placeholderBrief(p)
	}
	out, err := s.callWithRetry(ctx, prompt.String(), 1024)
	if err != nil {
		s.log.Warn("brief generation failed, serving placeholder", "project", p.ID, "err", err)
		return placeholderBrief(p)
	}
	return out
}

type breakdownData struct {
	Description string
	Team        []models.TeamMember
}

// GenerateBreakdown returns a structured plan. On any failure the breakdown
// is empty but well-formed, so project creation proceeds without tasks.
func (s *Service) GenerateBreakdown(ctx context.Context, description string, team []models.TeamMember) models.Breakdown {
	empty := models.Breakdown{Features: []models.Feature{}, Milestones: []models.MilestonePlan{}}
	if !s.enabled {
		return empty
	}
	var prompt strings.Builder
	if err := s.breakdownTmpl.Execute(&prompt, breakdownData{Description: description, Team: team}); err != nil {
		s.log.Warn("breakdown prompt render failed", "err", err)
		return empty
	}
	out, err := s.callWithRetry(ctx, prompt.String(), 4096)
	if err != nil {
		s.log.Warn("breakdown generation failed, serving empty plan", "err", err)
		return empty
	}
	bd, err := parseBreakdown(out)
	if err != nil {
		s.log.Warn("breakdown response unparseable, serving empty plan", "err", err)
		return empty
	}
	return bd
}

// parseBreakdown tolerates code fences and surrounding prose; the first
// top-level JSON object wins.
func parseBreakdown(raw string) (models.Breakdown, error) {
	empty := models.Breakdown{Features: []models.Feature{}, Milestones: []models.MilestonePlan{}}
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return empty, errors.New("no JSON object in response")
	}
	var bd models.Breakdown
	if err := json.Unmarshal([]byte(text[start:end+1]), &bd); err != nil {
		return empty, err
	}
	if bd.Features == nil {
		bd.Features = []models.Feature{}
	}
	if bd.Milestones == nil {
		bd.Milestones = []models.MilestonePlan{}
	}
	return bd, nil
}

func placeholderBrief(p models.Project) string {
	name := p.Name
	if name == "" {
		name = "Untitled project"
	}
	return fmt.Sprintf(`## Executive Summary
%s. AI generation is disabled; this is a placeholder brief.

## Objectives
To be filled in by the project lead.

## Scope
%s

## Team & Roles
To be assigned.

## Timeline & Milestones
To be scheduled.`, name, strings.TrimSpace(p.Description))
}

func (s *Service) callWithRetry(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := s.client.Messages.New(ctx, params)
		if err == nil {
			if len(message.Content) > 0 {
				content := message.Content[0]
				if content.Type == "text" {
					return content.Text, nil
				}
				return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
			}
			return "", errors.New("unexpected response format: no content blocks")
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", fmt.Errorf("non-retryable error: %w", err)
		}
	}
	return "", fmt.Errorf("failed after %d retries: %w", s.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
