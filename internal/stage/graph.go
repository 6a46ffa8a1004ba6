// Package stage defines the task pipeline: the ordered set of stages and
// which transitions between them are legal.
package stage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DesmondSol/speedops/pkg/models"
)

// Graph is an ordered pipeline of task stages. Transitions are permissive:
// any known stage can be reached from any other known stage, in either
// direction — regression (e.g. Review back to In Progress) is a supported
// workflow, and Completed is a status value, not a lock.
type Graph struct {
	states []string
	index  map[string]int
}

// Default returns the built-in six-stage pipeline.
func Default() *Graph {
	g, _ := New([]string{
		models.StatusBacklog,
		models.StatusInProgress,
		models.StatusTesting,
		models.StatusQA,
		models.StatusReview,
		models.StatusCompleted,
	})
	return g
}

// New builds a graph from an ordered state list. At least two unique,
// non-empty states are required.
func New(states []string) (*Graph, error) {
	if len(states) < 2 {
		return nil, fmt.Errorf("pipeline needs at least 2 stages, got %d", len(states))
	}
	index := make(map[string]int, len(states))
	for i, s := range states {
		if s == "" {
			return nil, fmt.Errorf("stage %d is empty", i)
		}
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("duplicate stage %q", s)
		}
		index[s] = i
	}
	return &Graph{states: append([]string(nil), states...), index: index}, nil
}

// pipelineFile is the YAML shape for custom pipelines.
type pipelineFile struct {
	States []string `yaml:"states"`
}

// Load reads a custom pipeline definition from a YAML file.
func Load(path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf pipelineFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("parse pipeline %s: %w", path, err)
	}
	g, err := New(pf.States)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", path, err)
	}
	return g, nil
}

// States returns the stages in pipeline order.
func (g *Graph) States() []string {
	return append([]string(nil), g.states...)
}

// Initial returns the pipeline's first stage.
func (g *Graph) Initial() string {
	return g.states[0]
}

// Terminal returns the pipeline's last stage.
func (g *Graph) Terminal() string {
	return g.states[len(g.states)-1]
}

// Contains reports whether s is a stage in this pipeline.
func (g *Graph) Contains(s string) bool {
	_, ok := g.index[s]
	return ok
}

// IsLegalTransition reports whether from → to is legal: both stages must be
// known and distinct. No forward-only restriction is imposed.
func (g *Graph) IsLegalTransition(from, to string) bool {
	if from == to {
		return false
	}
	return g.Contains(from) && g.Contains(to)
}
