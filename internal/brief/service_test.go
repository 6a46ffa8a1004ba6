package brief

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/pkg/models"
)

func newDisabledService(t *testing.T) *Service {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	s, err := NewService("", "", nil)
	require.NoError(t, err)
	require.False(t, s.Enabled())
	return s
}

func TestGenerateBrief_placeholderWhenDisabled(t *testing.T) {
	s := newDisabledService(t)
	p := models.Project{ID: "p1", Name: "Fleet Tracker", Description: "GPS dashboard for trucks"}

	got := s.GenerateBrief(context.Background(), p, nil)
	assert.Contains(t, got, "Fleet Tracker")
	assert.Contains(t, got, "GPS dashboard for trucks")
	for _, section := range []string{"## Executive Summary", "## Objectives", "## Scope", "## Team & Roles", "## Timeline & Milestones"} {
		assert.Contains(t, got, section)
	}
}

func TestGenerateBreakdown_emptyWhenDisabled(t *testing.T) {
	s := newDisabledService(t)
	bd := s.GenerateBreakdown(context.Background(), "build a thing", nil)
	assert.NotNil(t, bd.Features)
	assert.NotNil(t, bd.Milestones)
	assert.Empty(t, bd.Features)
	assert.Empty(t, bd.Milestones)
}

func TestParseBreakdown_stripsCodeFences(t *testing.T) {
	t.Parallel()
	raw := "```json\n{\"features\":[{\"featureName\":\"Auth\",\"tasks\":[{\"name\":\"login\",\"description\":\"d\",\"assigneeId\":\"m1\",\"acceptanceCriteria\":[\"works\"],\"startDay\":0,\"endDay\":2}]}],\"milestones\":[{\"title\":\"Beta\",\"description\":\"x\",\"dayOffset\":7}]}\n```"

	bd, err := parseBreakdown(raw)
	require.NoError(t, err)
	require.Len(t, bd.Features, 1)
	assert.Equal(t, "Auth", bd.Features[0].FeatureName)
	require.Len(t, bd.Features[0].Tasks, 1)
	assert.Equal(t, "login", bd.Features[0].Tasks[0].Name)
	assert.Equal(t, 2, bd.Features[0].Tasks[0].EndDay)
	require.Len(t, bd.Milestones, 1)
	assert.Equal(t, 7, bd.Milestones[0].DayOffset)
}

func TestParseBreakdown_toleratesSurroundingProse(t *testing.T) {
	t.Parallel()
	bd, err := parseBreakdown("Here is the plan:\n{\"features\":[],\"milestones\":[]}\nHope this helps!")
	require.NoError(t, err)
	assert.Empty(t, bd.Features)
	assert.NotNil(t, bd.Milestones)
}

func TestParseBreakdown_garbage(t *testing.T) {
	t.Parallel()
	_, err := parseBreakdown("no json here")
	require.Error(t, err)

	_, err = parseBreakdown("{not valid json}")
	require.Error(t, err)
}

func TestParseBreakdown_nilSlicesNormalized(t *testing.T) {
	t.Parallel()
	bd, err := parseBreakdown(`{"features": null, "milestones": null}`)
	require.NoError(t, err)
	assert.NotNil(t, bd.Features)
	assert.NotNil(t, bd.Milestones)
}
