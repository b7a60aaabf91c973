package artifact

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportcard-dev/reportcard/internal/summary"
)

type fakeBackend struct {
	// runsByCommit / runsByBranch answer ListRuns.
	runsByCommit map[string][]Run
	runsByBranch map[string][]Run
	listRunsErr  error

	// artifacts per run id; payloads per artifact id.
	artifacts map[int64][]Info
	payloads  map[string][]byte

	listErr     map[int64]error
	downloadErr map[string]error

	putErr   error
	puts     map[string][]byte
	listings int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		runsByCommit: map[string][]Run{},
		runsByBranch: map[string][]Run{},
		artifacts:    map[int64][]Info{},
		payloads:     map[string][]byte{},
		listErr:      map[int64]error{},
		downloadErr:  map[string]error{},
		puts:         map[string][]byte{},
	}
}

func (f *fakeBackend) ListRuns(_ context.Context, filter RunFilter) ([]Run, error) {
	if f.listRunsErr != nil {
		return nil, f.listRunsErr
	}
	if filter.Commit != "" {
		return f.runsByCommit[filter.Commit], nil
	}
	return f.runsByBranch[filter.Branch], nil
}

func (f *fakeBackend) Put(_ context.Context, name string, payload []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts[name] = payload
	return strconv.Itoa(len(f.puts)), nil
}

func (f *fakeBackend) List(_ context.Context, runID int64) ([]Info, error) {
	f.listings++
	if err := f.listErr[runID]; err != nil {
		return nil, err
	}
	return f.artifacts[runID], nil
}

func (f *fakeBackend) Download(_ context.Context, id string) ([]byte, error) {
	if err := f.downloadErr[id]; err != nil {
		return nil, err
	}
	payload, ok := f.payloads[id]
	if !ok {
		return nil, fmt.Errorf("no payload for artifact %s", id)
	}
	return payload, nil
}

func coverageKey() Key {
	return Key{Ref: "main", Kind: summary.KindCoverage, Flags: []string{"unit"}}
}

func TestBuildPlan(t *testing.T) {
	p := BuildPlan("abc123", "main", coverageKey())
	require.Len(t, p.Tiers, 2)
	assert.Equal(t, "commit", p.Tiers[0].Reason)
	assert.Equal(t, "abc123", p.Tiers[0].Filter.Commit)
	assert.Equal(t, StatusSuccess, p.Tiers[0].Filter.Status)
	assert.Equal(t, defaultPageSize, p.Tiers[0].Filter.PageSize)
	assert.Equal(t, "branch", p.Tiers[1].Reason)
	assert.Equal(t, "main", p.Tiers[1].Filter.Branch)
	assert.Len(t, p.Names, 4)

	p = BuildPlan("", "main", coverageKey())
	require.Len(t, p.Tiers, 1)
	assert.Equal(t, "branch", p.Tiers[0].Reason)

	p = BuildPlan("", "", coverageKey())
	assert.Empty(t, p.Tiers)
}

// SHA tier has no runs; the branch run only carries the artifact under the
// legacy unqualified name. The resolver must land on it via tier 2, name
// candidate 4, without raising.
func TestResolve_BranchTierLegacyName(t *testing.T) {
	f := newFakeBackend()
	f.runsByBranch["main"] = []Run{{ID: 42, Number: 7}}
	f.artifacts[42] = []Info{{ID: "a1", Name: "coverage-report-main", Expired: false}}
	f.payloads["a1"] = []byte("payload")

	r := NewResolver(f, f)
	hit := r.Resolve(context.Background(), BuildPlan("deadbeef", "main", coverageKey()))

	require.NotNil(t, hit)
	assert.Equal(t, int64(42), hit.RunID)
	assert.Equal(t, "coverage-report-main", hit.Name)
	assert.Equal(t, "branch", hit.Tier)
	assert.Equal(t, []byte("payload"), hit.Payload)
}

func TestResolve_CommitTierWins(t *testing.T) {
	f := newFakeBackend()
	f.runsByCommit["deadbeef"] = []Run{{ID: 1}}
	f.runsByBranch["main"] = []Run{{ID: 2}}
	f.artifacts[1] = []Info{{ID: "c1", Name: "reportcard-coverage-main-unit"}}
	f.artifacts[2] = []Info{{ID: "b1", Name: "reportcard-coverage-main-unit"}}
	f.payloads["c1"] = []byte("from-commit")
	f.payloads["b1"] = []byte("from-branch")

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("deadbeef", "main", coverageKey()))

	require.NotNil(t, hit)
	assert.Equal(t, "commit", hit.Tier)
	assert.Equal(t, []byte("from-commit"), hit.Payload)
}

// An expired artifact never matches even when its name does; with no
// unexpired candidate anywhere the result is a clean miss.
func TestResolve_ExpiredSkipped(t *testing.T) {
	f := newFakeBackend()
	f.runsByBranch["main"] = []Run{{ID: 5}}
	f.artifacts[5] = []Info{{ID: "x", Name: "reportcard-coverage-main-unit", Expired: true}}

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("", "main", coverageKey()))
	assert.Nil(t, hit)
}

func TestResolve_ExpiredFallsThroughToNextRun(t *testing.T) {
	f := newFakeBackend()
	f.runsByBranch["main"] = []Run{{ID: 5}, {ID: 4}}
	f.artifacts[5] = []Info{{ID: "x", Name: "reportcard-coverage-main-unit", Expired: true}}
	f.artifacts[4] = []Info{{ID: "y", Name: "reportcard-coverage-main-unit"}}
	f.payloads["y"] = []byte("older")

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("", "main", coverageKey()))
	require.NotNil(t, hit)
	assert.Equal(t, int64(4), hit.RunID)
}

func TestResolve_CandidateOrderWithinRun(t *testing.T) {
	f := newFakeBackend()
	f.runsByBranch["main"] = []Run{{ID: 9}}
	f.artifacts[9] = []Info{
		{ID: "legacy", Name: "coverage-report-main"},
		{ID: "current", Name: "reportcard-coverage-main-unit"},
	}
	f.payloads["legacy"] = []byte("legacy")
	f.payloads["current"] = []byte("current")

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("", "main", coverageKey()))
	require.NotNil(t, hit)
	assert.Equal(t, []byte("current"), hit.Payload)
}

func TestResolve_ScanErrorsDegradeToMiss(t *testing.T) {
	f := newFakeBackend()
	f.listRunsErr = fmt.Errorf("api down")

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("sha", "main", coverageKey()))
	assert.Nil(t, hit)
}

func TestResolve_DownloadErrorTriesNextCandidate(t *testing.T) {
	f := newFakeBackend()
	f.runsByBranch["main"] = []Run{{ID: 3}}
	f.artifacts[3] = []Info{
		{ID: "broken", Name: "reportcard-coverage-main-unit"},
		{ID: "ok", Name: "coverage-report-main"},
	}
	f.downloadErr["broken"] = fmt.Errorf("410 gone")
	f.payloads["ok"] = []byte("fallback")

	hit := NewResolver(f, f).Resolve(context.Background(), BuildPlan("", "main", coverageKey()))
	require.NotNil(t, hit)
	assert.Equal(t, "coverage-report-main", hit.Name)
}

func TestResolve_RunScanIsBounded(t *testing.T) {
	f := newFakeBackend()
	runs := []Run{}
	for i := int64(1); i <= 20; i++ {
		runs = append(runs, Run{ID: i})
	}
	f.runsByBranch["main"] = runs

	r := NewResolver(f, f)
	hit := r.Resolve(context.Background(), BuildPlan("", "main", coverageKey()))
	assert.Nil(t, hit)
	assert.Equal(t, defaultMaxRuns, f.listings)
}

func TestResolve_EmptyPlan(t *testing.T) {
	f := newFakeBackend()
	assert.Nil(t, NewResolver(f, f).Resolve(context.Background(), Plan{}))
}
