package artifact

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportcard-dev/reportcard/internal/summary"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	in := &summary.CoverageSummary{
		Statements:        10,
		StatementsCovered: 7,
		LineRate:          70.0,
		Files:             []summary.FileCoverage{{Path: "a.go", Statements: 10, StatementsCovered: 7, LineRate: 70.0}},
	}
	payload, err := Encode(in)
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)

	out := &summary.CoverageSummary{}
	require.NoError(t, Decode(payload, out))
	assert.Equal(t, in, out)
}

// Artifacts written before the rename are plain JSON; Decode sniffs the
// payload instead of assuming compression.
func TestDecodeLegacyPlainJSON(t *testing.T) {
	out := &summary.TestSummary{}
	require.NoError(t, Decode([]byte(`{"total":3,"passed":2,"failed":1,"skipped":0,"passRate":66.67,"totalTime":1.5,"cases":[]}`), out))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 66.67, out.PassRate)
}

func TestDecodeGarbage(t *testing.T) {
	assert.Error(t, Decode([]byte("not json"), &summary.TestSummary{}))
}

func TestStorePersist(t *testing.T) {
	f := newFakeBackend()
	store := NewStore(f, f)
	key := Key{Ref: "feature/x", Kind: summary.KindTest}

	store.Persist(context.Background(), key, &summary.TestSummary{Total: 1, Passed: 1, PassRate: 100})

	payload, ok := f.puts["reportcard-test-feature-x"]
	require.True(t, ok, "artifact uploaded under the current scheme name")
	out := &summary.TestSummary{}
	require.NoError(t, Decode(payload, out))
	assert.Equal(t, 1, out.Total)
}

// An artifact-store outage must degrade the run, never fail it.
func TestStorePersist_UploadFailureSwallowed(t *testing.T) {
	f := newFakeBackend()
	f.putErr = fmt.Errorf("503 service unavailable")
	store := NewStore(f, f)

	assert.NotPanics(t, func() {
		store.Persist(context.Background(), Key{Ref: "main", Kind: summary.KindTest}, &summary.TestSummary{})
	})
	assert.Empty(t, f.puts)
}

func TestStoreFetchBase(t *testing.T) {
	f := newFakeBackend()
	payload, err := Encode(&summary.CoverageSummary{Statements: 4, StatementsCovered: 2, LineRate: 50})
	require.NoError(t, err)
	f.runsByBranch["main"] = []Run{{ID: 8}}
	f.artifacts[8] = []Info{{ID: "a", Name: "reportcard-coverage-main"}}
	f.payloads["a"] = payload

	store := NewStore(f, f)
	base := &summary.CoverageSummary{}
	found, err := store.FetchBase(context.Background(), "", "main", Key{Ref: "main", Kind: summary.KindCoverage}, base)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 50.0, base.LineRate)
}

func TestStoreFetchBase_NotFoundIsClean(t *testing.T) {
	f := newFakeBackend()
	store := NewStore(f, f)
	found, err := store.FetchBase(context.Background(), "", "main", Key{Ref: "main", Kind: summary.KindCoverage}, &summary.CoverageSummary{})
	require.NoError(t, err)
	assert.False(t, found)
}
