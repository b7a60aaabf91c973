package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reportcard-dev/reportcard/internal/summary"
)

func TestKeyName(t *testing.T) {
	k := Key{Ref: "feature/login", Kind: summary.KindCoverage, Flags: []string{"unit", "e2e"}, Variant: "linux", Job: "build"}
	assert.Equal(t, "reportcard-coverage-feature-login-unit_e2e-linux-build", k.Name())

	bare := Key{Ref: "main", Kind: summary.KindTest}
	assert.Equal(t, "reportcard-test-main", bare.Name())
}

func TestKeyCandidatesOrder(t *testing.T) {
	k := Key{Ref: "main", Kind: summary.KindCoverage, Flags: []string{"unit"}, Variant: "linux"}
	assert.Equal(t, []string{
		"reportcard-coverage-main-unit-linux",
		"reportcard-coverage-main",
		"coverage-report-main-unit",
		"coverage-report-main",
	}, k.Candidates())
}

func TestKeyCandidatesCollapseWithoutQualifiers(t *testing.T) {
	k := Key{Ref: "main", Kind: summary.KindTest}
	assert.Equal(t, []string{
		"reportcard-test-main",
		"test-report-main",
	}, k.Candidates())
}

func TestSanitizeRef(t *testing.T) {
	k := Key{Ref: "release/v1.2 rc:1", Kind: summary.KindTest}
	assert.Equal(t, "reportcard-test-release-v1.2-rc-1", k.Name())
}

func TestWithRef(t *testing.T) {
	k := Key{Ref: "feature/x", Kind: summary.KindTest, Variant: "linux"}
	b := k.WithRef("main")
	assert.Equal(t, "reportcard-test-main-linux", b.Name())
	assert.Equal(t, "feature/x", k.Ref)
}
