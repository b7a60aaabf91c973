package artifact

import (
	"strings"

	"github.com/reportcard-dev/reportcard/internal/summary"
)

// Key identifies one logical artifact: the ref it was produced for, the
// report kind, and the optional matrix qualifiers (coverage flags, variant
// leg, job name).
type Key struct {
	Ref     string
	Kind    summary.ReportKind
	Flags   []string
	Variant string
	Job     string
}

// Name is the current naming scheme, the only scheme ever written.
func (k Key) Name() string {
	parts := []string{"reportcard", string(k.Kind), sanitizeRef(k.Ref)}
	if len(k.Flags) > 0 {
		parts = append(parts, strings.Join(k.Flags, "_"))
	}
	if k.Variant != "" {
		parts = append(parts, k.Variant)
	}
	if k.Job != "" {
		parts = append(parts, k.Job)
	}
	return strings.Join(parts, "-")
}

// bareName is the current scheme with the matrix qualifiers dropped.
func (k Key) bareName() string {
	return strings.Join([]string{"reportcard", string(k.Kind), sanitizeRef(k.Ref)}, "-")
}

// legacyName is the pre-rename scheme, kept read-compatible because older
// base runs still carry artifacts under it.
func (k Key) legacyName() string {
	name := string(k.Kind) + "-report-" + sanitizeRef(k.Ref)
	if len(k.Flags) > 0 {
		name += "-" + strings.Join(k.Flags, "_")
	}
	return name
}

func (k Key) legacyBareName() string {
	return string(k.Kind) + "-report-" + sanitizeRef(k.Ref)
}

// Candidates is the ordered list of names tried during retrieval: current
// scheme with qualifiers, current without, legacy with, legacy without.
// Duplicates collapse (a key without qualifiers yields two candidates).
func (k Key) Candidates() []string {
	ordered := []string{k.Name(), k.bareName(), k.legacyName(), k.legacyBareName()}
	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, name := range ordered {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// WithRef returns a copy of the key addressing a different ref, used to
// derive the base lookup key from the current persist key.
func (k Key) WithRef(ref string) Key {
	k.Ref = ref
	return k
}

// sanitizeRef makes a branch name or SHA safe for artifact names: path
// separators and other reserved characters become dashes.
func sanitizeRef(ref string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	return r.Replace(ref)
}
