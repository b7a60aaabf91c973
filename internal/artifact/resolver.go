package artifact

import (
	"context"

	log "github.com/sirupsen/logrus"
)

const (
	// StatusSuccess restricts base lookups to runs that completed green.
	StatusSuccess = "success"

	// defaultPageSize bounds each run listing; one page per tier is scanned.
	defaultPageSize = 30
	// defaultMaxRuns bounds how many runs per tier get their artifacts
	// scanned before falling through to the next tier.
	defaultMaxRuns = 5
)

// Tier is one run-lookup attempt of a retrieval plan.
type Tier struct {
	// Reason names the tier in logs ("commit", "branch").
	Reason string
	Filter RunFilter
}

// Plan is the full fallback policy for one retrieval, built once and then
// executed mechanically: tiers in order, and within every scanned run the
// candidate names in order. Policy as data keeps it testable on its own.
type Plan struct {
	Tiers []Tier
	Names []string
}

// BuildPlan derives the retrieval plan for a base lookup. A known base
// commit is tried first; the named base branch is the fallback. Either may
// be empty.
func BuildPlan(baseCommit, baseBranch string, key Key) Plan {
	p := Plan{Names: key.Candidates()}
	if baseCommit != "" {
		p.Tiers = append(p.Tiers, Tier{
			Reason: "commit",
			Filter: RunFilter{Commit: baseCommit, Status: StatusSuccess, Page: 1, PageSize: defaultPageSize},
		})
	}
	if baseBranch != "" {
		p.Tiers = append(p.Tiers, Tier{
			Reason: "branch",
			Filter: RunFilter{Branch: baseBranch, Status: StatusSuccess, Page: 1, PageSize: defaultPageSize},
		})
	}
	return p
}

// Hit is a successful base retrieval.
type Hit struct {
	RunID   int64
	Name    string
	Tier    string
	Payload []byte
}

// Resolver executes retrieval plans against a run lookup and artifact client.
type Resolver struct {
	Runs    RunLookup
	Client  Client
	MaxRuns int
}

// NewResolver builds a resolver with the default scan bound.
func NewResolver(runs RunLookup, client Client) *Resolver {
	return &Resolver{Runs: runs, Client: client, MaxRuns: defaultMaxRuns}
}

// Resolve walks the plan and returns the first unexpired artifact matching a
// candidate name, or nil when every tier exhausts. Absence of a baseline is
// an expected first-run condition, so nil is not an error; backend failures
// are logged and treated as a miss for that step so later tiers still run.
func (r *Resolver) Resolve(ctx context.Context, plan Plan) *Hit {
	if len(plan.Names) == 0 {
		return nil
	}
	for _, tier := range plan.Tiers {
		runs, err := r.Runs.ListRuns(ctx, tier.Filter)
		if err != nil {
			log.WithError(&StorageError{Op: OpScan, Err: err}).
				Warnf("base lookup: listing %s runs failed, trying next tier", tier.Reason)
			continue
		}
		if len(runs) == 0 {
			log.Debugf("base lookup: no successful runs in %s tier", tier.Reason)
			continue
		}
		if len(runs) > r.MaxRuns {
			runs = runs[:r.MaxRuns]
		}
		for _, run := range runs {
			hit := r.scanRun(ctx, run, plan.Names, tier.Reason)
			if hit != nil {
				return hit
			}
		}
	}
	return nil
}

// scanRun checks one run's artifact list against the candidate names in
// priority order. Expired entries never match.
func (r *Resolver) scanRun(ctx context.Context, run Run, names []string, tier string) *Hit {
	infos, err := r.Client.List(ctx, run.ID)
	if err != nil {
		log.WithError(&StorageError{Op: OpScan, Err: err}).
			Warnf("base lookup: listing artifacts of run %d failed, trying next run", run.ID)
		return nil
	}
	byName := make(map[string]Info, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	for _, name := range names {
		info, ok := byName[name]
		if !ok {
			continue
		}
		if info.Expired {
			log.Debugf("base lookup: artifact %q in run %d is expired, skipping", name, run.ID)
			continue
		}
		payload, err := r.Client.Download(ctx, info.ID)
		if err != nil {
			log.WithError(&StorageError{Op: OpDownload, Err: err}).
				Warnf("base lookup: downloading artifact %q failed, trying next candidate", name)
			continue
		}
		log.Infof("base lookup: found artifact %q in run %d (%s tier)", name, run.ID, tier)
		return &Hit{RunID: run.ID, Name: name, Tier: tier, Payload: payload}
	}
	return nil
}
