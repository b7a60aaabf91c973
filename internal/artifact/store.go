package artifact

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Store ties the naming scheme, codec and backends together for one run.
type Store struct {
	client   Client
	resolver *Resolver
}

// NewStore builds a store over the given backends.
func NewStore(client Client, runs RunLookup) *Store {
	return &Store{client: client, resolver: NewResolver(runs, client)}
}

// Persist uploads v under the key's current-scheme name. Persisting is a
// best-effort side channel: failures are logged and swallowed so a storage
// outage degrades the run to "no comparison available" instead of failing it.
func (s *Store) Persist(ctx context.Context, key Key, v interface{}) {
	payload, err := Encode(v)
	if err != nil {
		log.WithError(err).Warnf("skipping artifact upload for %q: encoding failed", key.Name())
		return
	}
	id, err := s.client.Put(ctx, key.Name(), payload)
	if err != nil {
		log.WithError(&StorageError{Op: OpUpload, Err: err}).
			Warnf("artifact upload for %q failed, continuing without persisted summary", key.Name())
		return
	}
	log.Infof("persisted %s summary as artifact %q (id %s)", key.Kind, key.Name(), id)
}

// FetchBase retrieves and decodes the base summary for key, searching the
// given base commit and branch per the fallback plan. A (false, nil) return
// means no baseline exists anywhere, which is a clean first-run condition.
func (s *Store) FetchBase(ctx context.Context, baseCommit, baseBranch string, key Key, v interface{}) (bool, error) {
	plan := BuildPlan(baseCommit, baseBranch, key)
	hit := s.resolver.Resolve(ctx, plan)
	if hit == nil {
		return false, nil
	}
	if err := Decode(hit.Payload, v); err != nil {
		return false, err
	}
	return true, nil
}
