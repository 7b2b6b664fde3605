package vault

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const snapshotConcurrency = 10

// Store is the read/write surface the orchestration layer needs. Satisfied
// by *Bridge; tests substitute an in-memory implementation.
type Store interface {
	FetchSnapshot(paths []string) (map[string]string, error)
	Flush(pending map[string]string) error
}

// FetchSnapshot reads every given path and returns a map of path to the
// extracted canonical value. Absent paths are simply omitted; an ambiguous
// payload or transport failure aborts the whole fetch. Reads fan out with
// bounded concurrency; the returned snapshot is immutable by convention and
// is the only vault data the resolver ever sees.
func (b *Bridge) FetchSnapshot(paths []string) (map[string]string, error) {
	var mu sync.Mutex
	snapshot := make(map[string]string, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(snapshotConcurrency)

	for _, kvPath := range paths {
		kvPath := kvPath
		g.Go(func() error {
			data, err := b.Read(kvPath)
			if err != nil {
				return err
			}
			if data == nil {
				return nil
			}

			value, err := ExtractValue(data, kvPath)
			if err != nil {
				return err
			}

			mu.Lock()
			snapshot[kvPath] = value
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Int("requested", len(paths)).Int("found", len(snapshot)).Msg("fetched vault snapshot")

	return snapshot, nil
}

// Flush pushes every buffered plaintext to the store. Writes run
// sequentially in sorted path order; the first failure aborts the flush.
func (b *Bridge) Flush(pending map[string]string) error {
	paths := make([]string, 0, len(pending))
	for kvPath := range pending {
		paths = append(paths, kvPath)
	}
	sort.Strings(paths)

	for _, kvPath := range paths {
		if err := b.Write(kvPath, BuildPayload(kvPath, pending[kvPath])); err != nil {
			return err
		}
		log.Info().Str("path", kvPath).Msg("stored vault secret")
	}

	return nil
}
