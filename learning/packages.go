package learning

import (
	"github.com/pkg/errors"
	"sort"
	"strings"
	"sync"
)

var (
	providedMu sync.RWMutex
	provided   = make(map[string]struct{})
)

// Provide registers packages as available. Algorithms call it from init for the packages their learners declare.
func Provide(packages ...string) {
	providedMu.Lock()
	defer providedMu.Unlock()
	for _, p := range packages {
		provided[p] = struct{}{}
	}
}

// RequirePackages checks that every package has been provided.
func RequirePackages(packages []string) error {
	providedMu.RLock()
	defer providedMu.RUnlock()
	var missing []string
	for _, p := range packages {
		if _, ok := provided[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Wrap(ErrMissingPackages, strings.Join(missing, ", "))
	}
	return nil
}
