package storereg

import (
	"flag"

	"xdao.co/feereg/storage"
)

// The memory backend ships with the registry itself: every binary that can
// open a backend can fall back to an in-process journal.
func init() {
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-process journal store (contents do not survive the process)",
		Usage:         UsageCLI | UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (storage.Store, func() error, error) {
			return storage.NewMemoryStore(), nil, nil
		},
	})
}
