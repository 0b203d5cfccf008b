package localfs

import (
	"flag"
	"fmt"

	"xdao.co/feereg/storage"
	"xdao.co/feereg/storage/storereg"
)

var flagLocalDir string

func init() {
	storereg.MustRegister(storereg.Backend{
		Name:        "localfs",
		Description: "Local filesystem journal store (directory)",
		Usage:       storereg.UsageCLI | storereg.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS journal directory (for --store=localfs)")
		},
		Open: func() (storage.Store, func() error, error) {
			if flagLocalDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			st, err := New(flagLocalDir)
			return st, nil, err
		},
	})
}
