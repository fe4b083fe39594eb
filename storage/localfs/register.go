package localfs

import (
	"flag"
	"fmt"

	"dcp-ai.org/dcp/storage"
	"dcp-ai.org/dcp/storage/registry"
)

var flagLocalDir string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem envelope store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "Envelope store directory (for --backend=localfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			if flagLocalDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			st, err := New(flagLocalDir)
			return st, nil, err
		},
	})
}
