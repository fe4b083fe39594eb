// dcp-registryd serves the envelope registry gRPC service over a configured
// store backend. With --public-key set it refuses envelopes that fail bundle
// verification.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"dcp-ai.org/dcp/storage/registry"
	"dcp-ai.org/dcp/storage/regsvc"

	_ "dcp-ai.org/dcp/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("dcp-registryd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7433", "listen address")
	backend := fs.String("backend", "localfs", "envelope store backend name")
	publicKey := fs.String("public-key", "", "base64 ed25519 key; when set, unverifiable envelopes are refused")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	store, closeFn, err := registry.Open(*backend, registry.UsageDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	regsvc.RegisterRegistryServer(s, &regsvc.Server{Store: store, PublicKeyB64: *publicKey})

	fmt.Fprintf(os.Stderr, "dcp-registryd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
