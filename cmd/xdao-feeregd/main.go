package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"xdao.co/feereg/audit"
	"xdao.co/feereg/grpcregistry"
	"xdao.co/feereg/registry"
	"xdao.co/feereg/storage"
	"xdao.co/feereg/storage/storeconfig"
	"xdao.co/feereg/storage/storereg"
	"xdao.co/feereg/token"

	_ "xdao.co/feereg/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("xdao-feeregd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7788", "listen address")
	chainID := fs.Uint64("chain-id", 1, "chain id mixed into authorization digests")
	store := fs.String("store", "memory", "audit journal store backend name; with --store-config, the preferred (write) backend")
	storeConfig := fs.String("store-config", "", "JSON file composing multiple journal store backends (write_policy first|all)")
	listStores := fs.Bool("list-stores", false, "List supported store backends and exit")
	operatorSeedHex := fs.String("operator-seed-hex", "", "ed25519 operator seed as 64 hex chars (generated when empty)")

	storereg.RegisterFlags(fs, storereg.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listStores {
		for _, b := range storereg.List(storereg.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	var journalStore storage.Store
	var closeFn func() error
	var err error
	if *storeConfig != "" {
		cfg, cfgErr := storeconfig.LoadFile(*storeConfig)
		if cfgErr != nil {
			fmt.Fprintln(os.Stderr, cfgErr)
			os.Exit(2)
		}
		preferred := ""
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "store" {
				preferred = *store
			}
		})
		journalStore, closeFn, err = cfg.Open(storereg.UsageDaemon, preferred)
	} else {
		journalStore, closeFn, err = storereg.Open(*store, storereg.UsageDaemon)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	var seed []byte
	if *operatorSeedHex != "" {
		seed, err = hex.DecodeString(*operatorSeedHex)
		if err != nil || len(seed) != ed25519.SeedSize {
			fmt.Fprintln(os.Stderr, "invalid --operator-seed-hex: need 32 bytes (64 hex chars)")
			os.Exit(2)
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	attestor, err := audit.NewEd25519Attestor(ed25519.NewKeyFromSeed(seed))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	journal := audit.NewJournal(journalStore, attestor, audit.WithJournalChainID(*chainID))
	reg := registry.New(token.NewLedger(),
		registry.WithChainID(*chainID),
		registry.WithEmitter(journal),
	)

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcregistry.RegisterRegistryServer(s, &grpcregistry.Server{Registry: reg})

	storeDesc := *store
	if *storeConfig != "" {
		storeDesc = "config:" + *storeConfig
	}
	fmt.Fprintf(os.Stderr, "xdao-feeregd listening on %s (chain-id=%d store=%s operator=%s)\n",
		lis.Addr().String(), *chainID, storeDesc, attestor.OperatorKey())
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
