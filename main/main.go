// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/vaultvm/vaultvm"
)

const shutdownTimeout = 5 * time.Second

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", vaultvm.Name, vaultvm.Version)
		os.Exit(0)
	}

	cfg, err := parseConfig(v)
	if err != nil {
		fmt.Printf("couldn't parse config: %s\n", err)
		os.Exit(1)
	}
	lvl, err := log.LvlFromString(cfg.LogLevel)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("vault vm exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(prometheus.NewGoCollector()); err != nil {
		return err
	}

	vm, db, err := startVM(cfg, registry)
	if err != nil {
		return err
	}
	defer stopVM(vm, db)

	mux, err := newMux(vm, registry)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:    cfg.address(),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving vault vm", "address", cfg.address())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// openDB opens the ledger under [dir], or an in-memory ledger if [dir] is
// empty.
func openDB(dir string) (database.Database, error) {
	if dir == "" {
		log.Warn("no database directory set, the ledger will not survive a restart")
		return memdb.New(), nil
	}
	log.Info("opening ledger", "dir", dir)
	return leveldb.New(dir, nil, logging.NoLog{})
}

// startVM opens the ledger described by [cfg] and initializes a vm on it.
// Genesis is only applied to an empty ledger.
func startVM(cfg *config, registerer prometheus.Registerer) (*vaultvm.VM, database.Database, error) {
	var genesisBytes []byte
	if cfg.GenesisFile != "" {
		b, err := os.ReadFile(cfg.GenesisFile)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't read genesis: %w", err)
		}
		genesisBytes = b
	}

	vm, err := (&vaultvm.Factory{ProgramID: cfg.VM.ProgramID}).New()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cfg.DBDir)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open database: %w", err)
	}
	if err := vm.Initialize(db, genesisBytes, cfg.VM, registerer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return vm, db, nil
}

// stopVM shuts [vm] down and then closes the ledger under it.
func stopVM(vm *vaultvm.VM, db database.Database) {
	if err := vm.Shutdown(); err != nil {
		log.Error("error shutting down vm", "err", err)
	}
	if err := db.Close(); err != nil {
		log.Error("error closing database", "err", err)
	}
}

// newMux mounts the vm's handlers under /ext/vault and its metrics under
// /metrics.
func newMux(vm *vaultvm.VM, gatherer prometheus.Gatherer) (*http.ServeMux, error) {
	handlers, err := vm.CreateHandlers()
	if err != nil {
		return nil, err
	}
	staticHandlers, err := vm.CreateStaticHandlers()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	for ext, handler := range handlers {
		mux.Handle("/ext/vault"+ext, handler)
	}
	for ext, handler := range staticHandlers {
		mux.Handle("/ext/vault/static"+ext, handler)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux, nil
}
