package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/taskvoice/taskvoice/internal/audio"
	"github.com/taskvoice/taskvoice/internal/boards"
	"github.com/taskvoice/taskvoice/internal/config"
	"github.com/taskvoice/taskvoice/internal/credentials"
	"github.com/taskvoice/taskvoice/internal/gateway"
	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/recorder"
	"github.com/taskvoice/taskvoice/internal/resolver"
)

// runtime is everything one command invocation needs, opened from the
// data directory.
type runtime struct {
	dataDir  string
	cfg      *config.Config
	store    *credentials.Store
	journal  *log.Journal
	activity *log.Activity
	resolver *resolver.Resolver
}

func openRuntime(dataDirFlag string) (*runtime, error) {
	dir, err := config.DataDir(dataDirFlag)
	if err != nil {
		return nil, err
	}

	// Try to read config, use defaults if not initialized
	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		cfg = config.DefaultConfig()
	}

	store, err := credentials.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	var journal *log.Journal
	if cfg.Journal.Enabled {
		journal, err = log.NewJournal(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: activity journal disabled: %v\n", err)
			journal = nil
		}
	}
	activity := log.NewActivity(journal)

	return &runtime{
		dataDir:  dir,
		cfg:      cfg,
		store:    store,
		journal:  journal,
		activity: activity,
		resolver: resolver.New(store, activity),
	}, nil
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

func (rt *runtime) boards() *boards.Client {
	return boards.New(rt.cfg.Trello.APIBase, nil)
}

func (rt *runtime) gateway() (*gateway.Client, error) {
	var client *http.Client
	if d := rt.cfg.GatewayTimeout(); d > 0 {
		client = &http.Client{Timeout: d}
	}
	return gateway.New(gateway.Config{URL: rt.cfg.Gateway.URL, HTTPClient: client})
}

// recorder wires a Recorder to device, or to the configured capture
// command when device is nil.
func (rt *runtime) recorder(device audio.Device) (*recorder.Recorder, error) {
	gw, err := rt.gateway()
	if err != nil {
		return nil, err
	}
	if device == nil {
		device = audio.NewCommandDevice(rt.cfg.Audio.Command)
	}
	return recorder.New(rt.resolver, device, gw, rt.activity), nil
}
