package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genfin-dev/genfin/internal/config"
	"github.com/genfin-dev/genfin/internal/events"
	"github.com/genfin-dev/genfin/internal/events/kafka"
	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/store/sqlite"
)

// env holds the wired-up runtime for one command invocation.
type env struct {
	cfg *config.Config
	st  *sqlite.Store
	lg  *ledger.Ledger

	closers []func() error
}

// openEnv loads config, opens the store, and builds the ledger. Callers must
// call close when done.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	st, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	e := &env{cfg: cfg, st: st}
	e.closers = append(e.closers, st.Close)

	var pub events.Publisher = events.Nop{}
	if cfg.Events.Enabled && len(cfg.Events.Brokers) > 0 {
		kp := kafka.NewPublisher(cfg.Events.Brokers)
		e.closers = append(e.closers, kp.Close)
		pub = kp
	}

	e.lg = ledger.New(st, pub, cfg.LedgerPolicy())
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}
