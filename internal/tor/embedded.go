package tor

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// EmbeddedTor manages an embedded Tor daemon through tornago, so a
// spider node can run without a system Tor installation. Bootstrap
// takes one to three minutes on first start while the daemon fetches
// directory information and builds circuits.
type EmbeddedTor struct {
	// process is the running daemon, nil until Start succeeds.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 address assigned after startup.
	socksAddr string

	// startupTimeout bounds the bootstrap wait.
	startupTimeout time.Duration
}

// NewEmbeddedTor creates an embedded Tor manager. Call Start to launch
// the daemon.
func NewEmbeddedTor(startupTimeout time.Duration) *EmbeddedTor {
	if startupTimeout <= 0 {
		startupTimeout = 3 * time.Minute
	}
	return &EmbeddedTor{startupTimeout: startupTimeout}
}

// Start launches the daemon and blocks until it is bootstrapped or the
// startup timeout elapses. Ports are OS-assigned so multiple nodes can
// share a host.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return ctx.Err()
	default:
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. Safe to call multiple times.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	return err
}

// SocksAddr returns the daemon's SOCKS5 address, or "" before Start.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}
