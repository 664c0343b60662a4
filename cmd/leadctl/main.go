// Command leadctl prints dashboard views as JSON and runs cache maintenance
// against the same database and Redis the server uses.
package main

import (
	"context"
	"fmt"
	"os"

	_ "time/tzdata"

	"github.com/ignite/leadgen-crm/internal/app"
	"github.com/ignite/leadgen-crm/internal/pkg/distlock"
)

func main() {
	root := newRootCmd(openDeps)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDeps connects through the shared app wiring.
func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d := &deps{
		svc:   a.Service,
		loc:   a.Service.Engine().Location(),
		close: a.Close,
	}
	if a.Cache != nil {
		d.flusher = a.Cache
		d.lock = distlock.NewRedisLock(a.Redis, "cache-flush", cfg.Analytics.CacheTTL())
	}
	return d, nil
}
