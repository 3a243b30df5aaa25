package health

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DBHealthChecker monitors a Postgres connection via periodic ping.
type DBHealthChecker struct {
	db           *sql.DB
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewDBHealthChecker(db *sql.DB, log zerolog.Logger, probeTimeout time.Duration) *DBHealthChecker {
	hc := &DBHealthChecker{db: db, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (hc *DBHealthChecker) Name() string    { return "postgres" }
func (hc *DBHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

func (hc *DBHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.db.PingContext(checkCtx); err != nil {
			hc.healthy.Store(0)
			hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("postgres health check failed")
			return
		}
		hc.healthy.Store(1)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
