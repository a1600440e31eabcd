/*
main.go - settlement retry worker daemon

Polls for FAILED settlements whose backoff has elapsed and retries them,
per settlement.RetryWorker. Grounded in cmd/server/main.go's flag and
graceful-shutdown pattern; there is no HTTP surface here, just the
ticker loop and a signal-driven stop.
*/
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/settlement"
	"github.com/nodalpay/paycore/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "paycore.db", "SQLite database path")
	interval := flag.Duration("interval", time.Minute, "poll interval for due retries")
	tenantsFlag := flag.String("tenants", "default", "comma-separated tenant ids to poll for due retries")
	flag.Parse()

	var tenants []ledger.TenantID
	for _, t := range strings.Split(*tenantsFlag, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tenants = append(tenants, ledger.TenantID(t))
		}
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer store.Close()

	cfg := config.Defaults()
	now := func() int64 { return time.Now().UnixNano() }

	ldg := ledger.New(store, store, cfg, now)
	periodCtl := period.New(store, store, cfg, now)
	handlers := events.New(ldg, periodCtl, store, cfg, now)
	machine := settlement.New(store, handlers, store, cfg, now)

	worker := settlement.NewRetryWorker(machine, tenants...)
	worker.CheckInterval = *interval
	worker.Start()
	log.Printf("retryworker polling every %s for tenants %v", *interval, tenants)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down retryworker...")
	worker.Stop()
	log.Println("retryworker stopped")
}
