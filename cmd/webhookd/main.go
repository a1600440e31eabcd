/*
main.go - webhook intake daemon

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store and seed the chart of accounts
  3. Wire ledger -> period -> events -> webhook dispatcher
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port  HTTP server port (default: 8090)
  -db    SQLite database path (default: paycore.db)
  -tenant  tenant id this daemon serves (default: default)

SEE ALSO:
  - cmd/server/main.go: flag parsing and shutdown pattern this mirrors
  - webhook/handler.go: router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/store/sqlite"
	"github.com/nodalpay/paycore/webhook"
)

func main() {
	port := flag.Int("port", 8090, "HTTP server port")
	dbPath := flag.String("db", "paycore.db", "SQLite database path")
	tenant := flag.String("tenant", "default", "tenant id this daemon serves")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer store.Close()

	tenantID := ledger.TenantID(*tenant)
	if err := sqlite.SeedChartOfAccounts(context.Background(), store, tenantID, nil, func(code string) string {
		return uuid.NewString()
	}); err != nil {
		log.Fatalf("failed to seed chart of accounts: %v", err)
	}

	cfg := config.Defaults()
	now := func() int64 { return time.Now().UnixNano() }

	ldg := ledger.New(store, store, cfg, now)
	periodCtl := period.New(store, store, cfg, now)
	handlers := events.New(ldg, periodCtl, store, cfg, now)

	secrets := webhook.StaticSecretResolver{}
	if envSecret := os.Getenv("WEBHOOK_SECRET"); envSecret != "" {
		secrets.Set(*tenant, "razorpay", envSecret)
		secrets.Set(*tenant, "payu", envSecret)
		secrets.Set(*tenant, "ccavenue", envSecret)
	}

	dispatcher := &webhook.Dispatcher{Events: handlers, Secrets: secrets, Provisioner: store}
	handler := webhook.NewHandler(dispatcher)
	router := webhook.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("webhookd listening on :%d (tenant=%s)", *port, *tenant)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down webhookd...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("webhookd stopped")
}
