/*
worker.go - background retry poll loop

Grounded in api.ReconciliationScheduler: a ticker-driven goroutine with
a stop channel and WaitGroup, generalized from "find assignments past
their period end" to "find settlements due for another retry attempt".
*/
package settlement

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nodalpay/paycore/ledger"
)

// RetryWorker polls for FAILED settlements whose backoff window has
// elapsed and retries each one. get_settlements_for_retry is specced
// as a per-tenant operation (spec §4.3, §5: "every query filters on
// tenant_id"), so the worker is handed the list of tenants it serves
// and polls each one in turn rather than scanning across tenants.
type RetryWorker struct {
	Machine       *Machine
	Tenants       []ledger.TenantID
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetryWorker builds a worker polling every minute, matching the
// specification's "poll get_settlements_for_retry every ~1 minute".
func NewRetryWorker(m *Machine, tenants ...ledger.TenantID) *RetryWorker {
	return &RetryWorker{
		Machine:       m,
		Tenants:       tenants,
		CheckInterval: time.Minute,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the poll loop in a background goroutine.
func (w *RetryWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.Enabled {
		log.Println("[SettlementRetryWorker] disabled, not starting")
		return
	}

	w.ticker = time.NewTicker(w.CheckInterval)
	w.wg.Add(1)
	go w.run()

	log.Printf("[SettlementRetryWorker] started, check interval %v", w.CheckInterval)
}

// Stop halts the poll loop and waits for the in-flight tick to finish.
func (w *RetryWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ticker != nil {
		w.ticker.Stop()
		close(w.stop)
		w.wg.Wait()
		log.Println("[SettlementRetryWorker] stopped")
	}
}

func (w *RetryWorker) run() {
	defer w.wg.Done()

	w.tick()
	for {
		select {
		case <-w.ticker.C:
			w.tick()
		case <-w.stop:
			return
		}
	}
}

func (w *RetryWorker) tick() {
	ctx := context.Background()

	retried, exhausted := 0, 0
	for _, tenant := range w.Tenants {
		due, err := w.Machine.SettlementsDueForRetry(ctx, tenant)
		if err != nil {
			log.Printf("[SettlementRetryWorker] error listing due settlements for tenant %s: %v", tenant, err)
			continue
		}

		for _, s := range due {
			if _, err := w.Machine.RetrySettlement(ctx, s.TenantID, s.ID, "retry-worker"); err != nil {
				if IsClientError(err) {
					exhausted++
					continue
				}
				log.Printf("[SettlementRetryWorker] error retrying settlement %s: %v", s.ID, err)
				continue
			}
			retried++
		}
	}

	if retried > 0 || exhausted > 0 {
		log.Printf("[SettlementRetryWorker] retried=%d exhausted=%d", retried, exhausted)
	}
}

// RunNow triggers an immediate poll, for tests and manual operation.
func (w *RetryWorker) RunNow() { w.tick() }
