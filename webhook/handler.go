/*
handler.go - chi mux and HTTP intake for gateway webhooks

Grounded in api/server.go's chi.NewRouter + middleware stack; this
surface is deliberately thin - one route, logger/recoverer/requestid
middleware, and a CORS policy scoped to nothing (server-to-server
webhooks don't need browser CORS, but the dependency stays wired for
a health-check route a reverse proxy might poll from a browser tool).
*/
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
)

// SecretResolver looks up the shared signing secret for a tenant's
// gateway webhook integration.
type SecretResolver interface {
	SecretForTenant(tenantID, gatewayName string) (string, error)
}

// MerchantProvisioner seeds a merchant's ledger sub-accounts on first
// use. Optional: a Dispatcher with no Provisioner assumes every
// merchant account was already seeded out of band (the case in most
// tests in this package).
type MerchantProvisioner interface {
	EnsureMerchantAccounts(ctx context.Context, tenant ledger.TenantID, merchantKey string) error
}

// Dispatcher applies a verified, normalized payload to the ledger via
// the event handlers.
type Dispatcher struct {
	Events      *events.Handlers
	Secrets     SecretResolver
	Provisioner MerchantProvisioner
}

// Handler serves the webhook intake route.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(d *Dispatcher) *Handler { return &Handler{dispatcher: d} }

// NewRouter builds the chi mux for the webhook surface.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"POST", "GET"},
		AllowedHeaders: []string{"Content-Type", "X-Webhook-Signature"},
	}))

	r.Get("/healthz", h.Health)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/{tenantID}/{gatewayName}", h.Intake)
	})
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	gatewayName := chi.URLParam(r, "gatewayName")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	secret, err := h.dispatcher.Secrets.SecretForTenant(tenantID, gatewayName)
	if err != nil {
		log.Printf("[webhook] secret lookup failed for tenant=%s gateway=%s: %v", tenantID, gatewayName, err)
		http.Error(w, "unknown webhook source", http.StatusUnauthorized)
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if err := VerifySignature(body, secret, signature); err != nil {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txnID, err := h.dispatcher.Apply(r.Context(), ledger.TenantID(tenantID), gatewayName, payload)
	if err != nil {
		log.Printf("[webhook] apply failed for tenant=%s gateway=%s: %v", tenantID, gatewayName, err)
		http.Error(w, "processing failed", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Acknowledgement{
		Success:       true,
		Acknowledged:  true,
		TransactionID: txnID,
		Status:        string(payload.Status()),
	})
}

// Apply routes a normalized, validated UPI QR payment payload to the
// event handlers. Only a SUCCESS-mapped payload triggers a ledger
// post; FAILED, PENDING and PROCESSING are acknowledged without
// posting, since nothing balanced has happened yet.
func (d *Dispatcher) Apply(ctx context.Context, tenant ledger.TenantID, gatewayName string, payload Payload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		return "", fmt.Errorf("parsing amount %q: %w", payload.Amount, err)
	}

	orderKey := payload.OrderKey()
	merchantKey := payload.MerchantID
	if merchantKey == "" {
		merchantKey = orderKey
	}

	if d.Provisioner != nil {
		if err := d.Provisioner.EnsureMerchantAccounts(ctx, tenant, merchantKey); err != nil {
			return "", fmt.Errorf("provisioning merchant accounts: %w", err)
		}
	}

	pc := events.PostingContext{
		TenantID:    tenant,
		MerchantKey: merchantKey,
		PostingDate: time.Now().UTC(),
		ActorID:     "webhook:" + gatewayName,
	}

	eventID := payload.TransactionID
	if eventID == "" {
		eventID = orderKey
	}

	switch payload.Status() {
	case StatusSuccess:
		result, err := d.Events.PaymentSuccess(ctx, pc, eventID, orderKey, amount, decimal.Zero, decimal.Zero, "")
		if err != nil {
			return "", err
		}
		return string(result.Transaction.ID), nil
	default:
		return eventID, nil
	}
}
