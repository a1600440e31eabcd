package webhook

import "fmt"

// StaticSecretResolver resolves webhook signing secrets from a
// pre-loaded map keyed by "tenantID/gatewayName". It is the resolver
// wired by cmd/webhookd; a production deployment would swap this for
// one backed by a secrets manager without touching Handler or Dispatcher.
type StaticSecretResolver map[string]string

func secretKey(tenantID, gatewayName string) string {
	return tenantID + "/" + gatewayName
}

// Set registers the signing secret for a tenant's gateway integration.
func (r StaticSecretResolver) Set(tenantID, gatewayName, secret string) {
	r[secretKey(tenantID, gatewayName)] = secret
}

func (r StaticSecretResolver) SecretForTenant(tenantID, gatewayName string) (string, error) {
	secret, ok := r[secretKey(tenantID, gatewayName)]
	if !ok || secret == "" {
		return "", fmt.Errorf("no webhook secret configured for tenant %q gateway %q", tenantID, gatewayName)
	}
	return secret, nil
}
