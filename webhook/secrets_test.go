package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/webhook"
)

func TestStaticSecretResolver_SetAndResolve(t *testing.T) {
	r := webhook.StaticSecretResolver{}
	r.Set("tenant-1", "razorpay", "topsecret")

	secret, err := r.SecretForTenant("tenant-1", "razorpay")
	require.NoError(t, err)
	assert.Equal(t, "topsecret", secret)
}

func TestStaticSecretResolver_UnknownPairErrors(t *testing.T) {
	r := webhook.StaticSecretResolver{}
	_, err := r.SecretForTenant("tenant-1", "payu")
	assert.Error(t, err)
}
