package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

type fakePayPal struct {
	tokenCalls int32
	handler    http.HandlerFunc
}

func (f *fakePayPal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/oauth2/token" {
		atomic.AddInt32(&f.tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
		return
	}
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.handler(w, r)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakePayPal) {
	t.Helper()
	fake := &fakePayPal{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.PayPalConfig{ClientID: "client", Secret: "secret", WebhookID: "WH-1"}, WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client, fake
}

func TestCreateOrderReturnsApproveLink(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders", r.URL.Path)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CAPTURE", body.Intent)
		_, _ = io.WriteString(w, `{"id":"PP-1","status":"CREATED","links":[{"rel":"self","href":"x"},{"rel":"approve","href":"https://paypal.test/approve"}]}`)
	})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{Intent: "CAPTURE"})
	require.NoError(t, err)
	assert.Equal(t, "PP-1", order.ID)
	assert.Equal(t, "https://paypal.test/approve", order.ApproveURL())

	_, err = client.GetOrder(context.Background(), "PP-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fake.tokenCalls), "token should be cached")
}

func TestCaptureOrderAlreadyCaptured(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/capture"))
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`)
	})

	_, err := client.CaptureOrder(context.Background(), "PP-1")
	assert.ErrorIs(t, err, ErrAlreadyCaptured)
}

func TestCaptureOrderOtherFailureIsUpstream(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED"}]}`)
	})

	_, err := client.CaptureOrder(context.Background(), "PP-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyCaptured))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.HasIssue("INSTRUMENT_DECLINED"))
}

func TestHasCompletedCapture(t *testing.T) {
	order := &Order{PurchaseUnits: []PurchaseUnit{{Payments: &Payments{Captures: []Capture{{Status: "PENDING"}, {Status: "COMPLETED"}}}}}}
	assert.True(t, order.HasCompletedCapture())
	assert.False(t, (&Order{}).HasCompletedCapture())
}

func TestVerifyWebhookSignature(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/notifications/verify-webhook-signature", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WH-1", body["webhook_id"])
		_, _ = io.WriteString(w, `{"verification_status":"SUCCESS"}`)
	})

	headers := WebhookHeaders{TransmissionID: "t", TransmissionTime: "now", CertURL: "c", AuthAlgo: "a", TransmissionSig: "s"}
	ok, err := client.VerifyWebhookSignature(context.Background(), headers, json.RawMessage(`{"id":"WH-EVT"}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifyWebhookSignature(context.Background(), WebhookHeaders{TransmissionID: "t"}, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.PayPalConfig{ClientID: "id"})
	assert.Error(t, err)
}
