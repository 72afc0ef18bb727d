// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/academia/internal/billing/payment"
	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/ctxutil"
	"github.com/taibuivan/academia/internal/platform/sec"
)

// fakeProcessor records requested charges and serves canned intents.
type fakeProcessor struct {
	charges []int64
	intents map[string]payment.Intent
	err     error
	delay   time.Duration
}

func (fake *fakeProcessor) CreateIntent(context context.Context, amount int64, currency string) (payment.Intent, error) {
	if fake.delay > 0 {
		select {
		case <-time.After(fake.delay):
		case <-context.Done():
			return payment.Intent{}, context.Err()
		}
	}
	if fake.err != nil {
		return payment.Intent{}, fake.err
	}
	fake.charges = append(fake.charges, amount)
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: amount, Currency: currency}, nil
}

func (fake *fakeProcessor) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	if fake.err != nil {
		return payment.Intent{}, fake.err
	}
	intent, ok := fake.intents[id]
	if !ok {
		return payment.Intent{}, errors.New("resource_missing")
	}
	return intent, nil
}

func newService(processor payment.Processor) *payment.Service {
	return payment.NewService(processor, payment.Options{Timeout: 50 * time.Millisecond}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func amount(v int64) *int64 { return &v }

func TestCreateIntent_AmountFloor(t *testing.T) {
	tests := []struct {
		name   string
		amount *int64
		want   int64
	}{
		{"missing", nil, 50},
		{"zero", amount(0), 50},
		{"negative", amount(-100), 50},
		{"regular", amount(4900), 4900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &fakeProcessor{}
			intent, err := newService(processor).CreateIntent(context.Background(), tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Amount)
			assert.Equal(t, "usd", intent.Currency)
			assert.Equal(t, "pi_1_secret", intent.ClientSecret)
			assert.Equal(t, []int64{tt.want}, processor.charges)
		})
	}
}

func TestCreateIntent_ProcessorFailures(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		_, err := newService(&fakeProcessor{err: errors.New("card_declined")}).CreateIntent(context.Background(), nil)
		assert.True(t, apperr.HasCode(err, apperr.CodePaymentProvider))
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := newService(&fakeProcessor{delay: time.Second}).CreateIntent(context.Background(), nil)
		require.True(t, apperr.HasCode(err, apperr.CodePaymentProvider))
		assert.Equal(t, "Payment processor timed out", err.Error())
	})
}

func TestVerify(t *testing.T) {
	processor := &fakeProcessor{intents: map[string]payment.Intent{
		"pi_ok":      {ID: "pi_ok", Amount: 4900, Currency: "usd", Status: payment.StatusSucceeded},
		"pi_pending": {ID: "pi_pending", Amount: 4900, Currency: "usd", Status: "requires_payment_method"},
		"pi_eur":     {ID: "pi_eur", Amount: 4900, Currency: "eur", Status: payment.StatusSucceeded},
	}}
	service := newService(processor)
	ctx := context.Background()

	assert.NoError(t, service.Verify(ctx, "pi_ok", 4900))
	assert.True(t, apperr.HasCode(service.Verify(ctx, "pi_ok", 100), apperr.CodeValidation))
	assert.True(t, apperr.HasCode(service.Verify(ctx, "pi_pending", 4900), apperr.CodePaymentProvider))
	assert.True(t, apperr.HasCode(service.Verify(ctx, "pi_eur", 4900), apperr.CodeValidation))
	assert.True(t, apperr.HasCode(service.Verify(ctx, "pi_unknown", 4900), apperr.CodePaymentProvider))
}

func TestHandler_CreatePaymentIntent(t *testing.T) {
	processor := &fakeProcessor{}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := &sec.AuthClaims{UserID: "student-1", Role: sec.RoleStudent}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	})
	payment.NewHandler(newService(processor)).RegisterRoutes(router)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/transactions/stripe/payment-intent", strings.NewReader(`{"amount":4900}`)))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "pi_1_secret", body.Data["clientSecret"])
	assert.NotContains(t, body.Data, "status")

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/transactions/stripe/payment-intent", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []int64{4900, 50}, processor.charges)
}
