// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package payment talks to the payment processor on behalf of the checkout flow.

It has two jobs:

  - Create a payment intent for a purchase so the storefront can confirm it.
  - Verify a reported payment before the enrollment pipeline records it.

Every processor call is bounded by the configured timeout. Failures surface
as PAYMENT_PROVIDER_ERROR and are never retried here.
*/
package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/constants"
)

// Status mirrors the processor's payment intent lifecycle.
type Status string

const (
	StatusSucceeded Status = "succeeded"
)

// Intent is a processor-side payment the client confirms with its secret.
type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       Status `json:"status,omitempty"`
}

// Processor is the narrow contract the service needs from the payment provider.
type Processor interface {
	CreateIntent(context context.Context, amount int64, currency string) (Intent, error)
	GetIntent(context context.Context, id string) (Intent, error)
}

// Options configures the charge defaults.
type Options struct {
	Currency      string
	MinimumAmount int64
	Timeout       time.Duration
}

// Service creates and verifies payment intents.
type Service struct {
	processor Processor
	options   Options
	logger    *slog.Logger
}

// NewService constructs a payment [Service]. Zero options fall back to the platform defaults.
func NewService(processor Processor, options Options, logger *slog.Logger) *Service {
	if options.Currency == "" {
		options.Currency = constants.DefaultCurrency
	}
	if options.MinimumAmount <= 0 {
		options.MinimumAmount = constants.MinimumChargeAmount
	}
	if options.Timeout <= 0 {
		options.Timeout = 10 * time.Second
	}
	options.Currency = strings.ToLower(options.Currency)

	return &Service{processor: processor, options: options, logger: logger}
}

/*
CreateIntent opens a payment intent for amount (minor units).

A missing or non-positive amount is raised to the processor floor.

Returns:
  - Intent: Including the client secret the storefront confirms with
  - error: apperr.PaymentProvider on any processor failure or timeout
*/
func (service *Service) CreateIntent(context context.Context, amount *int64) (Intent, error) {
	charge := service.options.MinimumAmount
	if amount != nil && *amount > 0 {
		charge = *amount
	}

	bounded, cancel := service.bounded(context)
	defer cancel()

	intent, err := service.processor.CreateIntent(bounded, charge, service.options.Currency)
	if err != nil {
		return Intent{}, service.providerError(context, "payment_intent_create_failed", err)
	}

	service.logger.InfoContext(context, "payment_intent_created",
		slog.String("payment_intent_id", intent.ID),
		slog.Int64("amount", intent.Amount),
	)

	return intent, nil
}

/*
Verify confirms that the intent has succeeded for exactly the reported amount.

Returns:
  - error: PaymentProvider when the processor fails or the payment has not
    succeeded, ValidationError when the amount or currency disagrees
*/
func (service *Service) Verify(context context.Context, intentID string, amount int64) error {
	bounded, cancel := service.bounded(context)
	defer cancel()

	intent, err := service.processor.GetIntent(bounded, intentID)
	if err != nil {
		return service.providerError(context, "payment_intent_lookup_failed", err)
	}

	if intent.Status != StatusSucceeded {
		service.logger.WarnContext(context, "payment_not_succeeded",
			slog.String("payment_intent_id", intentID),
			slog.String("status", string(intent.Status)),
		)
		return apperr.PaymentProvider("Payment has not succeeded", nil)
	}

	if intent.Amount != amount {
		return apperr.ValidationError("Reported amount does not match the payment",
			apperr.FieldError{Field: "amount", Message: "Must match the amount charged"})
	}

	if !strings.EqualFold(intent.Currency, service.options.Currency) {
		return apperr.ValidationError("Payment was made in an unexpected currency",
			apperr.FieldError{Field: "amount", Message: "Must be charged in " + service.options.Currency})
	}

	return nil
}

func (service *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, service.options.Timeout)
}

func (service *Service) providerError(ctx context.Context, event string, err error) error {
	service.logger.ErrorContext(ctx, event, slog.Any("error", err))

	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.PaymentProvider("Payment processor timed out", err)
	}
	return apperr.PaymentProvider("Payment processor request failed", err)
}
