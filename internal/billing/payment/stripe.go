// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor implements [Processor] against the Stripe API.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor builds a client bound to secretKey.
func NewStripeProcessor(secretKey string) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProcessor{api: api}
}

// CreateIntent opens a card payment that the storefront confirms without redirects.
func (processor *StripeProcessor) CreateIntent(context context.Context, amount int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = context

	intent, err := processor.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return fromStripe(intent), nil
}

// GetIntent retrieves an existing intent by id.
func (processor *StripeProcessor) GetIntent(context context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = context

	intent, err := processor.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: get payment intent %s: %w", id, err)
	}
	return fromStripe(intent), nil
}

func fromStripe(intent *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		Status:       Status(intent.Status),
	}
}
