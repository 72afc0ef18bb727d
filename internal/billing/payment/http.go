// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/academia/internal/platform/middleware"
	requestutil "github.com/taibuivan/academia/internal/platform/request"
	"github.com/taibuivan/academia/internal/platform/respond"
)

// Handler exposes payment intent creation to the storefront.
type Handler struct {
	service *Service
}

// NewHandler constructs a new payment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches payment endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.With(middleware.RequireAuth).Post("/transactions/stripe/payment-intent", handler.CreatePaymentIntent)
}

type paymentIntentRequest struct {
	Amount *int64 `json:"amount"`
}

/*
POST /api/v1/transactions/stripe/payment-intent.

Request:
  - body: {amount?} in minor units; missing or non-positive uses the floor

Response:
  - 200: {clientSecret, paymentIntentId, amount, currency}
  - 502: PAYMENT_PROVIDER_ERROR
*/
func (handler *Handler) CreatePaymentIntent(writer http.ResponseWriter, request *http.Request) {
	var input paymentIntentRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	intent, err := handler.service.CreateIntent(request.Context(), input.Amount)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	intent.Status = ""
	respond.OK(writer, intent)
}
