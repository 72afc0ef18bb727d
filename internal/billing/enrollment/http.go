// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrollment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/academia/internal/platform/authz"
	"github.com/taibuivan/academia/internal/platform/middleware"
	requestutil "github.com/taibuivan/academia/internal/platform/request"
	"github.com/taibuivan/academia/internal/platform/respond"
)

// Handler exposes purchases over HTTP.
type Handler struct {
	pipeline   *Pipeline
	authorizer *authz.Authorizer
}

// NewHandler constructs a new enrollment [Handler].
func NewHandler(pipeline *Pipeline, authorizer *authz.Authorizer) *Handler {
	return &Handler{pipeline: pipeline, authorizer: authorizer}
}

// RegisterRoutes attaches transaction endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/transactions", handler.Enroll)
		authed.Get("/transactions", handler.ListTransactions)
	})
}

type enrollRequest struct {
	UserID          string `json:"userId"          validate:"required"`
	CourseID        string `json:"courseId"        validate:"required"`
	TransactionID   string `json:"transactionId"`
	Amount          int64  `json:"amount"          validate:"gte=0"`
	PaymentProvider string `json:"paymentProvider" validate:"required"`
}

/*
POST /api/v1/transactions.

Request:
  - body: {userId, courseId, transactionId, amount, paymentProvider}

Response:
  - 200: {transaction, courseProgress}
  - 400: Validation
  - 403: ErrForbidden (enrolling somebody else)
  - 404: ErrNotFound (course)
  - 409: ErrConflict (transaction id reused for another purchase)
  - 502: PAYMENT_PROVIDER_ERROR
*/
func (handler *Handler) Enroll(writer http.ResponseWriter, request *http.Request) {
	var input enrollRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authorizer.CanEnroll(requestutil.Claims(request), input.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.pipeline.Enroll(request.Context(), EnrollRequest{
		UserID:          input.UserID,
		CourseID:        input.CourseID,
		TransactionID:   input.TransactionID,
		Amount:          input.Amount,
		PaymentProvider: input.PaymentProvider,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
GET /api/v1/transactions.

Request:
  - userId: string (query; admins may omit it to list everything)

Response:
  - 200: []Transaction
  - 403: ErrForbidden
*/
func (handler *Handler) ListTransactions(writer http.ResponseWriter, request *http.Request) {
	userID := request.URL.Query().Get("userId")

	if err := handler.authorizer.CanListTransactions(requestutil.Claims(request), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	transactions, err := handler.pipeline.ListTransactions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, transactions)
}
