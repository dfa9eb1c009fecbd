package controllers

import (
	"net/http"
	"strings"

	"github.com/merchstorehq/merchstore-backend/api/middleware"
	"github.com/merchstorehq/merchstore-backend/api/responses"
	"github.com/merchstorehq/merchstore-backend/api/validators"
	checkoutsvc "github.com/merchstorehq/merchstore-backend/internal/checkout"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
)

// GetCheckout returns the wizard document for the session. A session that
// never started checkout gets a fresh Information-step document.
func GetCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		session, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// Checkout step payloads carry no validate tags: field rules live with the
// wizard, which owns the card/expiry/postal-code checks.
type checkoutInformationRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// CheckoutInformation submits the contact step.
func CheckoutInformation(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutInformationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SubmitInformation(r.Context(), middleware.SessionIDFromContext(r.Context()), checkoutsvc.CustomerInfo{
			FirstName: strings.TrimSpace(payload.FirstName),
			LastName:  strings.TrimSpace(payload.LastName),
			Email:     strings.TrimSpace(payload.Email),
			Phone:     strings.TrimSpace(payload.Phone),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type checkoutShippingRequest struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutShipping submits the address step.
func CheckoutShipping(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SubmitShipping(r.Context(), middleware.SessionIDFromContext(r.Context()), checkoutsvc.ShippingInfo{
			Address:    strings.TrimSpace(payload.Address),
			City:       strings.TrimSpace(payload.City),
			State:      strings.TrimSpace(payload.State),
			PostalCode: strings.TrimSpace(payload.PostalCode),
			Country:    strings.TrimSpace(payload.Country),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutBack steps the wizard back one information step.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		session, err := svc.Back(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

type checkoutPaymentRequest struct {
	Method     string `json:"method"`
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// CheckoutPayment submits the payment step and runs the commit sequence. On
// success the response carries the order id and the Complete state.
func CheckoutPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitPayment(r.Context(), middleware.SessionIDFromContext(r.Context()), checkoutsvc.PaymentInfo{
			Method:     enums.PaymentMethod(strings.TrimSpace(payload.Method)),
			CardNumber: strings.TrimSpace(payload.CardNumber),
			CardName:   strings.TrimSpace(payload.CardName),
			Expiry:     strings.TrimSpace(payload.Expiry),
			CVV:        strings.TrimSpace(payload.CVV),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CheckoutAbandon tears down the wizard session. The cart survives.
func CheckoutAbandon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		if err := svc.Abandon(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
