package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	addresssvc "github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AddressList returns the caller's saved addresses.
func AddressList(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addresses, err := svc.ListByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addresses)
	}
}

// AddressUpsert writes the caller's address for the slot named in the path;
// each user keeps at most one shipping and one billing address.
func AddressUpsert(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addresssvc.UpsertInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.UpsertByType(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "addressType"), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}

// AddressDelete removes the caller's address for the named slot.
func AddressDelete(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteByType(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "addressType")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
