package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/escrowledger/internal/adapter/custody"
	"github.com/iho/escrowledger/internal/adapter/http/dto"
	"github.com/iho/escrowledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrSameParty),
		errors.Is(err, domain.ErrShortDeadline),
		errors.Is(err, domain.ErrBalanceOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotBeneficiary),
		errors.Is(err, domain.ErrNotParty):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrReferenceExists),
		errors.Is(err, domain.ErrReferenceNotLive),
		errors.Is(err, domain.ErrNotInvoiced),
		errors.Is(err, domain.ErrDeadlineInPlay),
		errors.Is(err, domain.ErrOwnerRelock),
		errors.Is(err, domain.ErrBeneficiaryUnlockNotHeld),
		errors.Is(err, domain.ErrRelockForbidden),
		errors.Is(err, domain.ErrReleaseRelock),
		errors.Is(err, domain.ErrOwnerReleased),
		errors.Is(err, domain.ErrLockExhausted),
		errors.Is(err, domain.ErrAwaitingAcceptance),
		errors.Is(err, domain.ErrOwnerNotReleased),
		errors.Is(err, domain.ErrFundsInPlay),
		errors.Is(err, domain.ErrBeneficiaryClaim),
		errors.Is(err, domain.ErrBalanceNotSeeded),
		errors.Is(err, domain.ErrGlobalBalanceNotSeeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientPrefunds),
		errors.Is(err, domain.ErrPrefundNotSet),
		errors.Is(err, domain.ErrAmountOverflow),
		errors.Is(err, custody.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
