package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/escrowledger/internal/adapter/custody"
	"github.com/iho/escrowledger/internal/adapter/http/dto"
)

// CustodyHandler handles custody balance funding and queries.
type CustodyHandler struct {
	custody *custody.Service
}

// NewCustodyHandler creates a new CustodyHandler.
func NewCustodyHandler(svc *custody.Service) *CustodyHandler {
	return &CustodyHandler{custody: svc}
}

// Deposit credits a custody account from outside the escrow protocol.
func (h *CustodyHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.custody.Deposit(r.Context(), account, req.Amount); err != nil {
		writeError(w, mapDomainError(err), "failed to deposit", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatusResponse{Status: "deposited"})
}

// GetBalance returns a custody account's total and unlocked balances.
func (h *CustodyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	balance, err := h.custody.Balance(r.Context(), account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get custody balance", err.Error())
		return
	}

	free, err := h.custody.FreeBalance(r.Context(), account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get custody balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CustodyBalanceResponse{
		Account: account,
		Balance: balance,
		Free:    free,
	})
}
