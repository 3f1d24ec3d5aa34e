package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/escrowledger/internal/adapter/http/dto"
	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/usecase"
)

// EscrowHandler handles escrow-related HTTP requests.
type EscrowHandler struct {
	escrowUC *usecase.EscrowUseCase
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowUC *usecase.EscrowUseCase) *EscrowHandler {
	return &EscrowHandler{escrowUC: escrowUC}
}

// CreatePrefund places escrowed prefunds for a new reference.
func (h *EscrowHandler) CreatePrefund(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePrefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	err := h.escrowUC.PrefundingFor(r.Context(), req.Owner, req.Beneficiary, req.Amount, req.Deadline, req.Reference, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to place prefunds", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatusResponse{Reference: req.Reference, Status: "submitted"})
}

// Invoice raises an invoice against a prefunded reference.
func (h *EscrowHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var req dto.InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	err := h.escrowUC.SendSimpleInvoice(r.Context(), req.Issuer, req.Payer, req.Amount, reference, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to raise invoice", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Reference: reference, Status: "invoiced"})
}

// Settle settles an invoiced reference once both parties have released.
func (h *EscrowHandler) Settle(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "caller is required")
		return
	}

	err := h.escrowUC.SettlePrefundedInvoice(r.Context(), req.Caller, reference, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to settle", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Reference: reference, Status: "settled"})
}

// Release moves the caller's side of the escrow lock.
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var req dto.ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "caller is required")
		return
	}
	state, err := req.LockState()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	err = h.escrowUC.SetReleaseState(r.Context(), req.Caller, state, reference, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set release state", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Reference: reference, Status: "release state updated"})
}

// Reclaim returns unspent prefunds to the owner.
func (h *EscrowHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var req dto.ReclaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "owner is required")
		return
	}

	err := h.escrowUC.UnlockFundsForOwner(r.Context(), req.Owner, reference, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reclaim prefunds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Reference: reference, Status: "cancelled"})
}

// Get retrieves an escrow reference's lock, deposit and status.
func (h *EscrowHandler) Get(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	lock, err := h.escrowUC.LockRecord(r.Context(), reference)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	deposit, err := h.escrowUC.DepositRecord(r.Context(), reference)
	if err != nil && !errors.Is(err, domain.ErrReferenceNotFound) {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	status, err := h.escrowUC.StatusOf(r.Context(), reference)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get escrow", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EscrowFromDomain(reference, lock, deposit, status))
}

// ListByOwner lists the live references an owner holds.
func (h *EscrowHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "identity")

	refs, err := h.escrowUC.OwnerReferences(r.Context(), owner)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list references", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReferencesResponse{Owner: owner, References: refs})
}
