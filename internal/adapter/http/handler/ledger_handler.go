package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/escrowledger/internal/adapter/http/dto"
	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/usecase"
)

// LedgerHandler handles balance and posting queries plus seeding.
type LedgerHandler struct {
	registryUC *usecase.RegistryUseCase
	engine     *usecase.PostingEngine
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(registryUC *usecase.RegistryUseCase, engine *usecase.PostingEngine) *LedgerHandler {
	return &LedgerHandler{registryUC: registryUC, engine: engine}
}

// SeedBalance zero-seeds an identity's balance for an account.
func (h *LedgerHandler) SeedBalance(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	var req dto.SeedBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.registryUC.SeedBalance(r.Context(), identity, domain.Account(req.Account)); err != nil {
		writeError(w, mapDomainError(err), "failed to seed balance", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatusResponse{Status: "seeded"})
}

// SeedRecipes seeds every account the escrow posting recipes touch.
func (h *LedgerHandler) SeedRecipes(w http.ResponseWriter, r *http.Request) {
	var req dto.SeedRecipesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Identities) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request", "identities is required")
		return
	}

	if err := h.registryUC.SeedEscrowRecipes(r.Context(), req.Identities...); err != nil {
		writeError(w, mapDomainError(err), "failed to seed recipe accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatusResponse{Status: "seeded"})
}

// GetBalance returns an identity's balance for an account.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	account, err := parseAccountParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account", err.Error())
		return
	}

	balance, err := h.registryUC.Balance(r.Context(), identity, account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Identity: identity,
		Account:  uint64(account),
		Name:     account.Label(),
		Balance:  balance,
	})
}

// GetGlobalBalance returns the ledger-wide balance for an account.
func (h *LedgerHandler) GetGlobalBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAccountParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account", err.Error())
		return
	}

	balance, err := h.registryUC.GlobalBalance(r.Context(), account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get global balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Account: uint64(account),
		Name:    account.Label(),
		Balance: balance,
	})
}

// ListAccounts lists the accounts an identity has postings against.
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	accounts, err := h.registryUC.AccountsByIdentity(r.Context(), identity)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountListResponse{
		Identity: identity,
		Accounts: dto.AccountsFromDomain(accounts),
	})
}

// ListPostings lists posting indexes for an identity and account.
func (h *LedgerHandler) ListPostings(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	account, err := parseAccountParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account", err.Error())
		return
	}

	indexes, err := h.registryUC.PostingIndexes(r.Context(), identity, account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list postings", err.Error())
		return
	}

	out := make([]uint64, len(indexes))
	for i, idx := range indexes {
		out[i] = uint64(idx)
	}

	writeJSON(w, http.StatusOK, dto.PostingIndexesResponse{
		Identity: identity,
		Account:  uint64(account),
		Indexes:  out,
	})
}

// GetPosting returns one recorded posting.
func (h *LedgerHandler) GetPosting(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	account, err := parseAccountParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account", err.Error())
		return
	}

	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid posting index", err.Error())
		return
	}

	rec, err := h.registryUC.PostingDetail(r.Context(), identity, account, domain.PostingIndex(index))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get posting", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingFromDomain(domain.PostingIndex(index), rec))
}

// PostFee posts a transaction fee against the payer.
func (h *LedgerHandler) PostFee(w http.ResponseWriter, r *http.Request) {
	var req dto.FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Payer == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "payer is required")
		return
	}

	if err := h.engine.AccountForFees(r.Context(), req.Amount, req.Payer); err != nil {
		writeError(w, mapDomainError(err), "failed to post fee", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StatusResponse{Status: "fee posted"})
}

func parseAccountParam(r *http.Request) (domain.Account, error) {
	return domain.ParseAccount(chi.URLParam(r, "account"))
}
