package dto_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/adapter/http/dto"
	"github.com/iho/escrowledger/internal/domain"
)

func TestCreatePrefundRequestValidate(t *testing.T) {
	valid := dto.CreatePrefundRequest{
		Owner:       "alice",
		Beneficiary: "bob",
		Amount:      decimal.NewFromInt(100),
		Deadline:    20000,
		Reference:   "cafebabe00000000",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *dto.CreatePrefundRequest)
	}{
		{"missing owner", func(r *dto.CreatePrefundRequest) { r.Owner = "" }},
		{"missing beneficiary", func(r *dto.CreatePrefundRequest) { r.Beneficiary = "" }},
		{"missing reference", func(r *dto.CreatePrefundRequest) { r.Reference = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestInvoiceRequestValidate(t *testing.T) {
	valid := dto.InvoiceRequest{Issuer: "bob", Payer: "alice", Amount: decimal.NewFromInt(100)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	missing := valid
	missing.Issuer = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing issuer")
	}

	missing = valid
	missing.Payer = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing payer")
	}
}

func TestReleaseRequestLockState(t *testing.T) {
	req := dto.ReleaseRequest{Caller: "alice", State: "locked"}
	state, err := req.LockState()
	if err != nil || state != domain.Locked {
		t.Fatalf("expected locked, got %v err %v", state, err)
	}

	req.State = "unlocked"
	state, err = req.LockState()
	if err != nil || state != domain.Unlocked {
		t.Fatalf("expected unlocked, got %v err %v", state, err)
	}

	req.State = "half-open"
	if _, err := req.LockState(); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
