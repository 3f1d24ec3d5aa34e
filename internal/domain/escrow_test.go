package domain_test

import (
	"testing"

	"github.com/iho/escrowledger/internal/domain"
)

func TestReferenceStatusLive(t *testing.T) {
	tests := []struct {
		status domain.ReferenceStatus
		live   bool
	}{
		{domain.StatusSubmitted, true},
		{domain.StatusInvoiced, true},
		{domain.StatusCancelled, false},
		{domain.StatusSettled, false},
		{domain.ReferenceStatus(0), false},
		{domain.ReferenceStatus(999), false},
	}

	for _, tt := range tests {
		if got := tt.status.Live(); got != tt.live {
			t.Errorf("status %d: expected live=%v, got %v", tt.status, tt.live, got)
		}
	}
}

func TestDeadlinePassed(t *testing.T) {
	deposit := domain.PrefundingDeposit{Deadline: 100}

	if deposit.DeadlinePassed(99) {
		t.Error("deadline ahead of current period should not have passed")
	}
	// The deadline period itself still belongs to the beneficiary
	if deposit.DeadlinePassed(100) {
		t.Error("deadline period itself should not count as passed")
	}
	if !deposit.DeadlinePassed(101) {
		t.Error("period past the deadline should count as passed")
	}
}

func TestLegInverse(t *testing.T) {
	leg := domain.Leg{
		Identity:  "alice",
		Account:   domain.AccountFunctionalCurrency,
		Amount:    newDecimal(t, "250"),
		Indicator: domain.Debit,
		Reference: "ref-1",
		Recorded:  7,
		AppliesTo: 7,
	}

	inv := leg.Inverse()

	if inv.Identity != leg.Identity || inv.Account != leg.Account || inv.Reference != leg.Reference {
		t.Error("inverse must keep identity, account and reference")
	}
	if !inv.Amount.Equal(leg.Amount.Neg()) {
		t.Errorf("expected negated amount, got %s", inv.Amount)
	}
	if inv.Indicator != domain.Credit {
		t.Error("inverse of a debit must be a credit")
	}
	if back := inv.Inverse(); back.Indicator != domain.Debit || !back.Amount.Equal(leg.Amount) {
		t.Error("double inverse must restore the original leg")
	}
}
