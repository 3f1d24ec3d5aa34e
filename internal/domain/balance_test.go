package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
)

func TestAddChecked(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		delta   string
		want    string
		wantErr bool
	}{
		{
			name:    "simple addition",
			balance: "100",
			delta:   "42",
			want:    "142",
		},
		{
			name:    "negative delta",
			balance: "100",
			delta:   "-142",
			want:    "-42",
		},
		{
			name:    "sum exactly at maximum",
			balance: "170141183460469231731687303715884105726",
			delta:   "1",
			want:    "170141183460469231731687303715884105727",
		},
		{
			name:    "sum above maximum",
			balance: "170141183460469231731687303715884105727",
			delta:   "1",
			wantErr: true,
		},
		{
			name:    "sum exactly at minimum",
			balance: "-170141183460469231731687303715884105727",
			delta:   "-1",
			want:    "-170141183460469231731687303715884105728",
		},
		{
			name:    "sum below minimum",
			balance: "-170141183460469231731687303715884105728",
			delta:   "-1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := domain.AddChecked(
				decimal.RequireFromString(tt.balance),
				decimal.RequireFromString(tt.delta),
			)

			if tt.wantErr {
				if !errors.Is(err, domain.ErrBalanceOutOfRange) {
					t.Fatalf("expected ErrBalanceOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sum.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, sum.String())
			}
		})
	}
}

func TestInLedgerRange(t *testing.T) {
	if !domain.InLedgerRange(domain.MaxLedgerBalance) {
		t.Error("maximum balance should be in range")
	}
	if !domain.InLedgerRange(domain.MinLedgerBalance) {
		t.Error("minimum balance should be in range")
	}
	if domain.InLedgerRange(domain.MaxLedgerBalance.Add(decimal.NewFromInt(1))) {
		t.Error("maximum+1 should be out of range")
	}
	if domain.InLedgerRange(domain.MinLedgerBalance.Sub(decimal.NewFromInt(1))) {
		t.Error("minimum-1 should be out of range")
	}
}
