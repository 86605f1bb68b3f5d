package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"cybercafe/internal/billing"
	"cybercafe/internal/repository"
	"cybercafe/internal/validation"
)

func TestMonthlyTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "Lovelace", "A100")
	env.pay(t, "A100", "1000", "2026-10-01")
	env.pay(t, "A100", "2500", "2026-10-12")
	env.pay(t, "A100", "700", "2026-09-28")

	totals, err := env.payments.MonthlyTotals(ctx)
	if err != nil {
		t.Fatalf("MonthlyTotals() error = %v", err)
	}
	if !totals[ada.ID].Equal(decimal.NewFromInt(3500)) {
		t.Errorf("MonthlyTotals()[ada] = %s, want 3500", totals[ada.ID])
	}

	monthStart := billing.MonthStart(env.clock, time.UTC)
	paid, err := env.payments.MonthlyPaidTotal(ctx, ada.ID, monthStart)
	if err != nil {
		t.Fatalf("MonthlyPaidTotal() error = %v", err)
	}
	if !paid.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("MonthlyPaidTotal() = %s, want 3500", paid)
	}
}

func TestRecordPaymentBalance(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "Lovelace", "A100")

	tests := []struct {
		amount  string
		date    string
		balance string
	}{
		{amount: "1000", date: "2026-10-01", balance: "2000"},
		{amount: "2500", date: "2026-10-05", balance: "0"},
		{amount: "400", date: "2026-11-02", balance: "2600"},
		{amount: "100", date: "2026-09-15", balance: "2900"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			p := env.pay(t, "A100", tt.amount, tt.date)
			if !p.Balance.Equal(decimal.RequireFromString(tt.balance)) {
				t.Errorf("Balance = %s, want %s", p.Balance, tt.balance)
			}
		})
	}

	if testutil.ToFloat64(env.metrics.PaymentsRecorded) != 4 {
		t.Error("payments recorded counter should be 4")
	}
}

func TestRecordPaymentDefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Ada", "Lovelace", "A100")

	p := env.pay(t, "A100", "10", "")
	want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", p.Date, want)
	}
}

func TestRecordPaymentUnknownStudent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.payments.RecordPayment(context.Background(), validation.PaymentForm{IDNumber: "NOPE", Amount: "10"})
	if !errors.Is(err, ErrUnknownStudent) {
		t.Fatalf("RecordPayment() error = %v, want ErrUnknownStudent", err)
	}
	var errs validation.Errors
	if !errors.As(err, &errs) || !errs.Has("id_number") {
		t.Errorf("RecordPayment() error = %v, want field error on id_number", err)
	}
}

func TestRecordPaymentRejectsOutOfRangeAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ada", "Lovelace", "A100")

	for _, amount := range []string{"1e20", "100000000", "1e3"} {
		t.Run(amount, func(t *testing.T) {
			_, err := env.payments.RecordPayment(ctx, validation.PaymentForm{IDNumber: "A100", Amount: amount})
			var errs validation.Errors
			if !errors.As(err, &errs) || !errs.Has("amount") {
				t.Fatalf("RecordPayment(%s) error = %v, want field error on amount", amount, err)
			}
		})
	}

	payments, err := env.payments.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("expected no payments stored, got %d", len(payments))
	}

	env.pay(t, "A100", "99999999.99", "")
}

func TestFullyPaidStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ada", "Lovelace", "A100")
	env.register(t, "Alan", "Turing", "T200")

	paid, err := env.payments.FullyPaidStudents(ctx)
	if err != nil {
		t.Fatalf("FullyPaidStudents() error = %v", err)
	}
	if len(paid) != 0 {
		t.Fatalf("FullyPaidStudents() = %d students, want none", len(paid))
	}

	env.pay(t, "A100", "3000", "2026-10-03")
	env.pay(t, "T200", "2999.99", "2026-10-03")
	env.pay(t, "T200", "3000", "2026-09-03")

	paid, err = env.payments.FullyPaidStudents(ctx)
	if err != nil {
		t.Fatalf("FullyPaidStudents() error = %v", err)
	}
	if len(paid) != 1 || paid[0].IDNumber != "A100" {
		t.Errorf("FullyPaidStudents() = %+v, want only A100", paid)
	}
}

func TestDeletePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ada", "Lovelace", "A100")
	p := env.pay(t, "A100", "1000", "2026-10-01")

	list, err := env.payments.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %d payments, %v; want 1", len(list), err)
	}
	if list[0].Student.IDNumber != "A100" || list[0].String() != "Ada - 1000.00" {
		t.Errorf("List()[0] = %s", list[0])
	}

	if err := env.payments.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := env.payments.Delete(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	student, payments, err := env.payments.StudentPayments(ctx, "A100")
	if err != nil {
		t.Fatalf("StudentPayments() error = %v", err)
	}
	if student.IDNumber != "A100" || len(payments) != 0 {
		t.Errorf("StudentPayments() = %s, %d payments; want A100 and none", student.IDNumber, len(payments))
	}
}
