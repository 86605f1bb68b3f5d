package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStudentFormValidate(t *testing.T) {
	valid := StudentForm{FirstName: "Ada", LastName: "Lovelace", IDNumber: "A100", PhoneNumber: "0700123456"}

	tests := []struct {
		name       string
		mutate     func(f *StudentForm)
		wantFields []string
	}{
		{name: "valid", mutate: func(f *StudentForm) {}},
		{name: "surrounding spaces trimmed", mutate: func(f *StudentForm) { f.FirstName = "  Ada  " }},
		{name: "missing first name", mutate: func(f *StudentForm) { f.FirstName = "" }, wantFields: []string{"first_name"}},
		{name: "blank last name", mutate: func(f *StudentForm) { f.LastName = "   " }, wantFields: []string{"last_name"}},
		{name: "first name too long", mutate: func(f *StudentForm) { f.FirstName = strings.Repeat("a", 21) }, wantFields: []string{"first_name"}},
		{name: "twenty characters allowed", mutate: func(f *StudentForm) { f.LastName = strings.Repeat("b", 20) }},
		{name: "id number too long", mutate: func(f *StudentForm) { f.IDNumber = strings.Repeat("9", 21) }, wantFields: []string{"id_number"}},
		{name: "phone not numeric", mutate: func(f *StudentForm) { f.PhoneNumber = "07-00" }, wantFields: []string{"phone_number"}},
		{name: "several fields", mutate: func(f *StudentForm) { f.FirstName = ""; f.PhoneNumber = "abc" }, wantFields: []string{"first_name", "phone_number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var errs Errors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() error = %v, want Errors", err)
			}
			if len(errs) != len(tt.wantFields) {
				t.Errorf("got %d field errors (%v), want %d", len(errs), errs, len(tt.wantFields))
			}
			for _, field := range tt.wantFields {
				if !errs.Has(field) {
					t.Errorf("expected an error on %s, got %v", field, errs)
				}
			}
		})
	}
}

func TestPaymentFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      PaymentForm
		wantField string
	}{
		{name: "valid", form: PaymentForm{IDNumber: "A100", Amount: "1000", Date: "2026-10-01"}},
		{name: "cents", form: PaymentForm{IDNumber: "A100", Amount: "99.50"}},
		{name: "zero", form: PaymentForm{IDNumber: "A100", Amount: "0"}},
		{name: "negative", form: PaymentForm{IDNumber: "A100", Amount: "-5"}, wantField: "amount"},
		{name: "too precise", form: PaymentForm{IDNumber: "A100", Amount: "1.005"}, wantField: "amount"},
		{name: "not a number", form: PaymentForm{IDNumber: "A100", Amount: "lots"}, wantField: "amount"},
		{name: "largest storable", form: PaymentForm{IDNumber: "A100", Amount: "99999999.99"}},
		{name: "too large", form: PaymentForm{IDNumber: "A100", Amount: "100000000"}, wantField: "amount"},
		{name: "exponent notation", form: PaymentForm{IDNumber: "A100", Amount: "1e3"}, wantField: "amount"},
		{name: "huge exponent", form: PaymentForm{IDNumber: "A100", Amount: "1e20"}, wantField: "amount"},
		{name: "missing student", form: PaymentForm{Amount: "10"}, wantField: "id_number"},
		{name: "bad date", form: PaymentForm{IDNumber: "A100", Amount: "10", Date: "01/10/2026"}, wantField: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var errs Errors
			if !errors.As(err, &errs) || !errs.Has(tt.wantField) {
				t.Fatalf("Validate() error = %v, want error on %s", err, tt.wantField)
			}
		})
	}
}

func TestPaymentFormParsed(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2026, 10, 31, 22, 30, 0, 0, time.UTC) // already 1 November in EAT

	f := PaymentForm{IDNumber: "A100", Amount: "2500.50"}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if f.ParsedAmount().String() != "2500.5" {
		t.Errorf("ParsedAmount() = %s", f.ParsedAmount())
	}

	want := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	if got := f.ParsedDate(now, eat); !got.Equal(want) {
		t.Errorf("ParsedDate() = %v, want %v", got, want)
	}

	f.Date = "2026-09-15"
	want = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if got := f.ParsedDate(now, eat); !got.Equal(want) {
		t.Errorf("ParsedDate() = %v, want %v", got, want)
	}
}

func TestErrorsMessage(t *testing.T) {
	errs := Errors{"last_name": "b", "first_name": "a"}
	if got := errs.Error(); got != "validation failed: first_name: a; last_name: b" {
		t.Errorf("Error() = %q", got)
	}
	if !Field("id_number", "taken").Has("id_number") {
		t.Error("Field() should carry its field")
	}
}
