package types

import (
	"testing"
)

func TestInvoiceStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from InvoiceStatus
		to   InvoiceStatus
		want bool
	}{
		{
			name: "draft can be finalized",
			from: InvoiceStatusDraft,
			to:   InvoiceStatusFinalized,
			want: true,
		},
		{
			name: "draft cannot be paid directly",
			from: InvoiceStatusDraft,
			to:   InvoiceStatusPaid,
			want: false,
		},
		{
			name: "draft cannot be voided",
			from: InvoiceStatusDraft,
			to:   InvoiceStatusVoided,
			want: false,
		},
		{
			name: "finalized can be paid",
			from: InvoiceStatusFinalized,
			to:   InvoiceStatusPaid,
			want: true,
		},
		{
			name: "finalized can be voided",
			from: InvoiceStatusFinalized,
			to:   InvoiceStatusVoided,
			want: true,
		},
		{
			name: "finalized cannot go back to draft",
			from: InvoiceStatusFinalized,
			to:   InvoiceStatusDraft,
			want: false,
		},
		{
			name: "paid is terminal",
			from: InvoiceStatusPaid,
			to:   InvoiceStatusVoided,
			want: false,
		},
		{
			name: "voided is terminal",
			from: InvoiceStatusVoided,
			to:   InvoiceStatusFinalized,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestInvoiceStatusValidate(t *testing.T) {
	for _, s := range []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusFinalized,
		InvoiceStatusPaid,
		InvoiceStatusVoided,
	} {
		if err := s.Validate(); err != nil {
			t.Errorf("Validate(%s) returned error: %v", s, err)
		}
	}

	if err := InvoiceStatus("cancelled").Validate(); err == nil {
		t.Error("Validate accepted an unknown invoice status")
	}
}

func TestExportFormatValidate(t *testing.T) {
	if err := ExportFormatPDF.Validate(); err != nil {
		t.Errorf("Validate(pdf) returned error: %v", err)
	}
	if err := ExportFormatJPEG.Validate(); err != nil {
		t.Errorf("Validate(jpeg) returned error: %v", err)
	}
	if err := ExportFormat("svg").Validate(); err == nil {
		t.Error("Validate accepted an unknown export format")
	}
}
