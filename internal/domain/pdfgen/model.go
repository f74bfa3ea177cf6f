package pdfgen

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceData represents the data model for invoice document generation
type InvoiceData struct {
	ID              string          `json:"ID"`
	InvoiceNumber   string          `json:"InvoiceNumber"`
	CustomerID      string          `json:"CustomerID"`
	InvoiceStatus   string          `json:"InvoiceStatus"`
	Currency        string          `json:"Currency"`
	Subtotal        decimal.Decimal `json:"Subtotal"`
	TaxPercent      decimal.Decimal `json:"TaxPercent"`
	TaxAmount       decimal.Decimal `json:"TaxAmount"`
	Total           decimal.Decimal `json:"Total"`
	AmountPaid      decimal.Decimal `json:"AmountPaid"`
	AmountRemaining decimal.Decimal `json:"AmountRemaining"`
	IssueDate       time.Time       `json:"IssueDate"`
	DueDate         *time.Time      `json:"DueDate,omitempty"`
	PaidAt          *time.Time      `json:"PaidAt,omitempty"`
	Notes           string          `json:"Notes,omitempty"`
	Footer          string          `json:"Footer,omitempty"`

	// Company information
	Biller    *BillerInfo    `json:"biller,omitempty"`
	Recipient *RecipientInfo `json:"recipient,omitempty"`

	// Line items
	LineItems []LineItemData `json:"line_items"`
}

// BillerInfo contains company information for the invoice issuer
type BillerInfo struct {
	Name                string      `json:"Name"`
	Email               string      `json:"Email,omitempty"`
	Website             string      `json:"Website,omitempty"`
	LogoURL             string      `json:"LogoURL,omitempty"`
	TaxNumber           string      `json:"TaxNumber,omitempty"`
	PaymentInstructions string      `json:"PaymentInstructions,omitempty"`
	Address             AddressInfo `json:"Address"`
}

// RecipientInfo contains customer information for the invoice recipient
type RecipientInfo struct {
	Name      string      `json:"Name"`
	Email     string      `json:"Email,omitempty"`
	TaxNumber string      `json:"TaxNumber,omitempty"`
	Address   AddressInfo `json:"Address"`
}

// AddressInfo represents a physical address
type AddressInfo struct {
	Street     string `json:"Street"`
	City       string `json:"City"`
	State      string `json:"State,omitempty"`
	PostalCode string `json:"PostalCode"`
	Country    string `json:"Country,omitempty"`
}

// LineItemData represents an invoice line item for document generation
type LineItemData struct {
	Description string          `json:"Description"`
	Quantity    decimal.Decimal `json:"Quantity"`
	UnitPrice   decimal.Decimal `json:"UnitPrice"`
	Amount      decimal.Decimal `json:"Amount"`
	Currency    string          `json:"Currency"`
}
