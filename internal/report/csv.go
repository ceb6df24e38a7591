// Package report renders read-only exports of the proposal aggregate.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/diewo77/dealflow/internal/models"
	"github.com/shopspring/decimal"
)

const (
	createdLayout = "02/01/2006 15:04"
	expiresLayout = "02/01/2006"
)

var header = []string{
	"id", "title",
	"client", "client_document", "client_contact",
	"status", "created", "owner", "expiration", "payment_terms",
	"subtotal", "discount", "total",
}

// WriteCSV writes one row per proposal, in the given order, after a header
// row. Money columns always carry two decimal places.
func WriteCSV(w io.Writer, proposals []*models.Proposal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range proposals {
		if err := cw.Write(row(p)); err != nil {
			return fmt.Errorf("write proposal %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(p *models.Proposal) []string {
	var name, document, contact string
	if p.Client != nil {
		name, document, contact = p.Client.Name, p.Client.Document, p.Client.Contact
	}
	expiration := ""
	if p.ExpiresAt != nil {
		expiration = p.ExpiresAt.Format(expiresLayout)
	}
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.Title,
		name, document, contact,
		string(p.Status()),
		p.CreatedAt().Format(createdLayout),
		p.Owner,
		expiration,
		p.PaymentTerms,
		Money(p.Subtotal()),
		Money(p.DiscountAmount()),
		Money(p.GrandTotal()),
	}
}

// Money formats an amount with exactly two decimal places.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
