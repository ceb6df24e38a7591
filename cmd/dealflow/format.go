package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/report"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", models.ErrInvalidInput, s)
	}
	return uint(id), nil
}

// parseIndex converts a 1-based item position typed by the user into a
// slice index.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: invalid item number %q", models.ErrInvalidInput, s)
	}
	return n - 1, nil
}

func parseDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(db.ExpiresAtLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: expiration must look like %s", models.ErrInvalidInput, db.ExpiresAtLayout)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(db.ExpiresAtLayout)
}

func printProposal(w io.Writer, p *models.Proposal, now time.Time) {
	fmt.Fprintf(w, "Proposal #%d: %s\n", p.ID, p.Title)
	if p.Client != nil {
		fmt.Fprintf(w, "Client:   %s\n", p.Client)
	}
	status := string(p.Status())
	if p.IsExpired(now) {
		status += " (expired)"
	}
	fmt.Fprintf(w, "Status:   %s\n", status)
	fmt.Fprintf(w, "Created:  %s\n", p.CreatedAt().Format(db.CreatedAtLayout))
	fmt.Fprintf(w, "Expires:  %s\n", formatDate(p.ExpiresAt))
	if p.Owner != "" {
		fmt.Fprintf(w, "Owner:    %s\n", p.Owner)
	}
	if p.PaymentTerms != "" {
		fmt.Fprintf(w, "Terms:    %s\n", p.PaymentTerms)
	}

	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tDESCRIPTION\tQTY\tUNIT\tTOTAL")
	for i, item := range p.Items() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", i+1, item.Description, item.Quantity,
			report.Money(item.UnitPrice), report.Money(item.Total()))
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Subtotal: %s\n", report.Money(p.Subtotal()))
	if p.Discount().Kind() != models.DiscountNone {
		fmt.Fprintf(w, "Discount: %s (-%s)\n", p.Discount(), report.Money(p.DiscountAmount()))
	}
	fmt.Fprintf(w, "Total:    %s\n", report.Money(p.GrandTotal()))
}
