package storage

import (
	"time"

	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
)

func clientRecord(c *models.Client) db.ClientRecord {
	return db.ClientRecord{
		ID:       c.ID,
		Name:     c.Name,
		Document: strPtr(c.Document),
		Contact:  strPtr(c.Contact),
	}
}

func proposalRecord(p *models.Proposal) db.ProposalRecord {
	rec := db.ProposalRecord{
		ID:           p.ID,
		Title:        p.Title,
		Created:      p.CreatedAt().Local().Format(db.CreatedAtLayout),
		Status:       string(p.Status()),
		Owner:        strPtr(p.Owner),
		PaymentTerms: strPtr(p.PaymentTerms),
	}
	if p.Client != nil {
		rec.ClientID = p.Client.ID
	}
	if p.ExpiresAt != nil {
		s := p.ExpiresAt.Format(db.ExpiresAtLayout)
		rec.ExpiresAt = &s
	}

	d := p.Discount()
	pct, amount := d.Percentage(), d.FixedAmount()
	rec.DiscountPercentage = &pct
	rec.DiscountAmount = &amount
	if d.Kind() != models.DiscountNone {
		kind := string(d.Kind())
		rec.DiscountKind = &kind
	}
	return rec
}

// discountFromRecord rebuilds the discount from the three stored columns.
// Legacy rows may use "%" and "R" as kind codes.
func discountFromRecord(rec db.ProposalRecord) (models.Discount, error) {
	kind, err := models.ParseDiscountKind(deref(rec.DiscountKind))
	if err != nil {
		return models.NoDiscount(), err
	}
	switch kind {
	case models.DiscountPercentage:
		return models.PercentageDiscount(derefFloat(rec.DiscountPercentage)), nil
	case models.DiscountFixed:
		return models.FixedDiscount(derefFloat(rec.DiscountAmount)), nil
	default:
		return models.NoDiscount(), nil
	}
}

// parseCreatedAt never fails: an unreadable value becomes now.
func parseCreatedAt(s string, now time.Time) (time.Time, bool) {
	t, err := time.ParseInLocation(db.CreatedAtLayout, s, time.Local)
	if err != nil {
		return now, false
	}
	return t, true
}

// parseExpiresAt returns nil for an empty or unreadable value.
func parseExpiresAt(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.ParseInLocation(db.ExpiresAtLayout, *s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
