package models

import (
	"fmt"
	"time"
)

// LineItem represents a line on a proposal. Quantity is not validated:
// zero and negative quantities are accepted as given.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total calculates the line total.
func (item LineItem) Total() float64 {
	return float64(item.Quantity) * item.UnitPrice
}

func (item LineItem) String() string {
	return fmt.Sprintf("%s | Qty: %d | Unit: %.2f | Total: %.2f",
		item.Description, item.Quantity, item.UnitPrice, item.Total())
}

// Proposal represents a commercial proposal sent to a client.
//
// Creation time, status, discount and items are only reachable through
// methods so that the status stays inside the fixed set and the discount
// stays in exactly one mode.
type Proposal struct {
	ID     uint    `json:"id"`
	Client *Client `json:"client"`
	Title  string  `json:"title"`

	// Optional terms
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	PaymentTerms string     `json:"payment_terms,omitempty"`

	createdAt time.Time
	status    Status
	discount  Discount
	items     []LineItem
}

// ProposalState carries every field of a proposal as read back from storage.
type ProposalState struct {
	ID           uint
	Client       *Client
	Title        string
	CreatedAt    time.Time
	Status       Status
	ExpiresAt    *time.Time
	Owner        string
	PaymentTerms string
	Discount     Discount
	Items        []LineItem
}

// RestoreProposal rebuilds a proposal from persisted state. An invalid
// status falls back to draft.
func RestoreProposal(s ProposalState) *Proposal {
	status := s.Status
	if !status.Valid() {
		status = StatusDraft
	}
	p := &Proposal{
		ID:           s.ID,
		Client:       s.Client,
		Title:        s.Title,
		ExpiresAt:    s.ExpiresAt,
		Owner:        s.Owner,
		PaymentTerms: s.PaymentTerms,
		createdAt:    s.CreatedAt,
		status:       status,
		discount:     s.Discount,
	}
	p.items = append(p.items, s.Items...)
	return p
}

// CreatedAt returns the creation timestamp, fixed when the proposal was created.
func (p *Proposal) CreatedAt() time.Time { return p.createdAt }

func (p *Proposal) Status() Status { return p.status }

func (p *Proposal) Discount() Discount { return p.discount }

// IsDraft returns true if the proposal has not left draft status.
func (p *Proposal) IsDraft() bool {
	return p.status == StatusDraft
}

// IsExpired reports whether the expiration date lies strictly before now's date.
func (p *Proposal) IsExpired(now time.Time) bool {
	if p.ExpiresAt == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	ey, em, ed := p.ExpiresAt.Date()
	return time.Date(ey, em, ed, 0, 0, 0, 0, now.Location()).Before(today)
}

// SetStatus moves the proposal to the given status. Any transition is
// allowed; an unknown status leaves the current one unchanged.
func (p *Proposal) SetStatus(s string) error {
	status, err := ParseStatus(s)
	if err != nil {
		return err
	}
	p.status = status
	return nil
}

// AddItem appends item to the proposal.
func (p *Proposal) AddItem(item LineItem) {
	p.items = append(p.items, item)
}

// Items returns a copy of the line items in insertion order.
func (p *Proposal) Items() []LineItem {
	out := make([]LineItem, len(p.items))
	copy(out, p.items)
	return out
}

// ItemCount returns the number of line items.
func (p *Proposal) ItemCount() int { return len(p.items) }

// ItemAt returns the item at position i.
func (p *Proposal) ItemAt(i int) (LineItem, bool) {
	if i < 0 || i >= len(p.items) {
		return LineItem{}, false
	}
	return p.items[i], true
}

// UpdateItem replaces the item at position i.
func (p *Proposal) UpdateItem(i int, item LineItem) error {
	if i < 0 || i >= len(p.items) {
		return fmt.Errorf("%w: item %d on proposal %d", ErrNotFound, i, p.ID)
	}
	p.items[i] = item
	return nil
}

// RemoveItem deletes the item at position i, keeping the order of the rest.
func (p *Proposal) RemoveItem(i int) error {
	if i < 0 || i >= len(p.items) {
		return fmt.Errorf("%w: item %d on proposal %d", ErrNotFound, i, p.ID)
	}
	p.items = append(p.items[:i], p.items[i+1:]...)
	return nil
}

// Subtotal calculates the sum of all line totals.
func (p *Proposal) Subtotal() float64 {
	var total float64
	for _, item := range p.items {
		total += item.Total()
	}
	return total
}

// SetPercentageDiscount replaces any discount with pct percent of the subtotal.
func (p *Proposal) SetPercentageDiscount(pct float64) {
	p.discount = PercentageDiscount(pct)
}

// SetFixedDiscount replaces any discount with a fixed amount.
func (p *Proposal) SetFixedDiscount(amount float64) {
	p.discount = FixedDiscount(amount)
}

// SetDiscount replaces the discount with d.
func (p *Proposal) SetDiscount(d Discount) {
	p.discount = d
}

func (p *Proposal) ClearDiscount() {
	p.discount = NoDiscount()
}

// DiscountAmount calculates the deduction for the current subtotal.
func (p *Proposal) DiscountAmount() float64 {
	return p.discount.Amount(p.Subtotal())
}

// GrandTotal calculates the subtotal minus the discount, floored at zero.
func (p *Proposal) GrandTotal() float64 {
	return max(0, p.Subtotal()-p.DiscountAmount())
}

func (p *Proposal) String() string {
	clientName := ""
	if p.Client != nil {
		clientName = p.Client.Name
	}
	return fmt.Sprintf("#%d - %s | Client: %s | Status: %s | Items: %d | Subtotal: %.2f | Total: %.2f",
		p.ID, p.Title, clientName, p.status, len(p.items), p.Subtotal(), p.GrandTotal())
}
