package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/platform/logger"
	"github.com/diewo77/dealflow/internal/storage"
	"github.com/diewo77/dealflow/internal/validation"
)

// ClientInput holds the editable fields of a client.
type ClientInput struct {
	Name     string
	Document string
	Contact  string
}

// ProposalInput holds the editable fields of a proposal.
type ProposalInput struct {
	ClientID     uint
	Title        string
	ExpiresAt    *time.Time
	Owner        string
	PaymentTerms string
}

// ItemInput holds the fields of a line item.
type ItemInput struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// ProposalService applies caller actions to the aggregate and persists
// each change before returning.
//
// Failed creations are removed from the aggregate again. Failed updates stay
// applied in memory and can be written later with SaveAll.
type ProposalService struct {
	mgr   *models.ProposalManager
	store *storage.Manager
	log   *logger.Logger
}

func NewProposalService(mgr *models.ProposalManager, store *storage.Manager, baseLog *logger.Logger) *ProposalService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &ProposalService{mgr: mgr, store: store, log: baseLog.With("service", "ProposalService")}
}

// Load initializes the schema and rebuilds the aggregate from storage.
func (s *ProposalService) Load(ctx context.Context) error {
	if err := s.store.InitSchema(ctx); err != nil {
		return err
	}
	return s.store.LoadAll(ctx, s.mgr)
}

// SaveAll writes the whole aggregate.
func (s *ProposalService) SaveAll(ctx context.Context) error {
	return s.store.SaveAll(ctx, s.mgr)
}

func (s *ProposalService) Clients() []*models.Client { return s.mgr.Clients() }

func (s *ProposalService) Proposals() []*models.Proposal { return s.mgr.Proposals() }

// Client returns the client with the given id.
func (s *ProposalService) Client(id uint) (*models.Client, error) {
	c, ok := s.mgr.ClientByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: client %d", models.ErrNotFound, id)
	}
	return c, nil
}

// Proposal returns the proposal with the given id.
func (s *ProposalService) Proposal(id uint) (*models.Proposal, error) {
	p, ok := s.mgr.ProposalByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: proposal %d", models.ErrNotFound, id)
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Clients
// ─────────────────────────────────────────────────────────────────────────────

func (s *ProposalService) CreateClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	in = in.trimmed()
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	c, err := s.mgr.CreateClient(in.Name, in.Document, in.Contact)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveClient(ctx, c); err != nil {
		s.mgr.ForgetClient(c.ID)
		return nil, err
	}
	s.log.Info("client created", "client_id", c.ID)
	return c, nil
}

func (s *ProposalService) UpdateClient(ctx context.Context, id uint, in ClientInput) (*models.Client, error) {
	c, err := s.Client(id)
	if err != nil {
		return nil, err
	}
	in = in.trimmed()
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	c.Name, c.Document, c.Contact = in.Name, in.Document, in.Contact
	if err := s.store.SaveClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteClient removes a client that no proposal references.
func (s *ProposalService) DeleteClient(ctx context.Context, id uint) error {
	if _, err := s.Client(id); err != nil {
		return err
	}
	if n := len(s.mgr.ProposalsForClient(id)); n > 0 {
		return fmt.Errorf("%w: client %d has %d proposal(s)", ErrClientInUse, id, n)
	}
	if err := s.store.DeleteClient(ctx, s.mgr, id); err != nil {
		return err
	}
	s.log.Info("client deleted", "client_id", id)
	return nil
}

func (in ClientInput) trimmed() ClientInput {
	return ClientInput{
		Name:     strings.TrimSpace(in.Name),
		Document: strings.TrimSpace(in.Document),
		Contact:  strings.TrimSpace(in.Contact),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Proposals
// ─────────────────────────────────────────────────────────────────────────────

func (s *ProposalService) CreateProposal(ctx context.Context, in ProposalInput) (*models.Proposal, error) {
	client, err := s.Client(in.ClientID)
	if err != nil {
		return nil, err
	}
	p := s.mgr.CreateProposal(client, models.ProposalOptions{
		Title:        strings.TrimSpace(in.Title),
		ExpiresAt:    in.ExpiresAt,
		Owner:        strings.TrimSpace(in.Owner),
		PaymentTerms: strings.TrimSpace(in.PaymentTerms),
	})
	if err := s.persistNew(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("proposal created", "proposal_id", p.ID, "client_id", client.ID)
	return p, nil
}

// persistNew writes a proposal created in this call together with its
// items, and drops it from the aggregate when the proposal row cannot be
// written.
func (s *ProposalService) persistNew(ctx context.Context, p *models.Proposal) error {
	if err := s.store.SaveProposal(ctx, p); err != nil {
		s.mgr.ForgetProposal(p.ID)
		return err
	}
	return s.store.SyncItems(ctx, p)
}

// UpdateProposal changes the client and the optional terms of a proposal.
// A blank title resets it to the generated one.
func (s *ProposalService) UpdateProposal(ctx context.Context, id uint, in ProposalInput) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	client, err := s.Client(in.ClientID)
	if err != nil {
		return nil, err
	}
	p.Client = client
	p.Title = strings.TrimSpace(in.Title)
	if p.Title == "" {
		p.Title = fmt.Sprintf("Proposal %d", p.ID)
	}
	p.ExpiresAt = in.ExpiresAt
	p.Owner = strings.TrimSpace(in.Owner)
	p.PaymentTerms = strings.TrimSpace(in.PaymentTerms)
	if err := s.store.SaveProposal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProposalService) DeleteProposal(ctx context.Context, id uint) error {
	if _, err := s.Proposal(id); err != nil {
		return err
	}
	if err := s.store.DeleteProposal(ctx, s.mgr, id); err != nil {
		return err
	}
	s.log.Info("proposal deleted", "proposal_id", id)
	return nil
}

// Duplicate copies a proposal, its items and its discount into a new draft.
func (s *ProposalService) Duplicate(ctx context.Context, id uint) (*models.Proposal, error) {
	src, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	opts := models.ProposalOptions{
		Title:        src.Title + " (copy)",
		Owner:        src.Owner,
		PaymentTerms: src.PaymentTerms,
	}
	if src.ExpiresAt != nil {
		expires := *src.ExpiresAt
		opts.ExpiresAt = &expires
	}
	dup := s.mgr.CreateProposal(src.Client, opts)
	dup.SetDiscount(src.Discount())
	for _, item := range src.Items() {
		dup.AddItem(item)
	}
	if err := s.persistNew(ctx, dup); err != nil {
		return nil, err
	}
	s.log.Info("proposal duplicated", "proposal_id", dup.ID, "source_id", src.ID)
	return dup, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Items
// ─────────────────────────────────────────────────────────────────────────────

func (s *ProposalService) AddItem(ctx context.Context, id uint, in ItemInput) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	item, err := in.lineItem()
	if err != nil {
		return nil, err
	}
	p.AddItem(item)
	return p, s.syncAndSave(ctx, p)
}

// UpdateItem replaces the item at index (0-based).
func (s *ProposalService) UpdateItem(ctx context.Context, id uint, index int, in ItemInput) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	item, err := in.lineItem()
	if err != nil {
		return nil, err
	}
	if err := p.UpdateItem(index, item); err != nil {
		return nil, err
	}
	return p, s.syncAndSave(ctx, p)
}

// RemoveItem deletes the item at index (0-based).
func (s *ProposalService) RemoveItem(ctx context.Context, id uint, index int) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	if err := p.RemoveItem(index); err != nil {
		return nil, err
	}
	return p, s.syncAndSave(ctx, p)
}

func (s *ProposalService) syncAndSave(ctx context.Context, p *models.Proposal) error {
	if err := s.store.SyncItems(ctx, p); err != nil {
		return err
	}
	return s.store.SaveProposal(ctx, p)
}

func (in ItemInput) lineItem() (models.LineItem, error) {
	v := make(validation.Violations)
	validation.Required("description", in.Description, v)
	if !v.Empty() {
		return models.LineItem{}, &ValidationError{Violations: v}
	}
	return models.LineItem{
		Description: strings.TrimSpace(in.Description),
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Discount & status
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDiscount sets the discount mode of a proposal. kind is "none",
// "percentage" or "fixed"; value is ignored for "none".
func (s *ProposalService) ApplyDiscount(ctx context.Context, id uint, kind string, value float64) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	k, err := models.ParseDiscountKind(kind)
	if err != nil {
		return nil, err
	}
	p.SetDiscount(models.NewDiscount(k, value))
	if err := s.store.SaveProposal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProposalService) ChangeStatus(ctx context.Context, id uint, status string) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	if err := p.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.store.SaveProposal(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("proposal status changed", "proposal_id", id, "status", p.Status())
	return p, nil
}

// Send marks a draft proposal as sent. Proposals that already left draft
// are refused with ErrAlreadyFinal.
func (s *ProposalService) Send(ctx context.Context, id uint) (*models.Proposal, error) {
	p, err := s.Proposal(id)
	if err != nil {
		return nil, err
	}
	if !p.IsDraft() {
		return nil, fmt.Errorf("%w: proposal %d is already %s", ErrAlreadyFinal, id, p.Status())
	}
	return s.ChangeStatus(ctx, id, string(models.StatusSent))
}
