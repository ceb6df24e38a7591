package models

import (
	"fmt"
	"strings"
	"time"
)

// ProposalOptions holds the optional fields of a new proposal.
type ProposalOptions struct {
	Title        string
	ExpiresAt    *time.Time
	Owner        string
	PaymentTerms string
}

// ProposalManager is the in-memory aggregate of all clients and proposals.
// Both sequences keep creation (or load) order.
type ProposalManager struct {
	clients   []*Client
	proposals []*Proposal

	clientIDs   IDAllocator
	proposalIDs IDAllocator

	now func() time.Time
}

// NewProposalManager returns an empty aggregate with its own identity allocators.
func NewProposalManager() *ProposalManager {
	return &ProposalManager{
		clientIDs:   NewIDAllocator(),
		proposalIDs: NewIDAllocator(),
		now:         time.Now,
	}
}

// SetClock overrides the source of creation timestamps.
func (m *ProposalManager) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
}

// CreateClient registers a new client. The name is required.
func (m *ProposalManager) CreateClient(name, document, contact string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	c := &Client{
		ID:       m.clientIDs.Next(),
		Name:     name,
		Document: document,
		Contact:  contact,
	}
	m.clients = append(m.clients, c)
	return c, nil
}

// CreateProposal registers a new draft proposal for client. The caller is
// responsible for client already belonging to this aggregate.
func (m *ProposalManager) CreateProposal(client *Client, opts ProposalOptions) *Proposal {
	id := m.proposalIDs.Next()
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Proposal %d", id)
	}
	p := &Proposal{
		ID:           id,
		Client:       client,
		Title:        title,
		ExpiresAt:    opts.ExpiresAt,
		Owner:        opts.Owner,
		PaymentTerms: opts.PaymentTerms,
		createdAt:    m.now(),
		status:       StatusDraft,
	}
	m.proposals = append(m.proposals, p)
	return p
}

// Clients returns all clients in insertion order.
func (m *ProposalManager) Clients() []*Client {
	out := make([]*Client, len(m.clients))
	copy(out, m.clients)
	return out
}

// Proposals returns all proposals in insertion order.
func (m *ProposalManager) Proposals() []*Proposal {
	out := make([]*Proposal, len(m.proposals))
	copy(out, m.proposals)
	return out
}

// ClientAt returns the client at position i.
func (m *ProposalManager) ClientAt(i int) (*Client, bool) {
	if i < 0 || i >= len(m.clients) {
		return nil, false
	}
	return m.clients[i], true
}

// ProposalAt returns the proposal at position i.
func (m *ProposalManager) ProposalAt(i int) (*Proposal, bool) {
	if i < 0 || i >= len(m.proposals) {
		return nil, false
	}
	return m.proposals[i], true
}

func (m *ProposalManager) ClientByID(id uint) (*Client, bool) {
	for _, c := range m.clients {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (m *ProposalManager) ProposalByID(id uint) (*Proposal, bool) {
	for _, p := range m.proposals {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// ProposalsForClient returns the proposals that reference the client id.
func (m *ProposalManager) ProposalsForClient(id uint) []*Proposal {
	var out []*Proposal
	for _, p := range m.proposals {
		if p.Client != nil && p.Client.ID == id {
			out = append(out, p)
		}
	}
	return out
}

// NextClientID returns the identity the next CreateClient will use.
func (m *ProposalManager) NextClientID() uint { return m.clientIDs.Peek() }

// NextProposalID returns the identity the next CreateProposal will use.
func (m *ProposalManager) NextProposalID() uint { return m.proposalIDs.Peek() }

// Restore replaces the aggregate contents with entities read from storage.
// Each allocator is advanced past the highest loaded identity of its kind;
// an empty sequence leaves its allocator untouched.
func (m *ProposalManager) Restore(clients []*Client, proposals []*Proposal) {
	m.clients = append([]*Client(nil), clients...)
	m.proposals = append([]*Proposal(nil), proposals...)

	var maxClient, maxProposal uint
	for _, c := range clients {
		maxClient = max(maxClient, c.ID)
	}
	for _, p := range proposals {
		maxProposal = max(maxProposal, p.ID)
	}
	if maxClient > 0 {
		m.clientIDs.AdvancePast(maxClient)
	}
	if maxProposal > 0 {
		m.proposalIDs.AdvancePast(maxProposal)
	}
}

// ReserveIDs makes sure future identities are greater than the given
// values. Storage uses it for rows it has seen but not loaded.
func (m *ProposalManager) ReserveIDs(maxClient, maxProposal uint) {
	if maxClient > 0 {
		m.clientIDs.AdvancePast(maxClient)
	}
	if maxProposal > 0 {
		m.proposalIDs.AdvancePast(maxProposal)
	}
}

// ForgetClient drops the client from the in-memory sequence once it has
// been deleted from storage. It reports whether the client was present.
func (m *ProposalManager) ForgetClient(id uint) bool {
	for i, c := range m.clients {
		if c.ID == id {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			return true
		}
	}
	return false
}

// ForgetProposal drops the proposal from the in-memory sequence once it has
// been deleted from storage. It reports whether the proposal was present.
func (m *ProposalManager) ForgetProposal(id uint) bool {
	for i, p := range m.proposals {
		if p.ID == id {
			m.proposals = append(m.proposals[:i], m.proposals[i+1:]...)
			return true
		}
	}
	return false
}
