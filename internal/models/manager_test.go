package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalManager_CreateClient(t *testing.T) {
	m := NewProposalManager()

	_, err := m.CreateClient("   ", "", "")
	require.True(t, errors.Is(err, ErrInvalidInput), "blank name should fail, got %v", err)
	assert.Empty(t, m.Clients())

	var last uint
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		c, err := m.CreateClient(name, "doc", "contact")
		require.NoError(t, err)
		assert.Greater(t, c.ID, last)
		last = c.ID
	}
	assert.Len(t, m.Clients(), 3)
	assert.Equal(t, uint(4), m.NextClientID())
}

func TestProposalManager_CreateProposal(t *testing.T) {
	m := NewProposalManager()
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)
	m.SetClock(func() time.Time { return fixed })

	c, err := m.CreateClient("Acme", "", "")
	require.NoError(t, err)

	expires := time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)
	p := m.CreateProposal(c, ProposalOptions{Title: "Website", ExpiresAt: &expires, Owner: "ana", PaymentTerms: "30 days"})
	assert.Equal(t, uint(1), p.ID)
	assert.Equal(t, "Website", p.Title)
	assert.Equal(t, StatusDraft, p.Status())
	assert.Equal(t, fixed, p.CreatedAt())
	assert.Equal(t, DiscountNone, p.Discount().Kind())
	assert.Zero(t, p.ItemCount())
	assert.Same(t, c, p.Client)

	blank := m.CreateProposal(c, ProposalOptions{Title: "  "})
	assert.Equal(t, "Proposal 2", blank.Title)

	// proposal identities are independent of client identities
	assert.Equal(t, uint(2), m.NextClientID())
	assert.Equal(t, uint(3), m.NextProposalID())
}

func TestProposalManager_Lookups(t *testing.T) {
	m := NewProposalManager()
	a, _ := m.CreateClient("A", "", "")
	b, _ := m.CreateClient("B", "", "")
	p1 := m.CreateProposal(a, ProposalOptions{})
	p2 := m.CreateProposal(b, ProposalOptions{})

	got, ok := m.ClientAt(1)
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = m.ClientAt(2)
	assert.False(t, ok)
	_, ok = m.ClientAt(-1)
	assert.False(t, ok)
	_, ok = m.ProposalAt(5)
	assert.False(t, ok)

	gotP, ok := m.ProposalByID(p2.ID)
	require.True(t, ok)
	assert.Same(t, p2, gotP)

	_, ok = m.ProposalByID(99)
	assert.False(t, ok)

	assert.Equal(t, []*Proposal{p1}, m.ProposalsForClient(a.ID))
}

func TestProposalManager_IndependentRegistries(t *testing.T) {
	m1 := NewProposalManager()
	m2 := NewProposalManager()
	c1, _ := m1.CreateClient("A", "", "")
	_, _ = m1.CreateClient("B", "", "")
	c2, _ := m2.CreateClient("C", "", "")
	assert.Equal(t, uint(1), c1.ID)
	assert.Equal(t, uint(1), c2.ID)
}

func TestProposalManager_Restore(t *testing.T) {
	m := NewProposalManager()
	c := RestoreClient(10, "Acme", "", "")
	p := RestoreProposal(ProposalState{ID: 42, Client: c, Title: "t", Status: StatusSent})
	m.Restore([]*Client{c}, []*Proposal{p})

	assert.Equal(t, uint(11), m.NextClientID())
	assert.Equal(t, uint(43), m.NextProposalID())

	next, err := m.CreateClient("New", "", "")
	require.NoError(t, err)
	assert.Equal(t, uint(11), next.ID)
}

func TestProposalManager_RestoreEmptyLeavesAllocators(t *testing.T) {
	m := NewProposalManager()
	_, _ = m.CreateClient("A", "", "")
	_, _ = m.CreateClient("B", "", "")

	m.Restore(nil, nil)
	assert.Empty(t, m.Clients())
	assert.Equal(t, uint(3), m.NextClientID(), "empty restore must not reset the allocator")
	assert.Equal(t, uint(1), m.NextProposalID())
}

func TestProposalManager_RestoreNeverMovesBackwards(t *testing.T) {
	m := NewProposalManager()
	for i := 0; i < 5; i++ {
		_, _ = m.CreateClient("x", "", "")
	}
	m.Restore([]*Client{RestoreClient(2, "old", "", "")}, nil)
	assert.Equal(t, uint(6), m.NextClientID())
}

func TestProposalManager_Forget(t *testing.T) {
	m := NewProposalManager()
	a, _ := m.CreateClient("A", "", "")
	b, _ := m.CreateClient("B", "", "")
	p := m.CreateProposal(a, ProposalOptions{})

	assert.True(t, m.ForgetClient(a.ID))
	assert.False(t, m.ForgetClient(a.ID))
	assert.Equal(t, []*Client{b}, m.Clients())

	assert.True(t, m.ForgetProposal(p.ID))
	assert.Empty(t, m.Proposals())

	// identities are not reused after removal
	c, _ := m.CreateClient("C", "", "")
	assert.Equal(t, uint(3), c.ID)
}

func TestProposalManager_ReserveIDs(t *testing.T) {
	m := NewProposalManager()
	m.ReserveIDs(0, 9)
	assert.Equal(t, uint(1), m.NextClientID())
	assert.Equal(t, uint(10), m.NextProposalID())
	m.ReserveIDs(3, 2)
	assert.Equal(t, uint(4), m.NextClientID())
	assert.Equal(t, uint(10), m.NextProposalID())
}
