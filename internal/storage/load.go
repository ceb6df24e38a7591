package storage

import (
	"context"
	"time"

	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
	"gorm.io/gorm"
)

// LoadAll rebuilds the whole aggregate from storage in three passes:
// clients, then proposals, then items, each ordered by id. Proposals whose
// client row is missing and items whose proposal is missing are skipped;
// the identity of a skipped proposal is still never handed out again.
// The aggregate is only replaced once every pass has succeeded.
func (m *Manager) LoadAll(ctx context.Context, agg *models.ProposalManager) error {
	conn := m.db.WithContext(ctx)
	now := time.Now()

	// Clients
	var clientRows []db.ClientRecord
	if err := conn.Order("id").Find(&clientRows).Error; err != nil {
		return persistenceError("load clients", err)
	}
	clients := make([]*models.Client, 0, len(clientRows))
	clientsByID := make(map[uint]*models.Client, len(clientRows))
	for _, row := range clientRows {
		c := models.RestoreClient(row.ID, row.Name, deref(row.Document), deref(row.Contact))
		clients = append(clients, c)
		clientsByID[c.ID] = c
	}

	// Proposals
	var proposalRows []db.ProposalRecord
	if err := conn.Order("id").Find(&proposalRows).Error; err != nil {
		return persistenceError("load proposals", err)
	}
	proposals := make([]*models.Proposal, 0, len(proposalRows))
	proposalsByID := make(map[uint]*models.Proposal, len(proposalRows))
	var skippedProposals int
	var maxProposalID uint
	for _, row := range proposalRows {
		maxProposalID = max(maxProposalID, row.ID)
		client, ok := clientsByID[row.ClientID]
		if !ok {
			skippedProposals++
			m.log.Warn("skipping proposal with missing client", "proposal_id", row.ID, "client_id", row.ClientID)
			continue
		}
		p := m.restoreProposal(row, client, now)
		proposals = append(proposals, p)
		proposalsByID[p.ID] = p
	}

	// Items
	itemsByProposal, skippedItems, err := m.loadItems(conn, proposalsByID)
	if err != nil {
		return persistenceError("load items", err)
	}
	for _, p := range proposals {
		for _, item := range itemsByProposal[p.ID] {
			p.AddItem(item)
		}
	}

	agg.Restore(clients, proposals)
	// Skipped rows still occupy their identity in storage.
	agg.ReserveIDs(0, maxProposalID)
	m.log.Info("aggregate loaded",
		"clients", len(clients),
		"proposals", len(proposals),
		"skipped_proposals", skippedProposals,
		"skipped_items", skippedItems,
	)
	return nil
}

func (m *Manager) restoreProposal(row db.ProposalRecord, client *models.Client, now time.Time) *models.Proposal {
	createdAt, ok := parseCreatedAt(row.Created, now)
	if !ok {
		m.log.Warn("unreadable proposal creation time", "proposal_id", row.ID, "value", row.Created)
	}
	status, err := models.ParseStatus(row.Status)
	if err != nil {
		m.log.Warn("unknown proposal status, using draft", "proposal_id", row.ID, "value", row.Status)
		status = models.StatusDraft
	}
	discount, err := discountFromRecord(row)
	if err != nil {
		m.log.Warn("unknown discount kind, ignoring discount", "proposal_id", row.ID, "error", err)
	}
	return models.RestoreProposal(models.ProposalState{
		ID:           row.ID,
		Client:       client,
		Title:        row.Title,
		CreatedAt:    createdAt,
		Status:       status,
		ExpiresAt:    parseExpiresAt(row.ExpiresAt),
		Owner:        deref(row.Owner),
		PaymentTerms: deref(row.PaymentTerms),
		Discount:     discount,
	})
}

func (m *Manager) loadItems(conn *gorm.DB, proposals map[uint]*models.Proposal) (map[uint][]models.LineItem, int, error) {
	var rows []db.ItemRecord
	if err := conn.Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make(map[uint][]models.LineItem)
	var skipped int
	for _, row := range rows {
		if _, ok := proposals[row.ProposalID]; !ok {
			skipped++
			m.log.Debug("skipping item with missing proposal", "item_id", row.ID, "proposal_id", row.ProposalID)
			continue
		}
		out[row.ProposalID] = append(out[row.ProposalID], models.LineItem{
			Description: row.Description,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
		})
	}
	return out, skipped, nil
}
