// Package storage maps the in-memory proposal aggregate to the clients,
// proposals and items tables.
//
// Every exported operation runs in its own transaction; no transaction spans
// two calls. Concurrent writers to the same identity are not coordinated and
// the last write wins.
package storage

import (
	"context"

	"github.com/diewo77/dealflow/internal/db"
	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/platform/logger"
	"gorm.io/gorm"
)

// Manager persists clients, proposals and their items.
type Manager struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewManager(conn *gorm.DB, baseLog *logger.Logger) *Manager {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Manager{db: conn, log: baseLog.With("component", "storage")}
}

// InitSchema creates the tables that do not exist yet.
func (m *Manager) InitSchema(ctx context.Context) error {
	return persistenceError("init schema", db.Migrate(ctx, m.db))
}

func (m *Manager) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return persistenceError(op, m.db.WithContext(ctx).Transaction(fn))
}

// SaveClient inserts the client when no row has its identity yet and
// overwrites the row otherwise.
func (m *Manager) SaveClient(ctx context.Context, c *models.Client) error {
	return m.inTx(ctx, "save client", func(tx *gorm.DB) error {
		return saveClient(tx, c)
	})
}

func saveClient(tx *gorm.DB, c *models.Client) error {
	rec := clientRecord(c)
	exists, err := rowExists(tx, &db.ClientRecord{}, rec.ID)
	if err != nil {
		return err
	}
	if !exists {
		return tx.Create(&rec).Error
	}
	return tx.Model(&db.ClientRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"name":     rec.Name,
			"document": rec.Document,
			"contact":  rec.Contact,
		}).Error
}

// DeleteClient removes the client row. Proposals that still reference it
// are left in place and skipped by the next LoadAll. When agg is not nil the
// client is also dropped from the aggregate once the delete has committed.
func (m *Manager) DeleteClient(ctx context.Context, agg *models.ProposalManager, id uint) error {
	err := m.inTx(ctx, "delete client", func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Delete(&db.ClientRecord{}).Error
	})
	if err != nil {
		return err
	}
	if agg != nil {
		agg.ForgetClient(id)
	}
	m.log.Debug("client deleted", "client_id", id)
	return nil
}

// SaveProposal inserts the proposal when no row has its identity yet and
// overwrites every mutable column otherwise. Items are written by SyncItems.
func (m *Manager) SaveProposal(ctx context.Context, p *models.Proposal) error {
	return m.inTx(ctx, "save proposal", func(tx *gorm.DB) error {
		return saveProposal(tx, p)
	})
}

func saveProposal(tx *gorm.DB, p *models.Proposal) error {
	rec := proposalRecord(p)
	exists, err := rowExists(tx, &db.ProposalRecord{}, rec.ID)
	if err != nil {
		return err
	}
	if !exists {
		return tx.Create(&rec).Error
	}
	return tx.Model(&db.ProposalRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"client_id":           rec.ClientID,
			"title":               rec.Title,
			"created_at":          rec.Created,
			"status":              rec.Status,
			"expires_at":          rec.ExpiresAt,
			"owner":               rec.Owner,
			"payment_terms":       rec.PaymentTerms,
			"discount_kind":       rec.DiscountKind,
			"discount_percentage": rec.DiscountPercentage,
			"discount_amount":     rec.DiscountAmount,
		}).Error
}

// DeleteProposal removes the proposal and all of its items in one
// transaction. Items go first so the delete itself never leaves item rows
// pointing at a missing proposal.
func (m *Manager) DeleteProposal(ctx context.Context, agg *models.ProposalManager, id uint) error {
	err := m.inTx(ctx, "delete proposal", func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", id).Delete(&db.ItemRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&db.ProposalRecord{}).Error
	})
	if err != nil {
		return err
	}
	if agg != nil {
		agg.ForgetProposal(id)
	}
	m.log.Debug("proposal deleted", "proposal_id", id)
	return nil
}

// SyncItems replaces the persisted items of p with its current items,
// inserted in sequence order.
func (m *Manager) SyncItems(ctx context.Context, p *models.Proposal) error {
	return m.inTx(ctx, "sync items", func(tx *gorm.DB) error {
		return syncItems(tx, p)
	})
}

func syncItems(tx *gorm.DB, p *models.Proposal) error {
	if err := tx.Where("proposal_id = ?", p.ID).Delete(&db.ItemRecord{}).Error; err != nil {
		return err
	}
	for _, item := range p.Items() {
		rec := db.ItemRecord{
			ProposalID:  p.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveAll writes every client, proposal and item set of agg in a single
// transaction.
func (m *Manager) SaveAll(ctx context.Context, agg *models.ProposalManager) error {
	err := m.inTx(ctx, "save all", func(tx *gorm.DB) error {
		for _, c := range agg.Clients() {
			if err := saveClient(tx, c); err != nil {
				return err
			}
		}
		for _, p := range agg.Proposals() {
			if err := saveProposal(tx, p); err != nil {
				return err
			}
			if err := syncItems(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info("aggregate saved", "clients", len(agg.Clients()), "proposals", len(agg.Proposals()))
	return nil
}

func rowExists(tx *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
