package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/util"
)

var (
	// ErrNotFound is reported by Delete when no row matched the id.
	ErrNotFound = errors.New("purchase not found")
	// ErrNoLineItems is reported by Create for an empty line-item list.
	ErrNoLineItems = errors.New("purchase has no line items")
)

// Store is the storage access object for purchases.
type Store interface {
	ListAll(ctx context.Context) ([]models.Purchase, error)
	Create(ctx context.Context, p models.Purchase) (*models.Purchase, error)
	Delete(ctx context.Context, id string) error
}

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListAll returns every purchase with its line items attached, newest
// date first; equal dates order stable by id.
func (s *GormStore) ListAll(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	if err := s.db.WithContext(ctx).
		Preload("LineItems").
		Order("date DESC, id").
		Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	for i := range purchases {
		// a purchase whose items were removed out-of-band still lists,
		// with an empty array rather than null on the wire
		if purchases[i].LineItems == nil {
			purchases[i].LineItems = []models.PurchaseLineItem{}
		}
	}
	return purchases, nil
}

// Create assigns ids and the creation timestamp, then persists the
// purchase row and all of its line-item rows in one transaction. Either
// everything is written or nothing is.
func (s *GormStore) Create(ctx context.Context, p models.Purchase) (*models.Purchase, error) {
	if len(p.LineItems) == 0 {
		return nil, ErrNoLineItems
	}

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	for i := range p.LineItems {
		p.LineItems[i].ID = uuid.NewString()
		p.LineItems[i].PurchaseID = p.ID
		p.LineItems[i].Price = util.FormatPrice(p.LineItems[i].Price)
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&p).Error
	}); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	return &p, nil
}

// Delete removes the purchase; its line items go with it through the
// cascading foreign key. Reports ErrNotFound when nothing matched.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Purchase{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete purchase: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
