package repository

import (
	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"gorm.io/gorm"
)

// StatusCount is one row of a per-status aggregation for a batch
type StatusCount struct {
	Status model.ImportItemStatus
	Count  int64
}

type ImportRepository interface {
	FindBatchByID(id uint) (*model.ImportBatch, error)
	FindAllBatches() ([]model.ImportBatch, error)
	CountItemsByStatus(batchID uint) ([]StatusCount, error)
	FindItemsByBatch(batchID uint) ([]model.ImportItem, error)
	FindItemsByBatchAndStatus(batchID uint, status model.ImportItemStatus) ([]model.ImportItem, error)
	FindItemsByBatchAndIDs(batchID uint, itemIDs []uint) ([]model.ImportItem, error)
	FindItemByID(id uint) (*model.ImportItem, error)
	UpdateItem(item *model.ImportItem) error
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) FindBatchByID(id uint) (*model.ImportBatch, error) {
	var batch model.ImportBatch
	if err := r.db.First(&batch, id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *importRepository) FindAllBatches() ([]model.ImportBatch, error) {
	var batches []model.ImportBatch
	if err := r.db.Order("created_at DESC").Find(&batches).Error; err != nil {
		logger.Error("Failed to list import batches", err)
		return nil, err
	}
	return batches, nil
}

func (r *importRepository) CountItemsByStatus(batchID uint) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.Model(&model.ImportItem{}).
		Select("status, COUNT(*) as count").
		Where("batch_id = ?", batchID).
		Group("status").
		Scan(&counts).Error; err != nil {
		logger.Error("Failed to count import items by status", err, map[string]interface{}{
			"batch_id": batchID,
		})
		return nil, err
	}
	return counts, nil
}

func (r *importRepository) FindItemsByBatch(batchID uint) ([]model.ImportItem, error) {
	var items []model.ImportItem
	if err := r.db.
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		logger.Error("Failed to find import items", err, map[string]interface{}{
			"batch_id": batchID,
		})
		return nil, err
	}
	return items, nil
}

func (r *importRepository) FindItemsByBatchAndStatus(batchID uint, status model.ImportItemStatus) ([]model.ImportItem, error) {
	var items []model.ImportItem
	if err := r.db.
		Where("batch_id = ? AND status = ?", batchID, status).
		Order("id ASC").
		Find(&items).Error; err != nil {
		logger.Error("Failed to find import items by status", err, map[string]interface{}{
			"batch_id": batchID,
			"status":   status,
		})
		return nil, err
	}
	return items, nil
}

func (r *importRepository) FindItemsByBatchAndIDs(batchID uint, itemIDs []uint) ([]model.ImportItem, error) {
	var items []model.ImportItem
	if err := r.db.
		Where("batch_id = ? AND id IN ?", batchID, itemIDs).
		Order("id ASC").
		Find(&items).Error; err != nil {
		logger.Error("Failed to find import items by IDs", err, map[string]interface{}{
			"batch_id": batchID,
		})
		return nil, err
	}
	return items, nil
}

func (r *importRepository) FindItemByID(id uint) (*model.ImportItem, error) {
	var item model.ImportItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *importRepository) UpdateItem(item *model.ImportItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update import item", err, map[string]interface{}{
			"item_id": item.ID,
		})
		return err
	}
	return nil
}
