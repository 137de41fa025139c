package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tillpoint-api/internal/domain/repository"
	"gorm.io/gorm"
)

type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) domainRepo.SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) GetByShift(ctx context.Context, shiftID uuid.UUID) (*entity.Settlement, error) {
	var settlement entity.Settlement
	err := r.db.WithContext(ctx).Preload("Lines").First(&settlement, "shift_id = ?", shiftID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &settlement, err
}

func (r *settlementRepository) Settle(ctx context.Context, shiftID uuid.UUID, build domainRepo.SettlementBuilder) (*entity.Settlement, error) {
	var settlement *entity.Settlement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shift entity.Shift
		if err := tx.Scopes(lockForUpdate).First(&shift, "id = ?", shiftID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainRepo.ErrShiftNotOpen
			}
			return err
		}
		if !shift.IsOpen() {
			return domainRepo.ErrShiftNotOpen
		}

		// Submissions block on the shift lock and refunds on these row locks.
		var ids []uuid.UUID
		if err := tx.Scopes(lockForUpdate).Model(&entity.Sale{}).
			Where("shift_id = ? AND settlement_id IS NULL", shiftID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		sales := []entity.Sale{}
		if len(ids) > 0 {
			if err := tx.Preload("Items").
				Where("id IN ?", ids).
				Order("recorded_at ASC").
				Find(&sales).Error; err != nil {
				return err
			}
		}

		built, err := build(&shift, sales)
		if err != nil {
			return err
		}
		built.ShiftID = shift.ID
		if err := tx.Create(built).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			if err := tx.Model(&entity.Sale{}).
				Where("id IN ?", ids).
				Update("settlement_id", built.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&entity.Shift{}).
			Where("id = ?", shift.ID).
			Updates(map[string]interface{}{
				"status":           enum.ShiftSettled,
				"closed_at":        built.ConfirmedAt,
				"break_started_at": nil,
			}).Error; err != nil {
			return err
		}
		settlement = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}
