package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BranchScope restricts a query to one branch. A nil branch id matches nothing.
func BranchScope(branchID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if branchID == uuid.Nil {
			return db.Where("1 = 0")
		}
		return db.Where("branch_id = ?", branchID)
	}
}

// lockForUpdate takes a row lock for the rest of the transaction.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
