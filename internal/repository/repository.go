package repository

import "gorm.io/gorm"

// conn returns tx when the caller is inside a transaction, db otherwise
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// currentCostExpr is the cost the ledger is reconciled against: total cost, falling back to budget
const currentCostExpr = "COALESCE(total_cost, budget)"
