package database

import (
	"fmt"

	"expense-tracker-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column type (NUMERIC(12,2))
// - Unique idempotency key index + expiry index
// - Basic CHECK constraints
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Expense{},
			&models.IdempotencyRecord{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce the money column as NUMERIC(12,2) (idempotent ALTER) ---
		if err := tx.Exec(`ALTER TABLE expenses ALTER COLUMN amount TYPE numeric(12,2)`).Error; err != nil {
			return fmt.Errorf("money type migration failed: %w", err)
		}

		// --- Indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_records_key ON idempotency_records (key)`,
			`CREATE INDEX IF NOT EXISTS idx_idempotency_records_expires_at ON idempotency_records (expires_at)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_category_date ON expenses (category, date)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraint: amount strictly positive (idempotent) ---
		check := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = 'expenses'::regclass
		  AND conname  = 'chk_expenses_amount_positive'
	) THEN
		ALTER TABLE expenses
		ADD CONSTRAINT chk_expenses_amount_positive
		CHECK (amount > 0);
	END IF;
END $$;`
		if err := tx.Exec(check).Error; err != nil {
			return fmt.Errorf("check constraint migration failed: %w", err)
		}

		return nil
	})
}
