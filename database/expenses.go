package database

import (
	"errors"

	"expense-tracker-backend/models"

	"gorm.io/gorm"
)

// sortColumns whitelists the orderings the list endpoint accepts.
var sortColumns = map[string]string{
	"date_asc":    "date ASC, created_at ASC",
	"date_desc":   "date DESC, created_at DESC",
	"amount_asc":  "amount ASC",
	"amount_desc": "amount DESC",
}

// ExpenseStore is the GORM-backed expense repository.
type ExpenseStore struct {
	db *gorm.DB
}

func NewExpenseStore(db *gorm.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

func (s *ExpenseStore) Create(e *models.Expense) error {
	return s.db.Create(e).Error
}

// Get returns the expense with the given id, or nil when absent.
func (s *ExpenseStore) Get(id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *ExpenseStore) List(f models.ExpenseFilter) ([]models.Expense, error) {
	q := s.db.Model(&models.Expense{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	order, ok := sortColumns[f.Sort]
	if !ok {
		order = sortColumns["date_desc"]
	}

	var expenses []models.Expense
	if err := q.Order(order).Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}
