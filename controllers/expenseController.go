package controllers

import (
	"strings"
	"time"

	"expense-tracker-backend/middlewares"
	"expense-tracker-backend/models"
	"expense-tracker-backend/money"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// dateFloor is the earliest accepted expense date.
var dateFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ExpenseRepository is the persistence surface the controller needs.
type ExpenseRepository interface {
	Create(e *models.Expense) error
	Get(id string) (*models.Expense, error)
	List(f models.ExpenseFilter) ([]models.Expense, error)
}

type ExpenseController struct {
	repo ExpenseRepository
}

func NewExpenseController(repo ExpenseRepository) *ExpenseController {
	return &ExpenseController{repo: repo}
}

type CreateExpenseInput struct {
	Amount      string `json:"amount"`
	Category    string `json:"category" validate:"required,oneof=Food Transport Housing Utilities Entertainment Health Shopping Other"`
	Description string `json:"description" validate:"required,max=255"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// Create handles POST /expense. It always runs behind the idempotency guard,
// so a retried request never reaches the repository twice for a live key.
func (ctl *ExpenseController) Create(c *fiber.Ctx) error {
	var input CreateExpenseInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	// Amount is validated on the raw string; surrounding whitespace is a
	// format error, not something to trim away.
	amount, err := money.Parse(input.Amount)
	if err != nil {
		return err
	}

	date, err := time.ParseInLocation(dateLayout, input.Date, time.UTC)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid date")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "date must not be in the future")
	}
	if date.Before(dateFloor) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "date is before the supported range")
	}

	expense := models.Expense{
		Amount:      amount,
		Category:    input.Category,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
	}
	if expense.Description == "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "description must not be blank")
	}

	if err := ctl.repo.Create(&expense); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create expense")
	}

	return c.Status(fiber.StatusCreated).JSON(expense)
}

// Get handles GET /expense/:id.
func (ctl *ExpenseController) Get(c *fiber.Ctx) error {
	expense, err := ctl.repo.Get(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load expense")
	}
	if expense == nil {
		return fiber.NewError(fiber.StatusNotFound, "expense not found")
	}
	return c.JSON(expense)
}

// List handles GET /expenses with optional category/from/to filters and sort.
func (ctl *ExpenseController) List(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	expenses, err := ctl.repo.List(filter)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list expenses")
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return c.JSON(expenses)
}

// Summary handles GET /expenses/summary: per-category totals plus a grand
// total, accumulated in exact decimal arithmetic.
func (ctl *ExpenseController) Summary(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	expenses, err := ctl.repo.List(filter)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not summarize expenses")
	}

	byCategory := make(map[string][]money.Amount)
	all := make([]money.Amount, 0, len(expenses))
	for _, e := range expenses {
		byCategory[e.Category] = append(byCategory[e.Category], e.Amount)
		all = append(all, e.Amount)
	}
	totals := make(map[string]money.Amount, len(byCategory))
	for cat, amounts := range byCategory {
		totals[cat] = money.Sum(amounts)
	}

	return c.JSON(fiber.Map{
		"count":       len(expenses),
		"total":       money.Sum(all),
		"by_category": totals,
	})
}

func filterFromQuery(c *fiber.Ctx) (models.ExpenseFilter, error) {
	filter := models.ExpenseFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Sort:     c.Query("sort", "date_desc"),
	}
	if filter.Category != "" && !models.ValidCategory(filter.Category) {
		return filter, fiber.NewError(fiber.StatusUnprocessableEntity, "unknown category")
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusUnprocessableEntity, "invalid from date")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusUnprocessableEntity, "invalid to date")
		}
		filter.To = &to
	}
	return filter, nil
}
