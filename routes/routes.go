package routes

import (
	"github.com/gofiber/fiber/v2"

	"expense-tracker-backend/controllers"
	"expense-tracker-backend/idempotency"
	"expense-tracker-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, expenses *controllers.ExpenseController, guard *idempotency.Guard) {
	api := app.Group("/api")

	// Creation goes through the idempotency guard; reads do not.
	api.Post("/expense", middlewares.Idempotency(guard), expenses.Create)

	api.Get("/expenses", expenses.List)
	api.Get("/expenses/summary", expenses.Summary)
	api.Get("/expense/:id", expenses.Get)
}
