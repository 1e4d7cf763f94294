package middlewares

import (
	"errors"
	"log"

	"expense-tracker-backend/idempotency"

	"github.com/gofiber/fiber/v2"
)

// HeaderIdempotencyKey is the request header carrying the client token.
const HeaderIdempotencyKey = "Idempotency-Key"

// Idempotency wraps POST handlers in the guard. The downstream handler runs
// at most once per live key; a replayed key gets the cached body with 200.
// The sequence is explicit: the handler computes the response, the guard
// caches it (2xx only), then the response is emitted.
func Idempotency(guard *idempotency.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		out, err := guard.Do(c.Get(HeaderIdempotencyKey), func() (idempotency.Result, error) {
			if err := c.Next(); err != nil {
				return idempotency.Result{}, err
			}
			resp := c.Response().Body()
			body := make([]byte, len(resp))
			copy(body, resp)
			return idempotency.Result{Status: c.Response().StatusCode(), Body: body}, nil
		})
		if err != nil {
			var se *idempotency.StoreError
			switch {
			case errors.Is(err, idempotency.ErrKeyMissing), errors.Is(err, idempotency.ErrKeyMalformed):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.As(err, &se):
				log.Printf("%v", se) // detail stays out of the response
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency bookkeeping failed")
			default:
				// Protected-operation failure propagates unchanged.
				return err
			}
		}

		if out.Replayed {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(out.Status).Send(out.Body)
		}
		// Fresh execution: the handler already wrote the response and the
		// guard has cached it.
		return nil
	}
}
