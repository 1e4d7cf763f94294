// Package idempotency makes retried creation requests safe to replay. The
// guard runs a protected operation at most once per live client key and
// caches the first successful response for later replays.
package idempotency

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expense-tracker-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TTL is how long a completed record answers replays.
const TTL = 24 * time.Hour

// Client key rejections, raised before the protected operation ever runs.
var (
	ErrKeyMissing   = errors.New("idempotency key required")
	ErrKeyMalformed = errors.New("idempotency key must be a canonical UUID")
)

// StoreError wraps a record-store failure so callers can tell infrastructure
// faults apart from client input errors.
type StoreError struct {
	Op  string // "lookup" or "insert"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("idempotency store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Result is what the protected operation produced.
type Result struct {
	Status int
	Body   []byte
}

// Outcome is what the guard hands back: either the fresh result or a replay
// of the cached response.
type Outcome struct {
	Status   int
	Body     []byte
	Replayed bool
}

// Guard deduplicates creation requests against durable records keyed by a
// client-supplied UUID. It is payload-agnostic: a reused key replays the
// cached response even when the body changed. Storing a payload fingerprint
// on the record would be the place to turn that into a conflict.
type Guard struct {
	store Store
	now   func() time.Time
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store, now: time.Now}
}

// Do runs op at most once per live key.
//
// The sequence for one call is fixed: validate key, look up, run op, cache.
// A live record short-circuits with its cached body and status 200 before op
// runs. An op error propagates uncached, so the key stays retryable. Only a
// 2xx result is persisted; the insert happens after the response is already
// computed, so a duplicate-key loss against a concurrent request does not
// change what this caller gets back. Under that race both requests may have
// executed op; at most one record survives in the store.
func (g *Guard) Do(key string, op func() (Result, error)) (Outcome, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Outcome{}, ErrKeyMissing
	}
	// uuid.Parse also takes urn/braced/bare-hex forms; only the canonical
	// 36-char 8-4-4-4-12 form is accepted here.
	if len(key) != 36 {
		return Outcome{}, ErrKeyMalformed
	}
	if _, err := uuid.Parse(key); err != nil {
		return Outcome{}, ErrKeyMalformed
	}
	// Clone: the key may alias a server-owned request buffer that is reused
	// after the request, and it outlives the request as a store record key.
	key = strings.Clone(strings.ToLower(key))

	rec, err := g.store.FindByKey(key)
	if err != nil {
		return Outcome{}, &StoreError{Op: "lookup", Err: err}
	}
	if rec != nil {
		if !rec.Expired(g.now()) {
			return Outcome{
				Status:   http.StatusOK,
				Body:     rec.Response,
				Replayed: true,
			}, nil
		}
		// Dead record: purge best-effort and treat the key as unused.
		_ = g.store.Delete(key)
	}

	res, err := op()
	if err != nil {
		// Failed attempts are never cached; the key stays usable for a retry.
		return Outcome{}, err
	}

	if res.Status >= 200 && res.Status < 300 {
		body := make(datatypes.JSON, len(res.Body))
		copy(body, res.Body)
		now := g.now()
		insert := &models.IdempotencyRecord{
			Key:       key,
			Response:  body,
			CreatedAt: now,
			ExpiresAt: now.Add(TTL),
		}
		if err := g.store.InsertIfAbsent(insert); err != nil {
			if !errors.Is(err, ErrDuplicateKey) {
				return Outcome{}, &StoreError{Op: "insert", Err: err}
			}
			// A concurrent request won the insert race. Our response stands.
		}
	}

	return Outcome{Status: res.Status, Body: res.Body}, nil
}
