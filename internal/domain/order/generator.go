package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate pools for synthetic order payloads.
var (
	customerNames = []string{
		"Alice Morgan",
		"Bruno Costa",
		"Chen Wei",
		"Daria Nowak",
		"Elena Petrova",
		"Farid Haddad",
		"Grace Okafor",
		"Hiroshi Tanaka",
		"Ingrid Larsen",
		"Javier Ortiz",
	}
	priorities = []string{"Low", "Medium", "High", "Critical"}
	products   = []string{
		"Wireless Headphones",
		"Mechanical Keyboard",
		"Standing Desk",
		"Espresso Machine",
		"Trail Running Shoes",
		"Noise Meter",
		"Desk Lamp",
		"Laptop Stand",
		"Water Filter",
		"Board Game",
	}
)

// Bounds for the generated order value, in currency units.
const (
	minValue = 10.00
	maxValue = 2500.00
)

// Generator manufactures plausible synthetic orders and hands them to the
// registry. Identity comes from uuid, numbering from the registry's counter;
// the generator itself holds no mutable state beyond its randomness source.
// The streaming task and the dispatcher share one generator, and rand.Rand
// is not safe for concurrent use, so draws go through mu.
type Generator struct {
	registry *Registry

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator writing into registry. A nil rng falls
// back to a PCG source seeded from the global generator; tests pass a seeded
// source for reproducible payloads.
func NewGenerator(registry *Registry, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{registry: registry, rng: rng}
}

// GenerateOne builds one order with the given initial status, stores it in
// the registry (which assigns the order number) and returns a snapshot.
// The value is drawn from [minValue, maxValue) and rounded to 2 decimal
// places; clients render it as-is, so the rounding is part of the contract.
func (g *Generator) GenerateOne(status Status) Order {
	g.mu.Lock()
	value := decimal.NewFromFloat(minValue + g.rng.Float64()*(maxValue-minValue)).Round(2)
	customer := pick(g.rng, customerNames)
	priority := pick(g.rng, priorities)
	details := fmt.Sprintf("%dx %s", 1+g.rng.IntN(5), pick(g.rng, products))
	g.mu.Unlock()

	o := &Order{
		ID:           uuid.New().String(),
		CustomerName: customer,
		Priority:     priority,
		Details:      details,
		Value:        value,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	g.registry.Add(o)
	return *o
}

// Produce streams freshly generated Pending orders on the returned channel:
// one every frequency, up to maxCount (unbounded when maxCount <= 0).
// frequency <= 0 means no pause between elements, used for batch-style
// production. The channel closes on completion or when ctx is cancelled;
// cancellation during the wait emits nothing further.
func (g *Generator) Produce(ctx context.Context, frequency time.Duration, maxCount int) <-chan Order {
	out := make(chan Order)
	go func() {
		defer close(out)
		for n := 0; maxCount <= 0 || n < maxCount; n++ {
			if frequency > 0 {
				timer := time.NewTimer(frequency)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			} else if ctx.Err() != nil {
				return
			}

			o := g.GenerateOne(StatusPending)
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}
