package idgen

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	healthIDPrefix = "PID"
	licensePrefix  = "IMC"
	maxAttempts    = 64
)

// ExistsFunc reports whether an identifier is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Allocator hands out human-presentable identifiers. Health IDs are
// checked against the store and retried until a free one is found, so
// an allocated ID is unique at creation time.
type Allocator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAllocator() *Allocator {
	return &Allocator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// HealthID allocates a fresh PID-#### identifier. It generates a
// candidate, verifies it against exists, and retries on collision.
func (a *Allocator) HealthID(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := fmt.Sprintf("%s-%04d", healthIDPrefix, a.intn(9000)+1000)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check health ID uniqueness: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts allocating a health ID", maxAttempts)
}

// LicenseNumber allocates a doctor license number. Licenses are issued
// externally in reality, so no uniqueness check is made here.
func (a *Allocator) LicenseNumber() string {
	return fmt.Sprintf("%s-%06d", licensePrefix, a.intn(1000000))
}

func (a *Allocator) intn(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rnd.Intn(n)
}
