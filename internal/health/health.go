// Package health runs dependency checks for the health endpoint.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	DefaultTimeout = 5 * time.Second
)

type Check func(ctx context.Context) error

type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusOK
}

type Checker struct {
	timeout time.Duration
	mu      sync.RWMutex
	checks  map[string]Check
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{timeout: timeout, checks: make(map[string]Check)}
}

func (c *Checker) Add(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check concurrently, each bounded by the timeout.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{Status: StatusOK}
	if len(checks) == 0 {
		return report
	}
	report.Checks = make(map[string]string, len(checks))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			result := StatusOK
			if err := check(ctx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = result
			if result != StatusOK {
				report.Status = StatusDegraded
			}
		}()
	}
	wg.Wait()

	return report
}

func DatabaseCheck(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database handle: %v", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %v", err)
		}
		return nil
	}
}

func RedisCheck(client *redis.Client) Check {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %v", err)
		}
		return nil
	}
}
