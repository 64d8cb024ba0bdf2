package health

import (
	"context"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewPostgresChecker checks the database through the pool.
func NewPostgresChecker(pool *pgxpool.Pool) Checker {
	return CheckerFunc(pool.Ping)
}

// NewDirChecker reports whether dir exists and is a directory, or can be created.
func NewDirChecker(dir string) Checker {
	return CheckerFunc(func(_ context.Context) error {
		return os.MkdirAll(dir, 0o755)
	})
}

// Handler handles health check operations.
type Handler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHandler creates a new health handler reporting every named dependency.
func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{checks: checks, timeout: 2 * time.Second}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status       string            `doc:"ok, or degraded when a dependency is unhealthy" json:"status"`
		Dependencies map[string]string `doc:"health per dependency"                           json:"dependencies"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Dependencies = make(map[string]string, len(h.checks))

	for name, checker := range h.checks {
		if err := checker.Ping(ctx); err != nil {
			resp.Body.Dependencies[name] = "unhealthy"
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Dependencies[name] = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
