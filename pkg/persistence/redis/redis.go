// Package redis provides a Redis-backed workflow store. Each workflow is a
// JSON string; a sorted set scored by creation time indexes them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix  = "studioflow"
	connectTimeout = 5 * time.Second
)

type Persistence struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

type Option func(*Persistence)

// WithPrefix namespaces every key the store writes.
func WithPrefix(prefix string) Option {
	return func(p *Persistence) {
		p.prefix = prefix
	}
}

// NewPersistence connects to the Redis server at databaseURL
// (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, opts ...Option) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	p := NewWithClient(redis.NewClient(options), logger, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = p.client.Ping(pingCtx).Err()
	if err != nil {
		_ = p.client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	p.logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return p, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, logger *slog.Logger, opts ...Option) *Persistence {
	p := &Persistence{
		client: client,
		prefix: DefaultPrefix,
		logger: logger.With("module", "redis_persistence"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Persistence) workflowKey(id string) string {
	return p.prefix + ":workflow:" + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + ":workflows"
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.client.ZRange(ctx, p.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))
	if len(ids) == 0 {
		return workflows, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, p.workflowKey(id))
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			p.logger.WarnContext(ctx, "Indexed workflow is missing", "workflow_id", ids[i])

			continue
		}

		workflow, err := decode(ids[i], body)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	persistence.SortByCreation(workflows)

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if err := persistence.CheckWorkflow("SaveWorkflow", workflow); err != nil {
		return err
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.workflowKey(workflow.ID), data, 0)
		pipe.ZAdd(ctx, p.indexKey(), redis.Z{
			Score:  float64(workflow.CreatedAt.UnixNano()),
			Member: workflow.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	body, err := p.client.Get(ctx, p.workflowKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	return decode(id, body)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.workflowKey(id))
		pipe.ZRem(ctx, p.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func decode(id, body string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := json.Unmarshal([]byte(body), &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}
