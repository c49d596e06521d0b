// Package redis provides Redis-backed persistence. Records are JSON values
// under docket:<kind>:<id>; the audit trail is an append-only list per case.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/persistence"
)

const keyPrefix = "docket"

// Persistence implements persistence.Persistence on a Redis instance.
type Persistence struct {
	client *redis.Client
}

// NewPersistence connects to Redis using the URL form
// redis://[user:password@]host:port/db.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

// NewPersistenceWithClient wraps an existing client, used by tests.
func NewPersistenceWithClient(client *redis.Client) *Persistence {
	return &Persistence{client: client}
}

func (rp *Persistence) CaseRepository() persistence.CaseRepository {
	return &caseRepository{rp: rp}
}

func (rp *Persistence) TaskRepository() persistence.TaskRepository {
	return &taskRepository{rp: rp}
}

func (rp *Persistence) RuleRepository() persistence.RuleRepository {
	return &ruleRepository{rp: rp}
}

func (rp *Persistence) TemplateRepository() persistence.TemplateRepository {
	return &templateRepository{rp: rp}
}

func (rp *Persistence) AuditRepository() persistence.AuditRepository {
	return &auditRepository{rp: rp}
}

func (rp *Persistence) HealthCheck(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}

func key(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, id)
}

func (rp *Persistence) set(ctx context.Context, kind, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	return rp.client.Set(ctx, key(kind, id), data, 0).Err()
}

func (rp *Persistence) get(ctx context.Context, kind, id string, v any) (bool, error) {
	data, err := rp.client.Get(ctx, key(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return true, nil
}

func (rp *Persistence) del(ctx context.Context, kind, id string) error {
	return rp.client.Del(ctx, key(kind, id)).Err()
}

// scan walks every key of a kind. SCAN keeps listing incremental so large
// keyspaces do not block the server.
func (rp *Persistence) scan(ctx context.Context, kind string) ([]string, error) {
	pattern := key(kind, "*")
	prefixLen := len(key(kind, ""))

	ids := make([]string, 0)

	iter := rp.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[prefixLen:])
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s keys: %w", kind, err)
	}

	return ids, nil
}

type auditRepository struct {
	rp *Persistence
}

func (r *auditRepository) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	return r.rp.client.RPush(ctx, key("audit", record.CaseID), data).Err()
}

func (r *auditRepository) AuditTrail(ctx context.Context, caseID string) ([]*models.AuditRecord, error) {
	entries, err := r.rp.client.LRange(ctx, key("audit", caseID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail for case %s: %w", caseID, err)
	}

	trail := make([]*models.AuditRecord, 0, len(entries))

	for _, entry := range entries {
		var record models.AuditRecord

		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit record: %w", err)
		}

		trail = append(trail, &record)
	}

	return trail, nil
}
