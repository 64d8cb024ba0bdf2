package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/easy-qr-codes/internal/qrcode"
)

// Existence-checked writes. HSET/HINCRBY alone would recreate a missing hash.
var (
	setFieldsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)
	incrementUsageScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
return redis.call('HINCRBY', KEYS[1], 'usage_count', 1)
`)
)

// RedisStore is a Redis implementation of qrcode.Repository.
// Each record is a hash; ids come from INCR on seqKey and a sorted set scored by id
// keeps creation order.
type RedisStore struct {
	client   *redis.Client
	prefix   string // "qrcode:" + id -> record hash
	seqKey   string
	indexKey string
	now      func() time.Time
}

// NewRedisStore creates a new Redis-backed record store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   "qrcode:",
		seqKey:   "qrcode_seq",
		indexKey: "qrcodes_by_created",
		now:      time.Now,
	}
}

func (r *RedisStore) Create(ctx context.Context, targetURL string) (qrcode.ID, error) {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return 0, err
	}

	seq, err := r.client.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return 0, storageErr("allocate id", err)
	}

	id := qrcode.ID(seq)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key(id), map[string]interface{}{
			"id":          id.String(),
			"qr_code_url": "",
			"target_url":  target,
			"usage_count": 0,
			"status":      string(qrcode.StatusPending),
			"created_at":  r.now().UnixNano(),
		})
		pipe.ZAdd(ctx, r.indexKey, redis.Z{Score: float64(seq), Member: id.String()})

		return nil
	})
	if err != nil {
		return 0, storageErr("insert qr code", err)
	}

	return id, nil
}

func (r *RedisStore) Get(ctx context.Context, id qrcode.ID) (*qrcode.Record, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, storageErr("get qr code", err)
	}

	if len(fields) == 0 {
		return nil, notFound(id)
	}

	return parseRecord(fields)
}

func (r *RedisStore) List(ctx context.Context) ([]*qrcode.Record, error) {
	members, err := r.client.ZRevRange(ctx, r.indexKey, 0, -1).Result()
	if err != nil {
		return nil, storageErr("list qr codes", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))

	for i, member := range members {
		cmds[i] = pipe.HGetAll(ctx, r.prefix+member)
	}

	if _, err = pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, storageErr("list qr codes", err)
	}

	records := make([]*qrcode.Record, 0, len(cmds))

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}

		record, err := parseRecord(fields)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (r *RedisStore) SetImageReference(ctx context.Context, id qrcode.ID, reference string) error {
	return r.setFields(ctx, "set image reference", id,
		"qr_code_url", reference,
		"status", string(qrcode.StatusRendered),
	)
}

func (r *RedisStore) SetTargetURL(ctx context.Context, id qrcode.ID, targetURL string) error {
	target, err := qrcode.ValidateTargetURL(targetURL)
	if err != nil {
		return err
	}

	return r.setFields(ctx, "set target url", id, "target_url", target)
}

func (r *RedisStore) IncrementUsage(ctx context.Context, id qrcode.ID) (uint64, error) {
	count, err := incrementUsageScript.Run(ctx, r.client, []string{r.key(id)}).Int64()
	if err != nil {
		return 0, storageErr("increment usage", err)
	}

	if count < 0 {
		return 0, notFound(id)
	}

	return uint64(count), nil
}

func (r *RedisStore) setFields(ctx context.Context, op string, id qrcode.ID, pairs ...interface{}) error {
	updated, err := setFieldsScript.Run(ctx, r.client, []string{r.key(id)}, pairs...).Int64()
	if err != nil {
		return storageErr(op, err)
	}

	if updated == 0 {
		return notFound(id)
	}

	return nil
}

func (r *RedisStore) key(id qrcode.ID) string {
	return r.prefix + id.String()
}

func parseRecord(fields map[string]string) (*qrcode.Record, error) {
	id, err := qrcode.ParseID(fields["id"])
	if err != nil {
		return nil, storageErr("decode qr code", err)
	}

	count, err := strconv.ParseUint(fields["usage_count"], 10, 64)
	if err != nil {
		return nil, storageErr("decode usage count", err)
	}

	var createdAt time.Time

	if nanos, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		createdAt = time.Unix(0, nanos)
	}

	return &qrcode.Record{
		ID:             id,
		ImageReference: fields["qr_code_url"],
		TargetURL:      fields["target_url"],
		UsageCount:     count,
		Status:         qrcode.Status(fields["status"]),
		CreatedAt:      createdAt,
	}, nil
}

// Shutdown is a no-op; the client is closed by its owner.
func (r *RedisStore) Shutdown() error {
	return nil
}

var _ qrcode.Repository = (*RedisStore)(nil)
