package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Good-for-good/goodforgood-sub000/internal/config"
)

// Redis key layout:
//
//	gfg:session:<token>          hash {member_id, created_at, expires_at}, EXPIREAT expires_at
//	gfg:session:member:<member>  set of tokens, EXPIREAT latest expires_at
//	gfg:session:created          zset token -> created_at (unix ms)
const (
	sessionKeyPrefix = "gfg:session:"
	memberKeyPrefix  = "gfg:session:member:"
	createdIndexKey  = "gfg:session:created"
)

const (
	fieldMemberID  = "member_id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// NewRedisClient connects to the redis instance in cfg and pings it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps sessions in redis so several server instances can share
// them. Session hashes expire on their own; DeleteExpired only sweeps the
// creation index.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store over client. The client lifecycle is managed
// by the caller.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func sessionKey(token string) string   { return sessionKeyPrefix + token }
func memberKey(memberID string) string { return memberKeyPrefix + memberID }

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	key := sessionKey(s.Token)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldMemberID, s.MemberID,
			fieldCreatedAt, strconv.FormatInt(s.CreatedAt.UnixNano(), 10),
			fieldExpiresAt, strconv.FormatInt(s.ExpiresAt.UnixNano(), 10),
		)
		pipe.ExpireAt(ctx, key, s.ExpiresAt)
		pipe.SAdd(ctx, memberKey(s.MemberID), s.Token)
		pipe.ExpireAt(ctx, memberKey(s.MemberID), s.ExpiresAt)
		pipe.ZAdd(ctx, createdIndexKey, redis.Z{Score: float64(s.CreatedAt.UnixMilli()), Member: s.Token})
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	fields, err := r.client.HGetAll(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(fields) == 0) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(token, fields)
}

func decodeSession(token string, fields map[string]string) (*Session, error) {
	created, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: created_at: %w", token, err)
	}
	expires, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: expires_at: %w", token, err)
	}
	return &Session{
		Token:     token,
		MemberID:  fields[fieldMemberID],
		CreatedAt: time.Unix(0, created).UTC(),
		ExpiresAt: time.Unix(0, expires).UTC(),
	}, nil
}

// extendScript moves a live session's expiry in one step so a hash that
// expires mid-call is never recreated without its member id. The member's
// token set only ever has its expiry pushed later.
//
//	KEYS[1] session hash
//	ARGV[1] member key prefix, ARGV[2] expires_at (unix ns),
//	ARGV[3] expires_at (unix ms), ARGV[4] ms until expires_at
var extendScript = redis.NewScript(`
local member = redis.call('HGET', KEYS[1], 'member_id')
if not member then
	return 0
end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[2])
redis.call('PEXPIREAT', KEYS[1], ARGV[3])
local mkey = ARGV[1] .. member
local ttl = redis.call('PTTL', mkey)
if ttl >= 0 and ttl < tonumber(ARGV[4]) then
	redis.call('PEXPIREAT', mkey, ARGV[3])
end
return 1
`)

func (r *RedisStore) Extend(ctx context.Context, token string, expiresAt time.Time) error {
	n, err := extendScript.Run(ctx, r.client, []string{sessionKey(token)},
		memberKeyPrefix,
		strconv.FormatInt(expiresAt.UnixNano(), 10),
		expiresAt.UnixMilli(),
		time.Until(expiresAt).Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	memberID, err := r.client.HGet(ctx, sessionKey(token), fieldMemberID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(token))
		pipe.ZRem(ctx, createdIndexKey, token)
		if memberID != "" {
			pipe.SRem(ctx, memberKey(memberID), token)
		}
		return nil
	})
	return err
}

func (r *RedisStore) DeleteByMember(ctx context.Context, memberID string) (int64, error) {
	tokens, err := r.client.SMembers(ctx, memberKey(memberID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, sessionKeys(tokens)...)
		pipe.ZRem(ctx, createdIndexKey, toMembers(tokens)...)
		pipe.Del(ctx, memberKey(memberID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete member sessions: %w", err)
	}
	return deleted.Val(), nil
}

func (r *RedisStore) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	tokens, err := r.client.ZRangeByScore(ctx, createdIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	owners := make([]*redis.StringCmd, len(tokens))
	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, token := range tokens {
			owners[i] = pipe.HGet(ctx, sessionKey(token), fieldMemberID)
		}
		return nil
	}); err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, sessionKeys(tokens)...)
		pipe.ZRem(ctx, createdIndexKey, toMembers(tokens)...)
		for i, owner := range owners {
			if memberID := owner.Val(); memberID != "" {
				pipe.SRem(ctx, memberKey(memberID), tokens[i])
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return deleted.Val(), nil
}

// DeleteExpired drops index entries whose session hash redis already expired.
func (r *RedisStore) DeleteExpired(ctx context.Context, _ time.Time) (int64, error) {
	tokens, err := r.client.ZRange(ctx, createdIndexKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	exists := make([]*redis.IntCmd, len(tokens))
	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, token := range tokens {
			exists[i] = pipe.Exists(ctx, sessionKey(token))
		}
		return nil
	}); err != nil {
		return 0, err
	}

	var gone []any
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			gone = append(gone, tokens[i])
		}
	}
	if len(gone) == 0 {
		return 0, nil
	}
	return r.client.ZRem(ctx, createdIndexKey, gone...).Result()
}

func sessionKeys(tokens []string) []string {
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = sessionKey(t)
	}
	return keys
}

func toMembers(tokens []string) []any {
	out := make([]any, len(tokens))
	for i, t := range tokens {
		out[i] = t
	}
	return out
}
