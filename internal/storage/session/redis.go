package session

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// DefaultRedisKey is the hash holding the session when no key is configured.
const DefaultRedisKey = "storefront:session"

var _ auth.Store = (*Redis)(nil)

// Redis stores the session as a hash, so several processes on different hosts
// can share one sign-in. When the token carries an expiry the key expires
// with it.
type Redis struct {
	client redis.Cmdable
	key    string
	now    func() time.Time
}

// NewRedis returns a Redis store using key (DefaultRedisKey when empty).
func NewRedis(client redis.Cmdable, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key, now: time.Now}
}

func (r *Redis) Get(ctx context.Context) (auth.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "redis hgetall session")
	}
	if len(fields) == 0 {
		return auth.Session{}, nil
	}

	s := auth.Session{
		Token:  fields[keyToken],
		UserID: fields[keyUserID],
	}
	if s.Token == "" {
		s.Token = fields[keyLegacyToken]
	}
	if v := fields[keySeller]; v != "" {
		s.Seller, err = strconv.ParseBool(v)
		if err != nil {
			return auth.Session{}, errors.Wrapf(err, "parse %s", keySeller)
		}
	}
	return s, nil
}

func (r *Redis) Set(ctx context.Context, s auth.Session) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key)
		p.HSet(ctx, r.key,
			keyToken, s.Token,
			keyUserID, s.UserID,
			keySeller, strconv.FormatBool(s.Seller),
		)
		if exp, ok := s.ExpiresAt(); ok && exp.After(r.now()) {
			p.ExpireAt(ctx, r.key, exp)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "redis set session")
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(err, "redis del session")
	}
	return nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
