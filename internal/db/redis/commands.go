package redis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/rueidis"

	"github.com/jobxpress/creditgate/internal/db"
)

// HSet writes hash fields in key order, so the command is deterministic.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return &db.Error{Op: db.OpHSet, Err: errors.New("no fields")}
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	cmd := s.b().Hset().Key(key).FieldValue()
	for _, k := range names {
		cmd = cmd.FieldValue(k, fields[k])
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// Get retrieves a value by key. A missing key yields db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. Sub-second TTLs use PX.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.b().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	switch {
	case ttl <= 0:
		cmd = set.Build()
	case ttl%time.Second != 0:
		cmd = set.PxMilliseconds(ttl.Milliseconds()).Build()
	default:
		cmd = set.ExSeconds(int64(ttl / time.Second)).Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
