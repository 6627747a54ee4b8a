package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeySuffix   = ":token"
	profileKeySuffix = ":user"
)

// RedisStore persists the token/profile pair under two keys (<prefix>:token
// and <prefix>:user) written inside one MULTI/EXEC transaction, for
// server-rendered front ends that share one session across replicas. The
// two-key transactional write keeps the pair atomic for readers using the
// bundled Load.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on client with the given key prefix. An empty
// prefix defaults to "sg".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) tokenKey() string   { return s.prefix + tokenKeySuffix }
func (s *RedisStore) profileKey() string { return s.prefix + profileKeySuffix }

// Save writes both keys in a single transaction, replacing any prior pair.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return errIncomplete(err)
	}

	blob, err := encodeProfile(rec.User)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(), rec.Token, 0)
	pipe.Set(ctx, s.profileKey(), blob, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Load reads both keys with one MGET. A pair with either half missing, an
// undecodable profile, or an unknown role is cleared and treated as absent.
func (s *RedisStore) Load(ctx context.Context) (Record, bool, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(), s.profileKey()).Result()
	if err != nil {
		return Record{}, false, err
	}

	token, tokenOK := vals[0].(string)
	rawProfile, profileOK := vals[1].(string)
	if !tokenOK && !profileOK {
		return Record{}, false, nil
	}
	if !tokenOK || !profileOK {
		// Half a pair. Remove the orphan rather than hand it out.
		_ = s.Clear(ctx)
		return Record{}, false, errCorrupt(ErrIncompleteRecord)
	}

	profile, err := decodeProfile([]byte(rawProfile))
	if err != nil {
		_ = s.Clear(ctx)
		return Record{}, false, errCorrupt(err)
	}

	rec := Record{Token: token, User: profile}
	if err := rec.validate(); err != nil {
		_ = s.Clear(ctx)
		return Record{}, false, errCorrupt(err)
	}

	return rec, true, nil
}

// Clear deletes both keys in one DEL. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.tokenKey(), s.profileKey()).Err()
}
