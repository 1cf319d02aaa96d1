package specstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
)

// ValkeyStore persists specifications as SET EX keys plus a sorted-set index
// scored by expiry, so List can skip entries Valkey already evicted.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "flowdash"
	}
	if ttl <= 0 {
		ttl = dashboard.PreviewTTL
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// Save implements dashboard.SpecStore.
func (s *ValkeyStore) Save(ctx context.Context, id string, spec dashboard.Specification) error {
	data, err := encodeSpec(spec)
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.ttl).UnixMilli()
	cmds := valkey.Commands{
		s.client.B().Set().Key(s.entryKey(id)).Value(string(data)).Ex(s.ttl).Build(),
		s.client.B().Zadd().Key(s.indexKey()).ScoreMember().ScoreMember(float64(expiresAt), id).Build(),
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Get implements dashboard.SpecStore.
func (s *ValkeyStore) Get(ctx context.Context, id string) (dashboard.Specification, bool, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return dashboard.Specification{}, false, nil
		}
		return dashboard.Specification{}, false, err
	}
	spec, err := decodeSpec([]byte(raw))
	if err != nil {
		return dashboard.Specification{}, false, err
	}
	return spec, true, nil
}

// Delete implements dashboard.SpecStore.
func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	cmds := valkey.Commands{
		s.client.B().Del().Key(s.entryKey(id)).Build(),
		s.client.B().Zrem().Key(s.indexKey()).Member(id).Build(),
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// List implements dashboard.SpecStore.
func (s *ValkeyStore) List(ctx context.Context) ([]dashboard.StoredSpec, error) {
	now := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.client.Do(ctx, s.client.B().Zremrangebyscore().Key(s.indexKey()).Min("-inf").Max(now).Build()).Error(); err != nil {
		return nil, err
	}
	ids, err := s.client.Do(ctx, s.client.B().Zrange().Key(s.indexKey()).Min("0").Max("-1").Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []dashboard.StoredSpec{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entryKey(id)
	}
	values, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, err
	}

	out := make([]dashboard.StoredSpec, 0, len(ids))
	for i, v := range values {
		raw, err := v.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return nil, err
		}
		spec, err := decodeSpec([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, dashboard.StoredSpec{ID: ids[i], Specification: spec})
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *ValkeyStore) entryKey(id string) string {
	return fmt.Sprintf("%s:spec:%s", s.prefix, id)
}

func (s *ValkeyStore) indexKey() string {
	return fmt.Sprintf("%s:specs", s.prefix)
}

var _ dashboard.SpecStore = (*ValkeyStore)(nil)
