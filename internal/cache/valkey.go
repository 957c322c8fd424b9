package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey is a Store backed by a Valkey (Redis-compatible) server, shared
// between API replicas.
type Valkey struct {
	client valkey.Client
	prefix string
}

// NewValkey connects to addr. Keys are namespaced under prefix.
func NewValkey(addr, prefix string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Valkey{client: client, prefix: prefix}, nil
}

func (v *Valkey) key(k string) string {
	if v.prefix == "" {
		return k
	}
	return v.prefix + ":" + k
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return v.client.Do(ctx, v.client.B().Set().Key(v.key(key)).Value(string(value)).Build()).Error()
	}
	return v.client.Do(ctx,
		v.client.B().Set().Key(v.key(key)).Value(string(value)).Ex(ttl).Build(),
	).Error()
}

func (v *Valkey) Delete(ctx context.Context, key string) error {
	return v.client.Do(ctx, v.client.B().Del().Key(v.key(key)).Build()).Error()
}

// Ping checks connectivity for readiness probes.
func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *Valkey) Close() {
	v.client.Close()
}
