package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"practiceops/pkg/domain"
)

// RedisWatermarks keeps rule state in Redis so multiple instances share one
// view of what each rule has consumed.
type RedisWatermarks struct {
	client *redis.Client
}

func NewRedisWatermarks(client *redis.Client) *RedisWatermarks {
	return &RedisWatermarks{client: client}
}

func watermarkRedisKey(staff domain.StaffID, rule string) string {
	return fmt.Sprintf("practiceops:watermark:%s:%s", rule, staff)
}

func (s *RedisWatermarks) Get(ctx context.Context, staff domain.StaffID, rule string) (Watermark, error) {
	raw, err := s.client.Get(ctx, watermarkRedisKey(staff, rule)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Watermark{}, nil
	}
	if err != nil {
		return Watermark{}, fmt.Errorf("get watermark: %w", err)
	}
	var w Watermark
	if err := json.Unmarshal(raw, &w); err != nil {
		return Watermark{}, fmt.Errorf("decode watermark: %w", err)
	}
	return w, nil
}

func (s *RedisWatermarks) Put(ctx context.Context, staff domain.StaffID, rule string, w Watermark) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode watermark: %w", err)
	}
	if err := s.client.Set(ctx, watermarkRedisKey(staff, rule), raw, 0).Err(); err != nil {
		return fmt.Errorf("put watermark: %w", err)
	}
	return nil
}
