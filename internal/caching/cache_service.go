package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"billease/internal/ledger"
	"billease/internal/logger"
	"billease/internal/models"
)

type CacheService interface {
	// Item caching
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	SetItem(ctx context.Context, item *models.Item, ttl time.Duration) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// Party caching
	GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error)
	SetParty(ctx context.Context, party *models.Party, ttl time.Duration) error
	DeleteParty(ctx context.Context, partyID uuid.UUID) error

	// Dashboard stats caching
	GetDashboardStats(ctx context.Context) (*ledger.DashboardStats, error)
	SetDashboardStats(ctx context.Context, stats *ledger.DashboardStats, ttl time.Duration) error
	DeleteDashboardStats(ctx context.Context) error

	// Generic string operations for refresh-token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	log := logger.WithComponent("cache")
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("Redis ping failed on initialization")
	}

	return &redisCacheService{client: client, log: log}
}

func (r *redisCacheService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	key := fmt.Sprintf("billease:item:%s", itemID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *redisCacheService) SetItem(ctx context.Context, item *models.Item, ttl time.Duration) error {
	key := fmt.Sprintf("billease:item:%s", item.ID.String())
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	key := fmt.Sprintf("billease:item:%s", itemID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetParty(ctx context.Context, partyID uuid.UUID) (*models.Party, error) {
	key := fmt.Sprintf("billease:party:%s", partyID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var party models.Party
	if err := json.Unmarshal(data, &party); err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *redisCacheService) SetParty(ctx context.Context, party *models.Party, ttl time.Duration) error {
	key := fmt.Sprintf("billease:party:%s", party.ID.String())
	data, err := json.Marshal(party)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteParty(ctx context.Context, partyID uuid.UUID) error {
	key := fmt.Sprintf("billease:party:%s", partyID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetDashboardStats(ctx context.Context) (*ledger.DashboardStats, error) {
	data, err := r.client.Get(ctx, "billease:dashboard:stats").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var stats ledger.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetDashboardStats(ctx context.Context, stats *ledger.DashboardStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "billease:dashboard:stats", data, ttl).Err()
}

func (r *redisCacheService) DeleteDashboardStats(ctx context.Context) error {
	return r.client.Del(ctx, "billease:dashboard:stats").Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, "billease:"+key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, "billease:"+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // not found
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, "billease:"+key).Err()
}
