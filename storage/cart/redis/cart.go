package rediscart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elimuhub/elimu/core/shop"
)

// cartRepository keeps each buyer's cart as a JSON blob under a TTL'd key,
// for deployments where the API runs more than one replica. The TTL bounds
// the session: an untouched cart expires on its own.
type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ shop.CartRepository = (*cartRepository)(nil)

func NewCartRepository(client *redis.Client, ttl time.Duration) shop.CartRepository {
	return &cartRepository{client: client, ttl: ttl}
}

// NewClient connects to redis at `url` and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func (repo *cartRepository) key(buyerID string) string {
	return "cart:buyer:" + buyerID
}

func (repo *cartRepository) load(ctx context.Context, buyerID string) ([]shop.CartLine, error) {
	data, err := repo.client.Get(ctx, repo.key(buyerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []shop.CartLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (repo *cartRepository) save(ctx context.Context, buyerID string, lines []shop.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return repo.client.Set(ctx, repo.key(buyerID), data, repo.ttl).Err()
}

func (repo *cartRepository) GetLines(ctx context.Context, buyerID string) ([]shop.CartLine, error) {
	return repo.load(ctx, buyerID)
}

func (repo *cartRepository) AppendLine(ctx context.Context, line shop.CartLine) error {
	lines, err := repo.load(ctx, line.BuyerID)
	if err != nil {
		return err
	}
	for _, existing := range lines {
		if existing.Key() == line.Key() {
			return nil
		}
	}
	return repo.save(ctx, line.BuyerID, append(lines, line))
}

func (repo *cartRepository) RemoveLine(ctx context.Context, buyerID string, key shop.LineKey) error {
	lines, err := repo.load(ctx, buyerID)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if line.Key() == key {
			return repo.save(ctx, buyerID, append(lines[:i:i], lines[i+1:]...))
		}
	}
	return shop.ErrLineNotFound
}

func (repo *cartRepository) ReplaceLines(ctx context.Context, buyerID string, lines []shop.CartLine) error {
	return repo.save(ctx, buyerID, lines)
}

func (repo *cartRepository) Clear(ctx context.Context, buyerID string) error {
	return repo.client.Del(ctx, repo.key(buyerID)).Err()
}
