package inmemcart

import (
	"context"
	"sync"

	"github.com/elimuhub/elimu/core/shop"
)

// cartRepository is the default session-scoped cart store: a mutex-guarded
// map of buyer ID to lines in insertion order. Carts are never persisted
// beyond the process.
type cartRepository struct {
	mu    sync.RWMutex
	carts map[string][]shop.CartLine
}

var _ shop.CartRepository = (*cartRepository)(nil)

func NewCartRepository() shop.CartRepository {
	return &cartRepository{carts: make(map[string][]shop.CartLine)}
}

func (repo *cartRepository) GetLines(_ context.Context, buyerID string) ([]shop.CartLine, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	lines := make([]shop.CartLine, len(repo.carts[buyerID]))
	copy(lines, repo.carts[buyerID])
	return lines, nil
}

func (repo *cartRepository) AppendLine(_ context.Context, line shop.CartLine) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, existing := range repo.carts[line.BuyerID] {
		if existing.Key() == line.Key() {
			return nil
		}
	}
	repo.carts[line.BuyerID] = append(repo.carts[line.BuyerID], line)
	return nil
}

func (repo *cartRepository) RemoveLine(_ context.Context, buyerID string, key shop.LineKey) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	lines := repo.carts[buyerID]
	for i, line := range lines {
		if line.Key() == key {
			repo.carts[buyerID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return shop.ErrLineNotFound
}

func (repo *cartRepository) ReplaceLines(_ context.Context, buyerID string, lines []shop.CartLine) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	replacement := make([]shop.CartLine, len(lines))
	copy(replacement, lines)
	repo.carts[buyerID] = replacement
	return nil
}

func (repo *cartRepository) Clear(_ context.Context, buyerID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.carts, buyerID)
	return nil
}
