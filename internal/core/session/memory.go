package session

import (
	"context"
	"sync"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

// MemoryPersister keeps the persisted identity in process memory. It backs
// tests and short-lived clients that do not need to survive a restart.
type MemoryPersister struct {
	mu       sync.Mutex
	identity *domain.Identity
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Save(_ context.Context, identity domain.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = &identity
	return nil
}

func (p *MemoryPersister) Load(_ context.Context) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity == nil {
		return nil, nil
	}
	identity := *p.identity
	return &identity, nil
}

func (p *MemoryPersister) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = nil
	return nil
}
