package testutil

import (
	"context"
	"sync"
	"time"

	"medical-messenger/internal/domain/entity"
	"medical-messenger/pkg/jwt"

	"github.com/google/uuid"
)

// TokenStore is an in-memory token allowlist. TTLs are ignored.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]bool)}
}

func tokenKey(tokenType jwt.TokenType, userID uuid.UUID, tokenID string) string {
	return string(tokenType) + ":" + userID.String() + ":" + tokenID
}

func (s *TokenStore) Allow(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey(tokenType, userID, tokenID)] = true
	return nil
}

func (s *TokenStore) IsAllowed(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[tokenKey(tokenType, userID, tokenID)], nil
}

func (s *TokenStore) Revoke(_ context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenKey(tokenType, userID, tokenID))
	return nil
}

// Len reports how many tokens are allowlisted.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// DirectoryCache is an in-memory statistics cache.
type DirectoryCache struct {
	mu    sync.Mutex
	stats *entity.DoctorStatistics
	Sets  int
	Err   error
}

func NewDirectoryCache() *DirectoryCache {
	return &DirectoryCache{}
}

func (c *DirectoryCache) GetStatistics(context.Context) (*entity.DoctorStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.stats == nil {
		return nil, nil
	}
	copied := *c.stats
	return &copied, nil
}

func (c *DirectoryCache) SetStatistics(_ context.Context, stats *entity.DoctorStatistics, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	copied := *stats
	c.stats = &copied
	c.Sets++
	return nil
}

// Broadcaster fans published messages out to in-process listeners.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[uuid.UUID][]chan entity.Message
	Published []entity.Message
	Err       error
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[uuid.UUID][]chan entity.Message)}
}

func (b *Broadcaster) Publish(_ context.Context, message *entity.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	b.Published = append(b.Published, *message)
	for _, ch := range b.listeners[message.SubscriptionID] {
		select {
		case ch <- *message:
		default:
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context, subscriptionID uuid.UUID) (<-chan entity.Message, error) {
	ch := make(chan entity.Message, 16)

	b.mu.Lock()
	b.listeners[subscriptionID] = append(b.listeners[subscriptionID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		listeners := b.listeners[subscriptionID]
		for i, l := range listeners {
			if l == ch {
				b.listeners[subscriptionID] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// Listeners reports how many streams are attached to a subscription's room.
func (b *Broadcaster) Listeners(subscriptionID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[subscriptionID])
}
