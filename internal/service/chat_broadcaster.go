package service

import (
	"context"
	"encoding/json"
	"fmt"

	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// chatBufferSize bounds how far a slow stream reader may lag before the
// relay blocks on it.
const chatBufferSize = 32

// ChatBroadcaster relays messages to everyone listening on a subscription's
// room. Delivery is best effort: at most once, unordered, not persisted.
type ChatBroadcaster interface {
	Publish(ctx context.Context, message *entity.Message) error
	// Subscribe returns a channel that is closed once ctx is done.
	Subscribe(ctx context.Context, subscriptionID uuid.UUID) (<-chan entity.Message, error)
}

type redisChatBroadcaster struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewRedisChatBroadcaster(redisClient *redis.Client, log *logrus.Logger) ChatBroadcaster {
	return &redisChatBroadcaster{
		redisClient: redisClient,
		log:         log,
	}
}

// ChatChannel names the pub/sub room of a subscription.
func ChatChannel(subscriptionID uuid.UUID) string {
	return fmt.Sprintf("chat:subscription:%s", subscriptionID.String())
}

func (b *redisChatBroadcaster) Publish(ctx context.Context, message *entity.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return b.redisClient.Publish(ctx, ChatChannel(message.SubscriptionID), payload).Err()
}

func (b *redisChatBroadcaster) Subscribe(ctx context.Context, subscriptionID uuid.UUID) (<-chan entity.Message, error) {
	pubsub := b.redisClient.Subscribe(ctx, ChatChannel(subscriptionID))

	// Wait for the subscription to be confirmed before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", ChatChannel(subscriptionID), err)
	}

	out := make(chan entity.Message, chatBufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()

		incoming := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-incoming:
				if !ok {
					return
				}
				var message entity.Message
				if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
					b.log.Warnf("Failed to decode chat payload on %s: %+v", msg.Channel, err)
					continue
				}
				select {
				case out <- message:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
