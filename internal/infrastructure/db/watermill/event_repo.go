package watermilldb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

type eventRepository struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	subscribers    map[string][]subscriber // topic -> subscribers
	listeners      map[string]context.CancelFunc
	subscriberLock *sync.Mutex
}

func NewWatermillEventRepository(
	publisher message.Publisher, sub message.Subscriber,
) domain.EventRepository {
	return &eventRepository{
		publisher:      publisher,
		subscriber:     sub,
		subscribers:    make(map[string][]subscriber),
		listeners:      make(map[string]context.CancelFunc),
		subscriberLock: &sync.Mutex{},
	}
}

// NewInMemoryEventRepository fans events out through an in-process go channel pub/sub.
func NewInMemoryEventRepository() domain.EventRepository {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, newLogrusAdapter())
	return NewWatermillEventRepository(pubsub, pubsub)
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if len(topics) == 0 {
		for topic, cancel := range e.listeners {
			cancel()
			delete(e.listeners, topic)
		}
		e.subscribers = make(map[string][]subscriber)
		return
	}

	for _, topic := range topics {
		if cancel, ok := e.listeners[topic]; ok {
			cancel()
			delete(e.listeners, topic)
		}
		delete(e.subscribers, topic)
	}
}

func (e *eventRepository) Close() {
	e.ClearRegisteredHandlers()

	//nolint:errcheck
	e.publisher.Close()
	if closer, ok := e.subscriber.(interface{ Close() error }); ok &&
		any(e.subscriber) != any(e.publisher) {
		//nolint:errcheck
		closer.Close()
	}
}

func (e *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	e.subscriberLock.Lock()
	defer e.subscriberLock.Unlock()

	if _, ok := e.subscribers[topic]; !ok {
		e.subscribers[topic] = make([]subscriber, 0)
	}

	e.subscribers[topic] = append(e.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})

	if _, ok := e.listeners[topic]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := e.subscriber.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		log.WithError(err).Errorf("failed to subscribe to topic %s", topic)
		return
	}
	e.listeners[topic] = cancel

	go e.listen(topic, messages)
}

func (e *eventRepository) Save(ctx context.Context, topic string, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	return e.publisher.Publish(topic, toWatermillMessages(events)...)
}

func (e *eventRepository) listen(topic string, messages <-chan *message.Message) {
	for msg := range messages {
		event, err := deserializeEvent(msg.Payload)
		msg.Ack()
		if err != nil {
			log.WithError(err).Warnf("failed to deserialize event: %s", string(msg.Payload))
			continue
		}
		e.dispatch(topic, []domain.Event{event})
	}
}

// dispatch runs the handlers in order so that they observe events in the order
// they were committed.
func (e *eventRepository) dispatch(topic string, events []domain.Event) {
	e.subscriberLock.Lock()
	subscribers := make([]subscriber, len(e.subscribers[topic]))
	copy(subscribers, e.subscribers[topic])
	e.subscriberLock.Unlock()

	for _, subscriber := range subscribers {
		subscriber.handler(events)
	}
}

func toWatermillMessages(events []domain.Event) []*message.Message {
	watermillMessages := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			log.WithError(err).Warnf("failed to serialize event %s", event.GetType())
			continue
		}

		msg := message.NewMessage(uuid.New().String(), payload)
		msg.Metadata.Set("type", string(event.GetType()))
		watermillMessages = append(watermillMessages, msg)
	}

	return watermillMessages
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var eventType struct {
		Type domain.EventType
	}

	if err := json.Unmarshal(buf, &eventType); err != nil {
		return nil, err
	}

	switch eventType.Type {
	case domain.EventTypeAssetRegistered:
		return decode[domain.AssetRegistered](buf)
	case domain.EventTypeOwnershipVerificationUpdated:
		return decode[domain.OwnershipVerificationUpdated](buf)
	case domain.EventTypeAssetSold:
		return decode[domain.AssetSold](buf)
	case domain.EventTypeAuctionListed:
		return decode[domain.AuctionListed](buf)
	case domain.EventTypeBidPlaced:
		return decode[domain.BidPlaced](buf)
	case domain.EventTypeAuctionEndedWinner:
		return decode[domain.AuctionEndedWinner](buf)
	case domain.EventTypeAuctionEndedNoSale:
		return decode[domain.AuctionEndedNoSale](buf)
	case domain.EventTypeAuctionSettled:
		return decode[domain.AuctionSettled](buf)
	case domain.EventTypeCrossChainBalanceAttested:
		return decode[domain.CrossChainBalanceAttested](buf)
	}

	return nil, fmt.Errorf("unknown event type %s", eventType.Type)
}

func decode[T domain.Event](buf []byte) (domain.Event, error) {
	var event T
	if err := json.Unmarshal(buf, &event); err != nil {
		return nil, err
	}
	return event, nil
}
