package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

const (
	ExchangeSendpool = "sendpool-events"

	RoutingKeyAccountEvent = "sendpool-account-event"

	DefaultPublishTimeout   = 5 * time.Second
	DefaultReconnectBackoff = time.Second
	DefaultMaxReconnectWait = 30 * time.Second

	publishBufferSize = 256
)

// RabbitMQPublisher ships scheduler events to the CRM's bus. Publishing is
// buffered and asynchronous so the scheduling path never waits on the broker;
// when the buffer fills, events are dropped with a warning rather than
// blocking a selection.
type RabbitMQPublisher struct {
	url    string
	log    logger.Logger
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	connMu sync.Mutex

	queue    chan dto.AccountEvent
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewRabbitMQPublisher(rabbitmqURL string, log logger.Logger) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{
		url:    rabbitmqURL,
		log:    log,
		queue:  make(chan dto.AccountEvent, publishBufferSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	if err := p.connect(); err != nil {
		return nil, errors.Wrap(err, "rabbitmq connect")
	}

	go p.publishLoop()

	return p, nil
}

var _ interfaces.EventsPublisher = (*RabbitMQPublisher)(nil)

func (p *RabbitMQPublisher) connect() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(ExchangeSendpool, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// PublishAccountEvent enqueues the event for async delivery.
func (p *RabbitMQPublisher) PublishAccountEvent(ctx context.Context, event dto.AccountEvent) {
	select {
	case p.queue <- event:
	default:
		p.log.Warnf("Event buffer full, dropping %s for account %s", event.Event, event.AccountID)
	}
}

func (p *RabbitMQPublisher) publishLoop() {
	defer tracing.RecoverAndLogToJaeger(p.log)
	defer close(p.done)

	for {
		select {
		case <-p.stopCh:
			// drain whatever is buffered before shutting down
			for {
				select {
				case event := <-p.queue:
					p.publishOne(event)
				default:
					return
				}
			}
		case event := <-p.queue:
			p.publishOne(event)
		}
	}
}

func (p *RabbitMQPublisher) publishOne(event dto.AccountEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Errorf("Failed to marshal event %s: %v", event.EventID, err)
		return
	}

	backoff := DefaultReconnectBackoff
	for {
		err = p.tryPublish(body)
		if err == nil {
			return
		}

		p.log.Warnf("Publish failed, reconnecting: %v", err)
		if reconnectErr := p.connect(); reconnectErr != nil {
			p.log.Warnf("Reconnect failed: %v", reconnectErr)
		}

		select {
		case <-p.stopCh:
			p.log.Errorf("Dropping event %s on shutdown: %v", event.EventID, err)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > DefaultMaxReconnectWait {
			backoff = DefaultMaxReconnectWait
		}
	}
}

func (p *RabbitMQPublisher) tryPublish(body []byte) error {
	p.connMu.Lock()
	ch := p.ch
	p.connMu.Unlock()

	if ch == nil {
		return errors.New("channel not open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPublishTimeout)
	defer cancel()

	return ch.PublishWithContext(ctx, ExchangeSendpool, RoutingKeyAccountEvent, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func (p *RabbitMQPublisher) Close() error {
	p.stopOnce.Do(func() { close(p.stopCh) })

	select {
	case <-p.done:
	case <-time.After(DefaultPublishTimeout):
	}

	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
