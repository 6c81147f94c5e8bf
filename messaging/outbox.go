package messaging

import (
	"time"

	"github.com/sirupsen/logrus"

	"tinacopro/logging"
	"tinacopro/store"
)

// Publisher is the part of Client the drainer needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db       *store.DB
	client   Publisher
	interval time.Duration
	batch    int
	log      logrus.FieldLogger
	stopChan chan struct{}
}

func NewOutboxDrainer(db *store.DB, client Publisher, interval time.Duration, logger logrus.FieldLogger) *OutboxDrainer {
	if logger == nil {
		logger = logging.Discard()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxDrainer{
		db:       db,
		client:   client,
		interval: interval,
		batch:    50,
		log:      logger.WithField("module", "outbox"),
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case d.stopChan <- struct{}{}:
	default:
	}
}

func (d *OutboxDrainer) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Drain()
		}
	}
}

// Drain publishes one batch of pending messages in id order and returns how
// many were sent. A failed publish bumps the retry count and leaves the
// message pending.
func (d *OutboxDrainer) Drain() int {
	msgs, err := d.db.ListPendingOutbox(d.batch)
	if err != nil {
		logging.LogError(d.log, "outbox", "Drain", "list pending", nil, err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.client.Publish(msg.Topic, msg.Payload); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{"topic": msg.Topic, "id": msg.ID, "retries": msg.Retries + 1}).Warn("outbox publish failed")
			d.db.IncrementOutboxRetries(msg.ID)
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			logging.LogError(d.log, "outbox", "Drain", "ack", msg.ID, err)
			continue
		}
		sent++
	}
	return sent
}
