package messaging

import (
	"github.com/sirupsen/logrus"

	"tinacopro/logging"
)

// FloorHandler is called for each decoded floor-station message.
type FloorHandler interface {
	HandleProductionEntry(env *Envelope, p ProductionEntry)
	HandleShipmentStatus(env *Envelope, p ShipmentStatus)
	HandleHousekeeping(env *Envelope, p Housekeeping)
}

// Subscriber is the part of Client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

// Consumer subscribes to the floor topic and routes messages to the handler.
type Consumer struct {
	client  Subscriber
	topic   string
	handler FloorHandler
	log     logrus.FieldLogger
}

func NewConsumer(client Subscriber, topic string, handler FloorHandler, logger logrus.FieldLogger) *Consumer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
		log:     logger.WithField("module", "consumer"),
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, c.HandleMessage)
}

// HandleMessage decodes one raw floor message and dispatches it by type.
// Undecodable and unknown messages are logged and dropped.
func (c *Consumer) HandleMessage(_ string, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		c.log.WithError(err).Warn("decode floor message")
		return
	}

	switch env.Type {
	case TypeProductionEntry:
		var p ProductionEntry
		if c.decode(env, &p) {
			c.handler.HandleProductionEntry(env, p)
		}
	case TypeShipmentStatus:
		var p ShipmentStatus
		if c.decode(env, &p) {
			c.handler.HandleShipmentStatus(env, p)
		}
	case TypeHousekeeping:
		var p Housekeeping
		if len(env.Payload) == 0 || c.decode(env, &p) {
			c.handler.HandleHousekeeping(env, p)
		}
	default:
		c.log.WithFields(logrus.Fields{"type": env.Type, "id": env.ID}).Warn("unhandled floor message type")
	}
}

func (c *Consumer) decode(env *Envelope, target any) bool {
	if err := env.DecodePayload(target); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"type": env.Type, "id": env.ID}).Warn("decode floor payload")
		return false
	}
	return true
}
