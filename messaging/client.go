package messaging

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"tinacopro/config"
	"tinacopro/logging"
)

type MessageHandler func(topic string, payload []byte)

// Client is the messaging client for either backend, Kafka or MQTT.
type Client struct {
	mu       sync.RWMutex
	cfg      *config.MessagingConfig
	kafka    *kafkaState
	mqttConn mqtt.Client
	handlers map[string]MessageHandler
	log      logrus.FieldLogger
}

type kafkaState struct {
	readers map[string]*kafka.Reader
	writer  *kafka.Writer
}

func NewClient(cfg *config.MessagingConfig, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		log:      logger.WithField("module", "messaging"),
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case "kafka":
		return c.connectKafka()
	case "mqtt":
		return c.connectMQTT()
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.cfg.Backend)
	}
}

func (c *Client) connectKafka() error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	// Verify at least one broker is reachable
	var conn *kafka.Conn
	var connErr error
	for _, broker := range c.cfg.Kafka.Brokers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		conn, connErr = kafka.DialContext(ctx, "tcp", broker)
		cancel()
		if connErr == nil {
			c.log.WithField("broker", broker).Info("kafka connected")
			break
		}
	}
	if connErr != nil {
		return fmt.Errorf("kafka connect: %w", connErr)
	}

	c.ensureTopics(conn, c.cfg.EventsTopic, c.cfg.FloorTopic)
	conn.Close()

	c.kafka = &kafkaState{
		readers: make(map[string]*kafka.Reader),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(c.cfg.Kafka.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
	return nil
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	c.log.WithField("broker", broker).Info("mqtt connected")
	return nil
}

// ensureTopics creates Kafka topics if they don't already exist. Errors are
// logged only; the broker may auto-create topics anyway.
func (c *Client) ensureTopics(conn *kafka.Conn, topics ...string) {
	if len(topics) == 0 {
		return
	}

	controller, err := conn.Controller()
	if err != nil {
		c.log.WithError(err).Warn("cannot find controller for topic creation")
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		c.log.WithError(err).Warn("cannot connect to controller")
		return
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, len(topics))
	for i, t := range topics {
		configs[i] = kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	if err := controllerConn.CreateTopics(configs...); err != nil {
		c.log.WithError(err).Warn("topic auto-create")
	} else {
		c.log.WithField("topics", topics).Info("ensured topics exist")
	}
}

func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.kafka != nil && c.kafka.writer != nil:
		return c.kafka.writer.WriteMessages(context.Background(), kafka.Message{
			Topic: topic,
			Value: payload,
		})
	case c.mqttConn != nil:
		if !c.mqttConn.IsConnected() {
			return fmt.Errorf("mqtt not connected")
		}
		token := c.mqttConn.Publish(topic, 1, false, payload)
		token.Wait()
		return token.Error()
	default:
		return fmt.Errorf("messaging not connected")
	}
}

// PublishEnvelope encodes and publishes an envelope to the given topic.
func (c *Client) PublishEnvelope(topic string, env *Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.Publish(topic, data)
}

func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[topic] = handler

	switch {
	case c.kafka != nil:
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   topic,
			GroupID: c.cfg.Kafka.GroupID,
		})
		c.kafka.readers[topic] = reader
		go func() {
			for {
				msg, err := reader.ReadMessage(context.Background())
				if err != nil {
					c.log.WithError(err).WithField("topic", topic).Debug("kafka reader stopped")
					return
				}
				handler(msg.Topic, msg.Value)
			}
		}()
		return nil
	case c.mqttConn != nil:
		token := c.mqttConn.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Topic(), msg.Payload())
		})
		token.Wait()
		return token.Error()
	default:
		return fmt.Errorf("messaging not connected")
	}
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kafka != nil {
		return true
	}
	return c.mqttConn != nil && c.mqttConn.IsConnected()
}

// Reconfigure closes the existing connection and reconnects with new config.
// All previously registered subscriptions are restored.
func (c *Client) Reconfigure(cfg *config.MessagingConfig) error {
	c.Close()
	c.mu.Lock()
	c.cfg = cfg
	handlers := make(map[string]MessageHandler, len(c.handlers))
	for k, v := range c.handlers {
		handlers[k] = v
	}
	c.mu.Unlock()

	if err := c.Connect(); err != nil {
		return err
	}

	for topic, handler := range handlers {
		if err := c.Subscribe(topic, handler); err != nil {
			c.log.WithError(err).WithField("topic", topic).Warn("re-subscribe after reconfigure")
		}
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kafka != nil {
		for _, r := range c.kafka.readers {
			r.Close()
		}
		if c.kafka.writer != nil {
			c.kafka.writer.Close()
		}
		c.kafka = nil
	}
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
}
