package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Client hands out one writer per topic.
type Client struct {
	Brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewClient parses a comma separated broker list. An empty list yields a
// disabled client.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers, writers: map[string]*kafka.Writer{}}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) writer(topic string) *kafka.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	c.writers[topic] = w
	return w
}

// PublishJSON marshals payload and writes it keyed by key.
func (c *Client) PublishJSON(ctx context.Context, topic, key string, payload any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.writer(topic).WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

// Close flushes and closes every writer.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for topic, w := range c.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.writers, topic)
	}
	return errors.Join(errs...)
}
