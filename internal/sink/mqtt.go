package sink

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
)

// MQTT publishes telemetry to an MQTT broker. Messages produced while
// the broker is unreachable are held in a bounded ring and replayed on
// reconnect, oldest dropped first.
type MQTT struct {
	client paho.Client
	logger *zap.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewMQTT connects to the given broker. bufferSize bounds the number of
// messages held across disconnects.
func NewMQTT(broker, clientID string, bufferSize int, logger *zap.Logger) (*MQTT, error) {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	m := &MQTT{
		logger: logger,
		buf:    newRingBuffer(bufferSize),
	}

	will, err := FormatSystemEvent(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(m.onConnectionLost)

	m.client = paho.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return m, nil
}

// Publish sends a telemetry packet to the broker.
func (m *MQTT) Publish(p packet.Packet) error {
	payload, err := packet.Format(p)
	if err != nil {
		return fmt.Errorf("format packet: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return m.send(TopicPackets, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the broker.
func (m *MQTT) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemEvent(event)
	if err != nil {
		return fmt.Errorf("format system event: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should ensure delivery
	return m.send(TopicSystem, 1, event.Retained, payload)
}

func (m *MQTT) send(topic string, qos byte, retained bool, payload []byte) error {
	if !m.client.IsConnected() {
		m.bufferMsg(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

func (m *MQTT) bufferMsg(msg bufferedMsg) {
	m.mu.Lock()
	dropped := m.buf.push(msg)
	buffered := m.buf.len()
	m.mu.Unlock()

	if dropped {
		m.logger.Warn("offline buffer full, dropped oldest message",
			zap.Int("buffered", buffered))
		return
	}
	m.logger.Debug("broker unreachable, buffered message",
		zap.Int("buffered", buffered))
}

// onConnect replays messages buffered while disconnected.
func (m *MQTT) onConnect(client paho.Client) {
	m.mu.Lock()
	msgs := m.buf.drainAll()
	m.mu.Unlock()

	if len(msgs) == 0 {
		m.logger.Info("broker connected")
		return
	}

	m.logger.Info("broker connected, replaying buffered messages",
		zap.Int("count", len(msgs)))
	for i, msg := range msgs {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			m.requeue(msgs[i:])
			m.logger.Warn("replay stalled, requeued remainder",
				zap.Int("remaining", len(msgs)-i))
			return
		}
	}
}

func (m *MQTT) requeue(msgs []bufferedMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.buf.push(msg)
	}
}

func (m *MQTT) onConnectionLost(_ paho.Client, err error) {
	m.logger.Warn("broker connection lost", zap.Error(err))
}

// IsConnected implements ConnectionStatus.
func (m *MQTT) IsConnected() bool {
	return m.client.IsConnected()
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.mu.Lock()
	pending := m.buf.len()
	m.mu.Unlock()
	if pending > 0 {
		m.logger.Warn("discarding undelivered messages", zap.Int("count", pending))
	}

	m.client.Disconnect(1000) // 1 second timeout
	return nil
}
