package locate

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// PositionMessage is the retained payload of {prefix}/position
type PositionMessage struct {
	CycleID   string  `json:"cycleId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Retained  int     `json:"retained"`
	Timestamp int64   `json:"timestamp"`
}

// StatusMessage is the payload of {prefix}/status, sent after every cycle
type StatusMessage struct {
	CycleID    string `json:"cycleId"`
	State      State  `json:"state"`
	Candidates int    `json:"candidates"`
	Retained   int    `json:"retained"`
	PairsOK    int    `json:"pairsOk"`
	PairsTotal int    `json:"pairsTotal"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// Publisher publishes estimation results to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	last          *PositionMessage
	mu            sync.RWMutex
}

// NewPublisher creates a result publisher. The topic prefix comes from
// MQTT_PUBLISH_PREFIX, then prefix, then "ledlocate".
// If client is nil, publishing is disabled
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{
		client:        client,
		publishPrefix: envOr("MQTT_PUBLISH_PREFIX", prefix, "ledlocate"),
		qos:           0,
		retain:        true,
	}
}

// Prefix returns the topic prefix
func (p *Publisher) Prefix() string {
	return p.publishPrefix
}

// PublishResult publishes the cycle status and, when the cycle produced a
// position, the retained position message.
func (p *Publisher) PublishResult(res *Result) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	if err := p.publish("status", false, statusFor(res)); err != nil {
		log.Printf("Error publishing status for cycle %s: %v", res.CycleID, err)
		return err
	}
	if res.State != StateDone {
		return nil
	}

	pos := &PositionMessage{
		CycleID:   res.CycleID,
		X:         res.Position.X,
		Y:         res.Position.Y,
		Retained:  len(res.Retained),
		Timestamp: res.Timestamp.Unix(),
	}
	if err := p.publish("position", p.retain, pos); err != nil {
		log.Printf("Error publishing position for cycle %s: %v", res.CycleID, err)
		return err
	}

	p.mu.Lock()
	p.last = pos
	p.mu.Unlock()

	log.Printf("Published position (%.3f, %.3f) for cycle %s", pos.X, pos.Y, pos.CycleID)
	return nil
}

func (p *Publisher) publish(suffix string, retain bool, v interface{}) error {
	topic := fmt.Sprintf("%s/%s", p.publishPrefix, suffix)

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", suffix, err)
	}

	token := p.client.Publish(topic, p.qos, retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

func statusFor(res *Result) *StatusMessage {
	msg := &StatusMessage{
		CycleID:    res.CycleID,
		State:      res.State,
		Candidates: len(res.Candidates),
		Retained:   len(res.Retained),
		PairsTotal: len(res.Pairs),
		Error:      res.Error,
		Timestamp:  res.Timestamp.Unix(),
	}
	for _, pr := range res.Pairs {
		if pr.Err == nil {
			msg.PairsOK++
		}
	}
	return msg
}

// LastPosition returns the last published position
func (p *Publisher) LastPosition() (*PositionMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil, false
	}
	pos := *p.last
	return &pos, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether position messages are retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
