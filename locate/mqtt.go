package locate

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultObservationTopic is subscribed to when the config names no topic.
const DefaultObservationTopic = "ledlocate/robot/observations"

// CycleHandler is called after every observation message, with the cycle
// result or the decoding/estimation error. res is nil when the payload could
// not be decoded.
type CycleHandler func(res *Result, err error)

// MQTTClient manages the broker connection and the observation subscription
type MQTTClient struct {
	client      mqtt.Client
	topic       string
	estimator   *Estimator
	handler     CycleHandler
	isConnected bool
	mu          sync.RWMutex
}

// InitMQTT connects to the broker named by MQTT_BROKER (or config.MQTT.Broker)
// and feeds every observation message through estimator.
// If no broker is configured, MQTT is disabled and this returns nil
func InitMQTT(config *Config, estimator *Estimator, handler CycleHandler) (*MQTTClient, error) {
	if config == nil {
		config = &Config{}
	}
	broker := envOr("MQTT_BROKER", config.MQTT.Broker, "")
	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}
	if estimator == nil {
		return nil, fmt.Errorf("MQTT enabled but no estimator provided")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(envOr("MQTT_CLIENT_ID", config.MQTT.ClientID, "ledlocate"))

	if username := envOr("MQTT_USERNAME", config.MQTT.Username, ""); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(envOr("MQTT_PASSWORD", config.MQTT.Password, ""))
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// Cycles are serialized by the estimator; keep arrival order anyway.
	opts.SetOrderMatters(true)

	client := newMQTTClient(nil, config, estimator, handler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Println("MQTT reconnecting...")
	})
	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()
	return client, nil
}

// newMQTTClient wires an MQTTClient around an existing mqtt.Client. Tests
// pass a MockClient.
func newMQTTClient(client mqtt.Client, config *Config, estimator *Estimator, handler CycleHandler) *MQTTClient {
	topic := DefaultObservationTopic
	if config != nil && config.MQTT.ObservationTopic != "" {
		topic = config.MQTT.ObservationTopic
	}
	return &MQTTClient{
		client:    client,
		topic:     topic,
		estimator: estimator,
		handler:   handler,
	}
}

func envOr(key, configured, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if configured != "" {
		return configured
	}
	return fallback
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay = min(retryDelay*2, maxRetryDelay)
	}
}

// onConnect (re)subscribes to the observation topic
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)
	log.Printf("[MQTT] Subscribing to %s", c.topic)

	token := client.Subscribe(c.topic, 1, c.handleMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("[MQTT] Error subscribing to %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("[MQTT] Subscribed to %s", c.topic)
}

func (c *MQTTClient) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

// handleMessage decodes one observation cycle and runs it through the estimator
func (c *MQTTClient) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	log.Printf("[MQTT] Received observations (topic: %s, size: %d bytes)", msg.Topic(), len(payload))

	cycle, err := DecodeCycle(payload)
	if err != nil {
		log.Printf("[MQTT] Error decoding observations: %v", err)
		if c.handler != nil {
			c.handler(nil, err)
		}
		return
	}

	res, err := c.estimator.Estimate(*cycle)
	if c.handler != nil {
		c.handler(res, err)
	}
}

// DecodeCycle parses a JSON observation cycle
func DecodeCycle(payload []byte) (*Cycle, error) {
	var cycle Cycle
	if err := json.Unmarshal(payload, &cycle); err != nil {
		return nil, fmt.Errorf("decoding cycle: %w", err)
	}
	return &cycle, nil
}

// Topic returns the observation topic
func (c *MQTTClient) Topic() string {
	return c.topic
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("Disconnecting from MQTT broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}
