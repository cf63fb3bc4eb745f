// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package mqtt

import (
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"plc-edge/internal/api"
	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
)

// Client publishes bridge state to MQTT and answers read-only queries on the
// command topic. It never writes coils or registers; control traffic stays
// on the Modbus surface.
type Client struct {
	cfg      *config.MQTTConfig
	api      *api.Handler
	bridge   *bridge.Bridge
	logger   *slog.Logger
	client   mqtt.Client
	stopChan chan struct{}
}

// NewClient creates a new MQTT client. Defaults land on a private copy so
// the loaded configuration stays untouched.
func NewClient(cfg *config.MQTTConfig, b *bridge.Bridge, handler *api.Handler, logger *slog.Logger) *Client {
	own := *cfg
	if own.TopicPrefix == "" {
		own.TopicPrefix = "plc-edge"
	}
	if own.ClientID == "" {
		own.ClientID = "plc-edge"
	}

	return &Client{
		cfg:      &own,
		api:      handler,
		bridge:   b,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start connects to the broker and subscribes to the command topic.
func (c *Client) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.Broker)
	opts.SetClientID(c.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}

	go c.forwardEvents()

	c.logger.Info("MQTT client started", "broker", c.cfg.Broker, "prefix", c.cfg.TopicPrefix)
	return nil
}

// Stop disconnects from broker
func (c *Client) Stop() {
	close(c.stopChan)
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(1000)
	}
	c.logger.Info("MQTT client stopped")
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("MQTT connected")

	cmdTopic := c.cfg.TopicPrefix + "/cmd"
	client.Subscribe(cmdTopic, 1, c.handleCommand)
	c.logger.Debug("MQTT subscribed", "topic", cmdTopic)

	c.publishStatus()
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Warn("MQTT connection lost", "error", err)
}

// handleCommand answers read-only queries (status, state, bindings, scenes).
func (c *Client) handleCommand(client mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("MQTT command received", "topic", msg.Topic(), "payload", string(msg.Payload()))

	resp := c.api.HandleJSON(msg.Payload())
	client.Publish(c.cfg.TopicPrefix+"/response", 0, false, resp)
}

// forwardEvents forwards bridge state changes to MQTT
func (c *Client) forwardEvents() {
	updates := c.bridge.Subscribe()
	defer c.bridge.Unsubscribe(updates)

	for {
		select {
		case data, ok := <-updates:
			if !ok {
				return
			}
			c.publishEvent(data)
		case <-c.stopChan:
			return
		}
	}
}

// publishEvent publishes a state change event (data is pre-marshaled JSON)
func (c *Client) publishEvent(data []byte) {
	if c.client == nil || !c.client.IsConnected() {
		return
	}
	c.client.Publish(c.cfg.TopicPrefix+"/event", 0, false, data)
}

// publishStatus publishes current status, retained.
func (c *Client) publishStatus() {
	if c.client == nil || !c.client.IsConnected() {
		return
	}

	resp := c.api.Handle(&api.Request{Cmd: "status"})
	data, _ := json.Marshal(resp)
	c.client.Publish(c.cfg.TopicPrefix+"/status", 0, true, data)
}
