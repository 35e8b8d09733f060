// Package events publishes recognition results to an MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"idcheck/faces"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

var NewClientFunc = mqtt.NewClient

// RecognitionEvent is the JSON payload published for every processed upload.
type RecognitionEvent struct {
	AttemptID     string              `json:"attempt_id"`
	Timestamp     int64               `json:"timestamp"`
	DetectedFaces int                 `json:"detected_faces"`
	Accepted      bool                `json:"accepted"`
	Labels        []string            `json:"recognized_ids"`
	Faces         []faces.MatchResult `json:"faces"`
}

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Publisher struct {
	topic  string
	client publishClient
	closer func()
}

type Options struct {
	Broker   string // host:port or a full URL such as tcp://broker:1883
	ClientID string
	Topic    string
	Username string
	Password string
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect creates the MQTT client and connects. Reconnects happen automatically afterwards.
func Connect(opts Options) (*Publisher, error) {
	url := brokerURL(opts.Broker)
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(url)
	clientOpts.SetClientID(opts.ClientID)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v. Attempting to reconnect...", err)
	})
	clientOpts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Infof("Successfully connected to MQTT broker: %s", url)
	})
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetMaxReconnectInterval(1 * time.Minute)
	clientOpts.SetConnectTimeout(10 * time.Second)

	client := NewClientFunc(clientOpts)
	log.Infof("Attempting to connect to MQTT broker: %s", url)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", url, token.Error())
	}
	return &Publisher{
		topic:  opts.Topic,
		client: client,
		closer: func() {
			client.Disconnect(250)
			log.Info("MQTT client disconnected.")
		},
	}, nil
}

// Publish sends event with QoS 1 and waits for the broker, or for ctx.
func (p *Publisher) Publish(ctx context.Context, event RecognitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return errors.Join(errors.New("MQTT publish not confirmed"), ctx.Err())
	}
}

func (p *Publisher) Topic() string {
	return p.topic
}

func (p *Publisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
