package mqtt

import (
	"errors"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultTopicPrefix = "campus/devices"
	publishTimeout     = 5 * time.Second
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type service struct {
	client            paho_mqtt.Client
	topicPrefix       string
	configuredDevices sync.Map
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client:      client,
		topicPrefix: defaultTopicPrefix,
	}
}

// NewClient builds a paho client for the broker at host.
func NewClient(host, username, password, clientID string) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(host).
		SetClientID(clientID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}

func (s *service) Disconnect() {
	s.client.Disconnect(250)
}
