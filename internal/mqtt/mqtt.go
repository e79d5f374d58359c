package mqtt

import (
	"fmt"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Mavwarf/teamsdesk/internal/config"
)

const timeout = 5 * time.Second

// Publish connects to the broker, publishes message to topic and
// disconnects. Each call uses a fresh connection.
func Publish(cfg config.MQTT, topic, message string, retain bool) error {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(timeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	defer client.Disconnect(250)

	pub := client.Publish(topic, 1, retain, message)
	if !pub.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}

// UnreadPublisher publishes the unread count as a retained message so
// home-automation dashboards pick up the latest value on subscribe.
type UnreadPublisher struct {
	cfg config.MQTT
}

func NewUnreadPublisher(cfg config.MQTT) *UnreadPublisher {
	return &UnreadPublisher{cfg: cfg}
}

func (p *UnreadPublisher) PublishUnread(count int) error {
	return Publish(p.cfg, p.cfg.Topic, strconv.Itoa(count), true)
}
