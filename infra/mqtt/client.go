// Package mqtt exposes the simulation over MQTT: a periodic fleet-state
// broadcast, an arrival event stream and a command channel for hall calls
// and cab selections. It only consumes the dispatcher's command surface
// and snapshots; it never touches queue or timer internals.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/liftsim/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client and
// the topics used by the transport.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`

	StateTopic   string `json:"state_topic"`
	ArrivalTopic string `json:"arrival_topic"`
	CallTopic    string `json:"call_topic"`
	SelectTopic  string `json:"select_topic"`
	// BroadcastMS is the fleet-state publish period in milliseconds.
	BroadcastMS int `json:"broadcast_ms"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults for topics and cadence.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "liftsim"
	}
	if c.StateTopic == "" {
		c.StateTopic = "lift/fleet/state"
	}
	if c.ArrivalTopic == "" {
		c.ArrivalTopic = "lift/events/arrival"
	}
	if c.CallTopic == "" {
		c.CallTopic = "lift/call"
	}
	if c.SelectTopic == "" {
		c.SelectTopic = "lift/select"
	}
	if c.BroadcastMS == 0 {
		c.BroadcastMS = 1000
	}
}

// BroadcastPeriod returns the state publish cadence as a duration.
func (c Config) BroadcastPeriod() time.Duration {
	return time.Duration(c.BroadcastMS) * time.Millisecond
}

// pahoClient is the slice of the Paho API the transport uses, narrowed so
// tests can substitute a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoClient wraps an Eclipse Paho connection.
type PahoClient struct {
	cli    pahoClient
	qos    map[string]byte
	logger logger.Logger
}

// NewPahoClient connects to the MQTT broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoClient{cli: c, qos: cfg.QoS, logger: log}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) topicQoS(name string) byte {
	if q, ok := p.qos[name]; ok {
		return q
	}
	return 0
}

// Publish sends payload on topic using the configured QoS for name.
func (p *PahoClient) Publish(name, topic string, payload []byte) error {
	token := p.cli.Publish(topic, p.topicQoS(name), false, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers a handler on topic using the configured QoS for
// name.
func (p *PahoClient) Subscribe(name, topic string, handler paho.MessageHandler) error {
	token := p.cli.Subscribe(topic, p.topicQoS(name), handler)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (p *PahoClient) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
