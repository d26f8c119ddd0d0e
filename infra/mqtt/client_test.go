package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/liftsim/infra/logger"
)

type mockToken struct{}

func (t *mockToken) Wait() bool                       { return true }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *mockToken) Error() error                     { return nil }
func (t *mockToken) Done() <-chan struct{}            { return make(chan struct{}) }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	Disconnected bool
	pubs         []published
	subs         map[string]paho.MessageHandler
}

func (m *mockClient) IsConnected() bool       { return true }
func (m *mockClient) Connect() paho.Token     { return &mockToken{} }
func (m *mockClient) Disconnect(quiesce uint) { m.Disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.pubs = append(m.pubs, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &mockToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	if m.subs == nil {
		m.subs = map[string]paho.MessageHandler{}
	}
	m.subs[topic] = callback
	return &mockToken{}
}

func TestPublish_UsesConfiguredQoS(t *testing.T) {
	mc := &mockClient{}
	client := &PahoClient{cli: mc, qos: map[string]byte{"state": 1}, logger: logger.NopLogger{}}
	if err := client.Publish("state", "lift/fleet/state", []byte("{}")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := client.Publish("arrival", "lift/events/arrival", []byte("{}")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.pubs) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(mc.pubs))
	}
	if mc.pubs[0].qos != 1 {
		t.Errorf("state qos = %d, want 1", mc.pubs[0].qos)
	}
	if mc.pubs[1].qos != 0 {
		t.Errorf("arrival qos = %d, want default 0", mc.pubs[1].qos)
	}
}

func TestClose_DisconnectsClient(t *testing.T) {
	mc := &mockClient{}
	client := &PahoClient{cli: mc, logger: logger.NopLogger{}}
	client.Close()
	if !mc.Disconnected {
		t.Errorf("expected Disconnect() to be called")
	}
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.StateTopic != "lift/fleet/state" || cfg.CallTopic != "lift/call" {
		t.Errorf("unexpected topic defaults: %+v", cfg)
	}
	if cfg.BroadcastPeriod() != time.Second {
		t.Errorf("broadcast period = %v, want 1s", cfg.BroadcastPeriod())
	}
}
