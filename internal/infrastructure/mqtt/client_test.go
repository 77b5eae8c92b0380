package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/openlux/luxd/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "luxd-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// newDisconnectedClient builds a client that has never connected, for
// exercising validation paths without a broker.
func newDisconnectedClient() *Client {
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	return &Client{
		client:        pahomqtt.NewClient(opts),
		options:       opts,
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
	}
}

func TestBuildClientOptions(t *testing.T) {
	t.Run("plain broker URL", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		if len(opts.Servers) != 1 {
			t.Fatalf("Servers count = %d, want 1", len(opts.Servers))
		}
		if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
			t.Errorf("broker URL = %q, want %q", got, "tcp://127.0.0.1:1883")
		}
	})

	t.Run("tls broker URL", func(t *testing.T) {
		cfg := testConfig()
		cfg.Broker.TLS = true
		cfg.Broker.Port = 8883

		opts := buildClientOptions(cfg)
		if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
			t.Errorf("broker URL = %q, want %q", got, "ssl://127.0.0.1:8883")
		}
		if opts.TLSConfig == nil {
			t.Error("TLSConfig = nil, want configured")
		}
	})

	t.Run("configured client id", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		if opts.ClientID != "luxd-test" {
			t.Errorf("ClientID = %q, want %q", opts.ClientID, "luxd-test")
		}
	})

	t.Run("generated client id", func(t *testing.T) {
		cfg := testConfig()
		cfg.Broker.ClientID = ""

		first := buildClientOptions(cfg)
		second := buildClientOptions(cfg)
		if !strings.HasPrefix(first.ClientID, "luxd-") {
			t.Errorf("ClientID = %q, want luxd- prefix", first.ClientID)
		}
		if first.ClientID == second.ClientID {
			t.Error("generated client IDs are not unique")
		}
	})

	t.Run("credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.Username = "luxd"
		cfg.Auth.Password = "secret"

		opts := buildClientOptions(cfg)
		if opts.Username != "luxd" || opts.Password != "secret" {
			t.Errorf("credentials = %q/%q, want luxd/secret", opts.Username, opts.Password)
		}
	})
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"core event", topics.CoreEvent("device_registered"), "luxd/core/event/device_registered"},
		{"core device", topics.CoreDevice(3), "luxd/core/device/3"},
		{"core universe", topics.CoreUniverse(5), "luxd/core/universe/5"},
		{"system status", topics.SystemStatus(), "luxd/system/status"},
		{"system shutdown", topics.SystemShutdown(), "luxd/system/shutdown"},
		{"all core events", topics.AllCoreEvents(), "luxd/core/event/+"},
		{"all core devices", topics.AllCoreDevices(), "luxd/core/device/+"},
		{"all topics", topics.AllTopics(), "luxd/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("luxd-test")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"luxd-test"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("luxd-test")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

func TestPublishValidation(t *testing.T) {
	client := newDisconnectedClient()

	t.Run("empty topic", func(t *testing.T) {
		if err := client.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("invalid qos", func(t *testing.T) {
		if err := client.Publish("luxd/test", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
			t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
		}
	})

	t.Run("oversize payload", func(t *testing.T) {
		payload := make([]byte, maxPayloadSize+1)
		if err := client.Publish("luxd/test", payload, 1, false); !errors.Is(err, ErrPublishFailed) {
			t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		if err := client.Publish("luxd/test", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
			t.Errorf("Publish() error = %v, want ErrNotConnected", err)
		}
	})
}

func TestSubscribeValidation(t *testing.T) {
	client := newDisconnectedClient()
	handler := func(string, []byte) error { return nil }

	t.Run("empty topic", func(t *testing.T) {
		if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("invalid qos", func(t *testing.T) {
		if err := client.Subscribe("luxd/test", 3, handler); !errors.Is(err, ErrInvalidQoS) {
			t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		if err := client.Subscribe("luxd/test", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
			t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		if err := client.Subscribe("luxd/test", 1, handler); !errors.Is(err, ErrNotConnected) {
			t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
		}
		if client.HasSubscription("luxd/test") {
			t.Error("failed subscribe left tracking entry")
		}
	})
}

func TestUnsubscribeValidation(t *testing.T) {
	client := newDisconnectedClient()

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("luxd/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	client := newDisconnectedClient()

	if count := client.SubscriptionCount(); count != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", count)
	}
	if client.HasSubscription("luxd/test") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

func TestHealthCheck(t *testing.T) {
	client := newDisconnectedClient()

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.HealthCheck(ctx); err == nil {
			t.Error("HealthCheck() error = nil, want context error")
		}
	})

	t.Run("not connected", func(t *testing.T) {
		if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
			t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
		}
	})
}

func TestCloseNilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := newDisconnectedClient()
	if client.IsConnected() {
		t.Error("IsConnected() = true for never-connected client")
	}
}
