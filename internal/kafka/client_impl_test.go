package kafka

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestCA writes a self-signed certificate PEM to a temp file.
func writeTestCA(t *testing.T) string {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "kafka-recon-test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemData, 0o600))
	return path
}

func TestStringOption(t *testing.T) {
	cfg := map[string]any{
		"name":    "value",
		"number":  float64(30000),
		"boolean": true,
		"null":    nil,
	}

	assert.Equal(t, "value", stringOption(cfg, "name"))
	assert.Equal(t, "30000", stringOption(cfg, "number"))
	assert.Equal(t, "true", stringOption(cfg, "boolean"))
	assert.Equal(t, "", stringOption(cfg, "null"))
	assert.Equal(t, "", stringOption(cfg, "absent"))
}

func TestNewTransport(t *testing.T) {
	t.Run("defaults to plaintext", func(t *testing.T) {
		transport, err := newTransport(clientSettings{bootstrap: "kafka-1:9092"})
		require.NoError(t, err)
		assert.Nil(t, transport.TLS)
		assert.Nil(t, transport.SASL)
	})

	t.Run("ssl loads the CA bundle", func(t *testing.T) {
		transport, err := newTransport(clientSettings{
			bootstrap:        "kafka-1:9093",
			securityProtocol: "ssl",
			caLocation:       writeTestCA(t),
		})
		require.NoError(t, err)
		require.NotNil(t, transport.TLS)
		assert.NotNil(t, transport.TLS.RootCAs)
	})

	t.Run("ssl with a missing CA file fails", func(t *testing.T) {
		_, err := newTransport(clientSettings{
			securityProtocol: "ssl",
			caLocation:       "/nonexistent/ca.pem",
		})
		assert.Error(t, err)
	})

	t.Run("ssl with garbage CA material fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := newTransport(clientSettings{securityProtocol: "ssl", caLocation: path})
		assert.ErrorContains(t, err, "no usable certificates")
	})

	t.Run("sasl_plaintext builds a plain mechanism by default", func(t *testing.T) {
		transport, err := newTransport(clientSettings{
			securityProtocol: "sasl_plaintext",
			saslUsername:     "admin",
			saslPassword:     "secret",
		})
		require.NoError(t, err)
		require.NotNil(t, transport.SASL)
		mechanism, ok := transport.SASL.(plain.Mechanism)
		require.True(t, ok)
		assert.Equal(t, "admin", mechanism.Username)
		assert.Nil(t, transport.TLS)
	})

	t.Run("scram mechanisms are supported", func(t *testing.T) {
		for _, name := range []string{"SCRAM-SHA-256", "SCRAM-SHA-512"} {
			transport, err := newTransport(clientSettings{
				securityProtocol: "sasl_plaintext",
				saslMechanism:    name,
				saslUsername:     "admin",
				saslPassword:     "secret",
			})
			require.NoError(t, err, name)
			assert.NotNil(t, transport.SASL, name)
		}
	})

	t.Run("sasl without credentials fails", func(t *testing.T) {
		_, err := newTransport(clientSettings{securityProtocol: "sasl_ssl"})
		assert.ErrorContains(t, err, "sasl.username and sasl.password are required")
	})

	t.Run("unknown sasl mechanism fails", func(t *testing.T) {
		_, err := newTransport(clientSettings{
			securityProtocol: "sasl_plaintext",
			saslMechanism:    "OAUTHBEARER",
			saslUsername:     "admin",
			saslPassword:     "secret",
		})
		assert.ErrorContains(t, err, "unsupported sasl mechanism")
	})

	t.Run("unknown security protocol fails", func(t *testing.T) {
		_, err := newTransport(clientSettings{securityProtocol: "kerberos"})
		assert.ErrorContains(t, err, "unsupported security protocol")
	})
}

func TestNewAdminClientProjection(t *testing.T) {
	// The admin handle is built from a narrow allow-list; SASL
	// credentials are consumer-side passthrough and must not reach it.
	// With a SASL security protocol the admin construction therefore
	// fails while the consumer construction succeeds.
	cfg := map[string]any{
		KeySecurityProtocol: "sasl_plaintext",
		KeySASLUsername:     "admin",
		KeySASLPassword:     "secret",
	}

	_, adminErr := NewAdminClient(cfg, "kafka-1:9092")
	assert.Error(t, adminErr)

	consumer, consumerErr := NewConsumerClient(cfg, "kafka-1:9092")
	require.NoError(t, consumerErr)
	require.NoError(t, consumer.Close())
}

func TestNewConsumerClientForcesPartitionEOF(t *testing.T) {
	client, err := NewConsumerClient(map[string]any{KeyGroupID: "recon"}, "kafka-1:9092")
	require.NoError(t, err)

	impl, ok := client.(*consumerClient)
	require.True(t, ok)
	assert.True(t, impl.partitionEOF)
	assert.Equal(t, "recon", impl.groupID)
	require.NoError(t, client.Close())
}

func TestSnapshotFromResponse(t *testing.T) {
	resp := &kafkago.MetadataResponse{
		ClusterID:  "test-cluster",
		Controller: kafkago.Broker{ID: 2},
		Brokers: []kafkago.Broker{
			{ID: 1, Host: "kafka-1.example.com", Port: 9092},
			{ID: 2, Host: "kafka-2.example.com", Port: 9092},
		},
	}

	t.Run("origin resolved when the dialed address is a member", func(t *testing.T) {
		snapshot := snapshotFromResponse(resp, "kafka-2.example.com:9092")

		assert.Equal(t, "test-cluster", snapshot.ClusterID)
		assert.Equal(t, "kafka-2.example.com:9092", snapshot.OriginBrokerName)
		assert.Equal(t, 2, snapshot.OriginBrokerID)
		assert.Equal(t, 2, snapshot.ControllerID)
		assert.Len(t, snapshot.Brokers, 2)
	})

	t.Run("origin left unresolved when no member advertises the address", func(t *testing.T) {
		snapshot := snapshotFromResponse(resp, "lb.internal:9092")

		assert.Equal(t, -1, snapshot.OriginBrokerID)
		assert.False(t, snapshot.HasBroker(snapshot.OriginBrokerID))
	})
}

func TestSortedBrokers(t *testing.T) {
	snapshot := &MetadataSnapshot{
		Brokers: map[int]Broker{
			3: {ID: 3, Host: "c"},
			1: {ID: 1, Host: "a"},
			2: {ID: 2, Host: "b"},
		},
	}

	brokers := snapshot.SortedBrokers()
	require.Len(t, brokers, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{brokers[0].ID, brokers[1].ID, brokers[2].ID})
}

func TestResourceRef(t *testing.T) {
	t.Run("broker kind maps to the broker resource type", func(t *testing.T) {
		resourceType, err := ResourceRef{Kind: ResourceKindBroker, ID: 1}.resourceType()
		require.NoError(t, err)
		assert.Equal(t, kafkago.ResourceTypeBroker, resourceType)
	})

	t.Run("unknown kinds are rejected", func(t *testing.T) {
		_, err := ResourceRef{Kind: "topic", ID: 1}.resourceType()
		assert.ErrorContains(t, err, "unsupported resource kind")
	})
}

func TestConfigSourceName(t *testing.T) {
	assert.Equal(t, "STATIC_BROKER_CONFIG", configSourceName(4))
	assert.Equal(t, "DEFAULT_CONFIG", configSourceName(5))
	assert.Equal(t, "UNKNOWN", configSourceName(99))
}
