package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// adminAllowList is the narrow projection of configuration fields an
// administrative handle is built from. Consumer-only options must not
// leak into the admin connection.
var adminAllowList = []string{
	KeySecurityProtocol,
	KeySSLCALocation,
	KeySSLCertLocation,
	KeySSLKeyLocation,
}

const defaultDialTimeout = 10 * time.Second

// clientSettings is the typed view of the configuration fields that shape
// a transport.
type clientSettings struct {
	bootstrap        string
	securityProtocol string
	caLocation       string
	certLocation     string
	keyLocation      string
	saslMechanism    string
	saslUsername     string
	saslPassword     string
	clientID         string
}

func settingsFrom(cfg map[string]any, bootstrap string) clientSettings {
	return clientSettings{
		bootstrap:        bootstrap,
		securityProtocol: stringOption(cfg, KeySecurityProtocol),
		caLocation:       stringOption(cfg, KeySSLCALocation),
		certLocation:     stringOption(cfg, KeySSLCertLocation),
		keyLocation:      stringOption(cfg, KeySSLKeyLocation),
		saslMechanism:    stringOption(cfg, KeySASLMechanism),
		saslUsername:     stringOption(cfg, KeySASLUsername),
		saslPassword:     stringOption(cfg, KeySASLPassword),
		clientID:         stringOption(cfg, KeyClientID),
	}
}

// stringOption reads a configuration value as a string. JSON numbers and
// booleans are rendered to their string forms, matching how librdkafka
// accepts either.
func stringOption(cfg map[string]any, key string) string {
	value, ok := cfg[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// newTransport builds a kafka-go transport from the security-relevant
// settings. It validates the security protocol, loads TLS material from
// disk, and constructs the SASL mechanism; any of these can fail and the
// failure belongs to the handle being built, not to the sibling handle.
func newTransport(s clientSettings) (*kafkago.Transport, error) {
	transport := &kafkago.Transport{
		DialTimeout: defaultDialTimeout,
		ClientID:    s.clientID,
	}

	protocol := strings.ToLower(s.securityProtocol)
	if protocol == "" {
		protocol = "plaintext"
	}

	switch protocol {
	case "plaintext":
	case "ssl":
		tlsConfig, err := newTLSConfig(s)
		if err != nil {
			return nil, err
		}
		transport.TLS = tlsConfig
	case "sasl_plaintext":
		mechanism, err := newSASLMechanism(s)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
	case "sasl_ssl":
		tlsConfig, err := newTLSConfig(s)
		if err != nil {
			return nil, err
		}
		mechanism, err := newSASLMechanism(s)
		if err != nil {
			return nil, err
		}
		transport.TLS = tlsConfig
		transport.SASL = mechanism
	default:
		return nil, fmt.Errorf("unsupported security protocol: %q", s.securityProtocol)
	}

	return transport, nil
}

func newTLSConfig(s clientSettings) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if s.caLocation != "" {
		pem, err := os.ReadFile(s.caLocation)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no usable certificates in %s", s.caLocation)
		}
		tlsConfig.RootCAs = pool
	}

	if s.certLocation != "" || s.keyLocation != "" {
		cert, err := tls.LoadX509KeyPair(s.certLocation, s.keyLocation)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func newSASLMechanism(s clientSettings) (sasl.Mechanism, error) {
	if s.saslUsername == "" || s.saslPassword == "" {
		return nil, fmt.Errorf("sasl.username and sasl.password are required for %s", s.securityProtocol)
	}

	switch strings.ToUpper(s.saslMechanism) {
	case "", "PLAIN":
		return plain.Mechanism{Username: s.saslUsername, Password: s.saslPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, s.saslUsername, s.saslPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, s.saslUsername, s.saslPassword)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism: %q", s.saslMechanism)
	}
}

// adminClient implements AdminClient on top of kafka-go.
type adminClient struct {
	client    *kafkago.Client
	transport *kafkago.Transport
	bootstrap string
}

// NewAdminClient builds an administrative handle from the allow-listed
// security fields of cfg plus the resolved bootstrap address. All other
// configuration keys are deliberately ignored.
func NewAdminClient(cfg map[string]any, bootstrap string) (AdminClient, error) {
	projected := make(map[string]any, len(adminAllowList))
	for _, key := range adminAllowList {
		if value, ok := cfg[key]; ok {
			projected[key] = value
		}
	}

	transport, err := newTransport(settingsFrom(projected, bootstrap))
	if err != nil {
		return nil, err
	}

	return &adminClient{
		client: &kafkago.Client{
			Addr:      kafkago.TCP(bootstrap),
			Transport: transport,
		},
		transport: transport,
		bootstrap: bootstrap,
	}, nil
}

func (a *adminClient) ListTopologyMetadata(ctx context.Context) (*MetadataSnapshot, error) {
	resp, err := a.client.Metadata(ctx, &kafkago.MetadataRequest{})
	if err != nil {
		return nil, fmt.Errorf("metadata query against %s: %w", a.bootstrap, err)
	}
	return snapshotFromResponse(resp, a.bootstrap), nil
}

func (a *adminClient) DescribeResourceConfig(ctx context.Context, ref ResourceRef) (map[string]ConfigEntry, error) {
	resourceType, err := ref.resourceType()
	if err != nil {
		return nil, err
	}

	resp, err := a.client.DescribeConfigs(ctx, &kafkago.DescribeConfigsRequest{
		Resources: []kafkago.DescribeConfigRequestResource{{
			ResourceType: resourceType,
			ResourceName: strconv.Itoa(ref.ID),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s %d: %w", ref.Kind, ref.ID, err)
	}
	if len(resp.Resources) == 0 {
		return nil, fmt.Errorf("describe %s %d: empty response", ref.Kind, ref.ID)
	}

	resource := resp.Resources[0]
	if resource.Error != nil {
		return nil, fmt.Errorf("describe %s %d: %w", ref.Kind, ref.ID, resource.Error)
	}

	entries := make(map[string]ConfigEntry, len(resource.ConfigEntries))
	for _, entry := range resource.ConfigEntries {
		entries[entry.ConfigName] = ConfigEntry{
			Name:      entry.ConfigName,
			Value:     entry.ConfigValue,
			Source:    configSourceName(entry.ConfigSource),
			ReadOnly:  entry.ReadOnly,
			Sensitive: entry.IsSensitive,
		}
	}
	return entries, nil
}

func (a *adminClient) Close() error {
	a.transport.CloseIdleConnections()
	return nil
}

// consumerClient implements ConsumerClient on top of kafka-go. It is built
// from the entire configuration mapping, so passthrough options apply, and
// always reports end of partition so stream reads can detect exhaustion
// deterministically.
type consumerClient struct {
	client       *kafkago.Client
	transport    *kafkago.Transport
	bootstrap    string
	groupID      string
	partitionEOF bool
}

// NewConsumerClient builds a consumer handle from the full configuration,
// overridden with the resolved bootstrap address.
func NewConsumerClient(cfg map[string]any, bootstrap string) (ConsumerClient, error) {
	transport, err := newTransport(settingsFrom(cfg, bootstrap))
	if err != nil {
		return nil, err
	}

	return &consumerClient{
		client: &kafkago.Client{
			Addr:      kafkago.TCP(bootstrap),
			Transport: transport,
		},
		transport:    transport,
		bootstrap:    bootstrap,
		groupID:      stringOption(cfg, KeyGroupID),
		partitionEOF: true,
	}, nil
}

func (c *consumerClient) ListTopologyMetadata(ctx context.Context) (*MetadataSnapshot, error) {
	resp, err := c.client.Metadata(ctx, &kafkago.MetadataRequest{})
	if err != nil {
		return nil, fmt.Errorf("metadata query against %s: %w", c.bootstrap, err)
	}
	return snapshotFromResponse(resp, c.bootstrap), nil
}

func (c *consumerClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// snapshotFromResponse converts a kafka-go metadata response. The origin
// broker name is the bootstrap address the query was sent to; the origin
// ID is resolved by matching that address against the returned broker
// set, and left at -1 when no member advertises it (the validation step
// reports that case explicitly).
func snapshotFromResponse(resp *kafkago.MetadataResponse, origin string) *MetadataSnapshot {
	snapshot := &MetadataSnapshot{
		ClusterID:        resp.ClusterID,
		OriginBrokerName: origin,
		OriginBrokerID:   -1,
		ControllerID:     resp.Controller.ID,
		Brokers:          make(map[int]Broker, len(resp.Brokers)),
	}
	for _, b := range resp.Brokers {
		broker := Broker{ID: b.ID, Host: b.Host, Port: b.Port, Rack: b.Rack}
		snapshot.Brokers[broker.ID] = broker
		if broker.Addr() == origin {
			snapshot.OriginBrokerID = broker.ID
		}
	}
	return snapshot
}

func (r ResourceRef) resourceType() (kafkago.ResourceType, error) {
	switch r.Kind {
	case ResourceKindBroker:
		return kafkago.ResourceTypeBroker, nil
	default:
		return 0, fmt.Errorf("unsupported resource kind: %q", r.Kind)
	}
}

// configSourceName maps a DescribeConfigs source code to its protocol
// name.
func configSourceName(source int8) string {
	switch source {
	case 1:
		return "DYNAMIC_TOPIC_CONFIG"
	case 2:
		return "DYNAMIC_BROKER_CONFIG"
	case 3:
		return "DYNAMIC_DEFAULT_BROKER_CONFIG"
	case 4:
		return "STATIC_BROKER_CONFIG"
	case 5:
		return "DEFAULT_CONFIG"
	case 6:
		return "DYNAMIC_BROKER_LOGGER_CONFIG"
	default:
		return "UNKNOWN"
	}
}
