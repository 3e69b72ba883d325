package kafka

import (
	"context"
	"net"
	"sort"
	"strconv"
)

// Configuration keys understood by the connection policy. Key names follow
// librdkafka so existing client configuration files keep working.
const (
	KeyBootstrapServers = "bootstrap.servers"
	KeyGroupID          = "group.id"
	KeySecurityProtocol = "security.protocol"
	KeySSLCALocation    = "ssl.ca.location"
	KeySSLCertLocation  = "ssl.certificate.location"
	KeySSLKeyLocation   = "ssl.key.location"
	KeySASLMechanism    = "sasl.mechanism"
	KeySASLUsername     = "sasl.username"
	KeySASLPassword     = "sasl.password"
	KeyClientID         = "client.id"
)

// Broker identifies one cluster member.
type Broker struct {
	ID   int
	Host string
	Port int
	Rack string
}

// Addr returns the broker's host:port form.
func (b Broker) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// MetadataSnapshot is the immutable result of one topology fetch. The
// origin and controller IDs are claims made by the responding broker;
// callers must cross-check them against Brokers before trusting them.
type MetadataSnapshot struct {
	ClusterID        string
	OriginBrokerName string
	OriginBrokerID   int
	ControllerID     int
	Brokers          map[int]Broker
}

// HasBroker reports whether id is present in the snapshot's broker set.
func (m *MetadataSnapshot) HasBroker(id int) bool {
	_, ok := m.Brokers[id]
	return ok
}

// SortedBrokers returns the broker set sorted by ascending ID. IDs are
// unique within one snapshot, so the order is total.
func (m *MetadataSnapshot) SortedBrokers() []Broker {
	brokers := make([]Broker, 0, len(m.Brokers))
	for _, b := range m.Brokers {
		brokers = append(brokers, b)
	}
	sort.Slice(brokers, func(i, j int) bool { return brokers[i].ID < brokers[j].ID })
	return brokers
}

// ConfigEntry is one named configuration setting on a cluster resource.
// An empty Value means the broker withheld or has no value for the entry;
// sensitive entries come back empty by design.
type ConfigEntry struct {
	Name      string
	Value     string
	Source    string
	ReadOnly  bool
	Sensitive bool
}

// ResourceKind names a describable resource type.
type ResourceKind string

// ResourceKindBroker is the broker-scoped configuration resource.
const ResourceKindBroker ResourceKind = "broker"

// ResourceRef identifies one configuration resource on the cluster.
type ResourceRef struct {
	Kind ResourceKind
	ID   int
}

// AdminClient is the administrative capability: topology metadata and
// per-resource configuration. Usage in this tool is strictly read-only.
type AdminClient interface {
	// ListTopologyMetadata fetches one metadata snapshot. The context
	// bounds the call; cancellation or deadline expiry yields an error.
	ListTopologyMetadata(ctx context.Context) (*MetadataSnapshot, error)

	// DescribeResourceConfig fetches the configuration entries of one
	// resource, keyed by entry name.
	DescribeResourceConfig(ctx context.Context, ref ResourceRef) (map[string]ConfigEntry, error)

	// Close releases the client's network resources.
	Close() error
}

// ConsumerClient is the consumer capability. It can query topology as a
// side effect of its bootstrap but has no administrative reach.
type ConsumerClient interface {
	ListTopologyMetadata(ctx context.Context) (*MetadataSnapshot, error)
	Close() error
}
