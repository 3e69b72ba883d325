package kafka

import (
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/giantswarm/kafka-recon/internal/config"
	"github.com/giantswarm/kafka-recon/internal/logging"
	"github.com/giantswarm/kafka-recon/internal/output"
)

// ConnectResult holds the outcome of one connect attempt. Either handle
// may be nil; partial success is valid. Broker is the resolved bootstrap
// address, empty when no handle could be built.
type ConnectResult struct {
	Admin    AdminClient
	Consumer ConsumerClient
	Broker   string
}

// Connector turns a configuration mapping into live client handles. The
// constructor fields exist so tests can substitute handle factories.
type Connector struct {
	printer *output.Printer
	logger  *slog.Logger

	newAdmin    func(cfg map[string]any, bootstrap string) (AdminClient, error)
	newConsumer func(cfg map[string]any, bootstrap string) (ConsumerClient, error)
}

// NewConnector returns a Connector reporting through printer.
func NewConnector(printer *output.Printer, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Connector{
		printer:     printer,
		logger:      logger,
		newAdmin:    NewAdminClient,
		newConsumer: NewConsumerClient,
	}
}

// Connect applies the connection policy to the store and attempts both
// handles. It never fails as a whole: every failure mode is reported as
// a diagnostic and the result carries whichever handles succeeded.
func (c *Connector) Connect(store *config.Store) ConnectResult {
	var result ConnectResult

	// An unset group ID would surface much later as a cryptic consumer
	// failure, or silently share a group across runs. Synthesize one and
	// tell the operator.
	if !store.Has(KeyGroupID) {
		groupID := strings.ReplaceAll(uuid.NewString(), "-", "")
		store.Set(KeyGroupID, groupID)
		c.printer.Successf("Group ID not configured, using: %s", groupID)
		c.printer.Blank()
	}

	raw, ok := store.Get(KeyBootstrapServers)
	if !ok {
		c.printer.Failf("Bootstrap server not configured")
		return result
	}
	bootstrap, ok := resolveBootstrap(raw)
	if !ok {
		c.printer.Failf("Bootstrap server not configured")
		return result
	}

	cfg := store.Snapshot()

	admin, err := c.newAdmin(cfg, bootstrap)
	if err != nil {
		c.printer.Failf("Admin client connection failed: %v", err)
		c.logger.Debug("admin handle construction failed",
			logging.Operation("connect"), logging.Broker(bootstrap), logging.Err(err))
	} else {
		result.Admin = admin
		result.Broker = bootstrap
		c.printer.Successf("Admin client connected")
	}

	c.printer.Blank()

	consumer, err := c.newConsumer(cfg, bootstrap)
	if err != nil {
		c.printer.Failf("Consumer connection failed: %v", err)
		c.logger.Debug("consumer handle construction failed",
			logging.Operation("connect"), logging.Broker(bootstrap), logging.Err(err))
	} else {
		result.Consumer = consumer
		result.Broker = bootstrap
		c.printer.Successf("Consumer connected")
	}

	return result
}

// Disconnect releases whichever handles are present, reporting each
// independently. Both handles absent is a distinct reported condition.
func (c *Connector) Disconnect(admin AdminClient, consumer ConsumerClient) {
	if admin == nil && consumer == nil {
		c.printer.Failf("Not connected")
	}
	if admin != nil {
		if err := admin.Close(); err != nil {
			c.printer.Failf("Admin disconnect failed: %v", err)
		} else {
			c.printer.Successf("Admin disconnected")
		}
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			c.printer.Failf("Consumer disconnect failed: %v", err)
		} else {
			c.printer.Successf("Consumer disconnected")
		}
	}
}

// resolveBootstrap picks the bootstrap address to dial. A list of
// candidates is sampled uniformly at random: any single seed broker is
// enough to bootstrap full topology, and random selection spreads load
// across seeds. Returns false when no usable address is configured.
func resolveBootstrap(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return v[rand.IntN(len(v))], true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		candidate, ok := v[rand.IntN(len(v))].(string)
		if !ok || candidate == "" {
			return "", false
		}
		return candidate, true
	default:
		return "", false
	}
}
