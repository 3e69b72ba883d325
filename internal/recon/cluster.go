// Package recon implements the cluster-introspection engine: topology
// discovery, broker identity validation, and per-broker configuration
// enumeration for security review.
package recon

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/kafka-recon/internal/kafka"
	"github.com/giantswarm/kafka-recon/internal/logging"
	"github.com/giantswarm/kafka-recon/internal/output"
)

// securityRelevantConfigs is the allow-list of broker settings surfaced by
// the configuration report. Everything else a broker returns is dropped
// before display; the reduction is the point of the report, not a fetch
// limitation.
var securityRelevantConfigs = map[string]struct{}{
	"ssl.client.auth": {},
}

// Default report policy. These are display and timeout policy, not
// protocol requirements.
const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultNameWidth    = 40
	DefaultValueWidth   = 20
	DefaultFetchWorkers = 4
)

// Discoverer runs cluster discovery against whichever client handles the
// session holds. The exported fields tune the fetch and display policy
// and default to the values above.
type Discoverer struct {
	printer *output.Printer
	logger  *slog.Logger

	// FetchTimeout bounds each metadata and per-broker config fetch.
	FetchTimeout time.Duration

	// NameWidth and ValueWidth clip config entry display fields.
	NameWidth  int
	ValueWidth int

	// FetchWorkers bounds concurrent per-broker config fetches. Failures
	// stay isolated per broker and the report is re-sorted by broker ID,
	// so completion order never shows.
	FetchWorkers int
}

// NewDiscoverer returns a Discoverer with default policy, reporting
// through printer.
func NewDiscoverer(printer *output.Printer, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Discoverer{
		printer:      printer,
		logger:       logger,
		FetchTimeout: DefaultFetchTimeout,
		NameWidth:    DefaultNameWidth,
		ValueWidth:   DefaultValueWidth,
		FetchWorkers: DefaultFetchWorkers,
	}
}

// DescribeCluster fetches one topology snapshot and reports cluster
// identity, the broker set, origin/controller validation, and, when the
// admin handle is present, each broker's security-relevant configuration.
// Every failure is reported as a diagnostic; discovery runs to completion
// for every broker it can reach.
func (d *Discoverer) DescribeCluster(ctx context.Context, admin kafka.AdminClient, consumer kafka.ConsumerClient) {
	if admin == nil && consumer == nil {
		d.printer.Failf("Not connected")
		return
	}

	meta := d.fetchMetadata(ctx, admin, consumer)
	if meta == nil {
		// Nothing further can be reported without a snapshot.
		return
	}

	d.printer.Successf("Cluster ID: %s", meta.ClusterID)
	d.printer.Blank()
	d.printer.Successf("Metadata origin broker name: %s", meta.OriginBrokerName)
	d.printer.Blank()

	brokers := meta.SortedBrokers()
	rows := make([][]string, 0, len(brokers))
	for _, b := range brokers {
		rows = append(rows, []string{strconv.Itoa(b.ID), b.Host, strconv.Itoa(b.Port)})
	}
	d.printer.Table([]string{"ID", "Host", "Port"}, rows)
	d.printer.Blank()

	// The origin and controller IDs are claims by the responding broker.
	// An ID missing from the broker set is an inconsistent snapshot and
	// worth flagging, not suppressing.
	if meta.HasBroker(meta.OriginBrokerID) {
		d.printer.Successf("Metadata origin broker ID: %d", meta.OriginBrokerID)
	} else {
		d.printer.Failf("Invalid metadata origin broker ID: %d", meta.OriginBrokerID)
	}
	d.printer.Blank()
	if meta.HasBroker(meta.ControllerID) {
		d.printer.Successf("Controller broker ID: %d", meta.ControllerID)
	} else {
		d.printer.Failf("Invalid controller broker ID: %d", meta.ControllerID)
	}
	d.printer.Blank()

	// Consumer-only sessions cannot query resource configs.
	if admin == nil {
		return
	}
	d.describeBrokerConfigs(ctx, admin, brokers)
}

func (d *Discoverer) fetchMetadata(ctx context.Context, admin kafka.AdminClient, consumer kafka.ConsumerClient) *kafka.MetadataSnapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, d.FetchTimeout)
	defer cancel()

	start := time.Now()
	var meta *kafka.MetadataSnapshot
	var err error
	// Admin queries may expose more detail, so prefer the admin handle
	// when both are present.
	if admin != nil {
		meta, err = admin.ListTopologyMetadata(fetchCtx)
	} else {
		meta, err = consumer.ListTopologyMetadata(fetchCtx)
	}
	if err != nil {
		d.printer.Failf("Could not query metadata: %v", err)
		d.printer.Blank()
		d.logger.Debug("metadata fetch failed",
			logging.Operation("cluster"), logging.Err(err))
		return nil
	}

	d.logger.Debug("metadata fetched",
		logging.Operation("cluster"),
		logging.Cluster(meta.ClusterID),
		logging.Duration(time.Since(start)),
		slog.Int("brokers", len(meta.Brokers)))
	return meta
}

type brokerConfigResult struct {
	entries map[string]kafka.ConfigEntry
	err     error
}

// describeBrokerConfigs fetches each broker's broker-scoped configuration
// resource with bounded concurrency. A broker's failure never stops its
// siblings; results are reported in ascending broker ID order.
func (d *Discoverer) describeBrokerConfigs(ctx context.Context, admin kafka.AdminClient, brokers []kafka.Broker) {
	results := make([]brokerConfigResult, len(brokers))

	g := new(errgroup.Group)
	workers := d.FetchWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, broker := range brokers {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, d.FetchTimeout)
			defer cancel()

			ref := kafka.ResourceRef{Kind: kafka.ResourceKindBroker, ID: broker.ID}
			entries, err := admin.DescribeResourceConfig(fetchCtx, ref)
			results[i] = brokerConfigResult{entries: entries, err: err}
			return nil
		})
	}
	// Per-broker errors are collected in results; the group never fails.
	_ = g.Wait()

	for i, broker := range brokers {
		if results[i].err != nil {
			d.printer.Failf("Could not describe broker %d", broker.ID)
			d.printer.Blank()
			d.logger.Debug("broker config fetch failed",
				logging.Operation("cluster"),
				logging.Broker(strconv.Itoa(broker.ID)),
				logging.Err(results[i].err))
			continue
		}
		d.renderConfigTable(results[i].entries)
	}
}

func (d *Discoverer) renderConfigTable(entries map[string]kafka.ConfigEntry) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		if _, ok := securityRelevantConfigs[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		entry := entries[name]
		value := output.ValuePlaceholder
		if entry.Value != "" {
			value = output.Clip(entry.Value, d.ValueWidth)
		}
		rows = append(rows, []string{
			output.Clip(entry.Name, d.NameWidth),
			value,
			entry.Source,
			yesMarker(entry.ReadOnly),
			yesMarker(entry.Sensitive),
		})
	}

	d.printer.Table([]string{"Name", "Value", "Source", "Read Only", "Sensitive"}, rows)
	d.printer.Blank()
}

func yesMarker(flag bool) string {
	if flag {
		return "Yes"
	}
	return ""
}
