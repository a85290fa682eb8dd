package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"ledgersync/logx"
)

type systemPromMetrics struct {
	cpuPercent     prometheus.Gauge
	memoryPercent  prometheus.Gauge
	diskReadBytes  prometheus.Gauge
	diskWriteBytes prometheus.Gauge
	networkRxBytes prometheus.Gauge
	networkTxBytes prometheus.Gauge
}

func newSystemPromMetrics() *systemPromMetrics {
	return &systemPromMetrics{
		cpuPercent: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_cpu_percent",
				Help: "Total CPU utilization percentage",
			},
		),
		memoryPercent: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_memory_percent",
				Help: "Virtual memory utilization percentage",
			},
		),
		diskReadBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_disk_read_bytes",
				Help: "Cumulative disk read bytes across devices",
			},
		),
		diskWriteBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_disk_write_bytes",
				Help: "Cumulative disk write bytes across devices",
			},
		),
		networkRxBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_network_rx_bytes",
				Help: "Cumulative network receive bytes across interfaces",
			},
		),
		networkTxBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledgersync_system_network_tx_bytes",
				Help: "Cumulative network transmit bytes across interfaces",
			},
		),
	}
}

var systemMetrics *systemPromMetrics

// StartSystemCollector samples host resource usage on the given interval
// until stop is closed.
func StartSystemCollector(interval time.Duration, stop <-chan struct{}) {
	if systemMetrics == nil {
		systemMetrics = newSystemPromMetrics()
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				collectSystemMetrics()
			case <-stop:
				return
			}
		}
	}()
}

func collectSystemMetrics() {
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		systemMetrics.cpuPercent.Set(cpuPercents[0])
	} else if err != nil {
		logx.Debug("MONITORING", "cpu sample failed: ", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		systemMetrics.memoryPercent.Set(vm.UsedPercent)
	}

	if counters, err := disk.IOCounters(); err == nil {
		var read, write uint64
		for _, c := range counters {
			read += c.ReadBytes
			write += c.WriteBytes
		}
		systemMetrics.diskReadBytes.Set(float64(read))
		systemMetrics.diskWriteBytes.Set(float64(write))
	}

	if counters, err := net.IOCounters(false); err == nil && len(counters) > 0 {
		systemMetrics.networkRxBytes.Set(float64(counters[0].BytesRecv))
		systemMetrics.networkTxBytes.Set(float64(counters[0].BytesSent))
	}
}
