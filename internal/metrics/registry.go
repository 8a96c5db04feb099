package metrics

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
)

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// exposition format, as read by the node_exporter textfile collector. The
// file is written to a temporary name first and renamed into place.
func WriteTextfile(fs afero.Fs, g prometheus.Gatherer, path string) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
