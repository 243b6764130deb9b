// Package metrics records request, oracle and edit metrics two ways: as
// Prometheus collectors scraped from /metrics by the long-running server, and
// as CloudWatch Embedded Metric Format (EMF) lines written to stdout when the
// handler runs inside Lambda, where CloudWatch extracts them from the logs.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Namespace is the CloudWatch namespace every Brushline EMF document uses.
const Namespace = "Brushline"

// CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// emfOutput receives flushed EMF lines. Tests swap it for a buffer.
var emfOutput io.Writer = os.Stdout

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder builds one EMF document. Create one per operation; it is not safe
// for concurrent use.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    []metricDef
	values     map[string]float64
	properties map[string]any
}

// New returns a Recorder for namespace. Inside Lambda the FunctionName
// dimension is added automatically.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		dimensions: map[string]string{},
		values:     map[string]float64{},
		properties: map[string]any{},
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions["FunctionName"] = fn
	}
	return r
}

// Enabled reports whether EMF output is meaningful, i.e. the process runs in
// Lambda. Outside Lambda the Prometheus collectors are the source of truth.
func Enabled() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records value under name. Recording the same name twice keeps the
// last value.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	if _, ok := r.values[name]; !ok {
		r.metrics = append(r.metrics, metricDef{Name: name, Unit: unit})
	}
	r.values[name] = value
	return r
}

func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Property attaches a searchable, non-metric field.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as a single JSON line. A Recorder with no metrics
// writes nothing.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	doc := make(map[string]any, 1+len(r.dimensions)+len(r.values)+len(r.properties))
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    r.metrics,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(emfOutput, string(data))
}
