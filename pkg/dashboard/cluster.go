package dashboard

import (
	"context"
	"math"

	"github.com/opst/podconsole/pkg/api/types/metrics"
	"github.com/opst/podconsole/pkg/binding"
	"github.com/opst/podconsole/pkg/logger"
)

type ClusterSource interface {
	ClusterResources(context.Context) (metrics.ClusterResources, error)
}

// ClusterOverview is the sum of resources over nodes in the cluster.
type ClusterOverview struct {
	NodesCount int           `json:"nodesCount"`
	CPU        metrics.Usage `json:"cpu"`
	Memory     metrics.Usage `json:"memory"`
	Pods       metrics.Usage `json:"pods"`

	// utilization in percent, rounded to one decimal place.
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	PodsPercent   float64 `json:"podsPercent"`
}

// Summarize sums up node resources.
func Summarize(cr metrics.ClusterResources) ClusterOverview {
	o := ClusterOverview{NodesCount: len(cr.Nodes)}
	for _, n := range cr.Nodes {
		o.CPU = o.CPU.Add(n.CPU)
		o.Memory = o.Memory.Add(n.Memory)
		o.Pods = o.Pods.Add(n.Pods)
	}
	o.CPUPercent = percent(o.CPU)
	o.MemoryPercent = percent(o.Memory)
	o.PodsPercent = percent(o.Pods)
	return o
}

func percent(u metrics.Usage) float64 {
	return math.Round(u.Ratio()*1000) / 10
}

// ClusterBinding is the view-model of the cluster resource overview.
type ClusterBinding struct {
	*binding.Binding[ClusterOverview, binding.None]
}

func NewCluster(ctx context.Context, src ClusterSource, options ...Option) *ClusterBinding {
	conf := &config{log: logger.Null()}
	for _, o := range options {
		conf = o(conf)
	}

	produce := func(ctx context.Context, _ binding.None) (ClusterOverview, error) {
		cr, err := src.ClusterResources(ctx)
		if err != nil {
			return ClusterOverview{}, err
		}
		return Summarize(cr), nil
	}
	return &ClusterBinding{
		Binding: binding.New(
			ctx, produce, binding.None{},
			binding.WithName("dashboard/cluster"), binding.WithLogger(conf.log),
		),
	}
}
