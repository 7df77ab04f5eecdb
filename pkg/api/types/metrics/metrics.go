package metrics

import (
	"github.com/opst/podconsole/pkg/api/types/internal/cmp"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Usage is an amount in use against the capacity.
type Usage struct {
	Capacity resource.Quantity `json:"capacity"`
	Used     resource.Quantity `json:"used"`
}

func (u Usage) Equal(o Usage) bool {
	return u.Capacity.Equal(o.Capacity) && u.Used.Equal(o.Used)
}

// Ratio returns Used / Capacity in [0, ...). Zero capacity gives 0.
func (u Usage) Ratio() float64 {
	capa := u.Capacity.AsApproximateFloat64()
	if capa <= 0 {
		return 0
	}
	return u.Used.AsApproximateFloat64() / capa
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	capa := u.Capacity.DeepCopy()
	capa.Add(o.Capacity)
	used := u.Used.DeepCopy()
	used.Add(o.Used)
	return Usage{Capacity: capa, Used: used}
}

type NodeResources struct {
	Name   string `json:"name"`
	CPU    Usage  `json:"cpu"`
	Memory Usage  `json:"memory"`
	Pods   Usage  `json:"pods"`
}

func (n NodeResources) Equal(o NodeResources) bool {
	return n.Name == o.Name &&
		n.CPU.Equal(o.CPU) &&
		n.Memory.Equal(o.Memory) &&
		n.Pods.Equal(o.Pods)
}

// ClusterResources is the response of GET /cluster/resources .
type ClusterResources struct {
	Nodes []NodeResources `json:"nodes"`
}

func (c ClusterResources) Equal(o ClusterResources) bool {
	return cmp.SliceEqualUnordered(c.Nodes, o.Nodes)
}
