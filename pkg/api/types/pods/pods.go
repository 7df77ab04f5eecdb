package pods

import (
	"time"

	"github.com/opst/podconsole/pkg/api/types/internal/cmp"
	kubecore "k8s.io/api/core/v1"
)

// Pod is a pod deployed from a template.
type Pod struct {
	Id        string            `json:"id"`
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Template  string            `json:"template,omitempty"`
	Owner     string            `json:"owner,omitempty"`
	Phase     kubecore.PodPhase `json:"phase"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (p Pod) Equal(o Pod) bool {
	return p.Id == o.Id &&
		p.Name == o.Name &&
		p.Namespace == o.Namespace &&
		p.Template == o.Template &&
		p.Owner == o.Owner &&
		p.Phase == o.Phase &&
		p.CreatedAt.Equal(o.CreatedAt)
}

// Running tells the pod is in Running phase.
func (p Pod) Running() bool {
	return p.Phase == kubecore.PodRunning
}

// List is the response of GET /pods .
type List struct {
	Pods []Pod `json:"pods"`
}

func (l List) Equal(o List) bool {
	return cmp.SliceEqual(l.Pods, o.Pods)
}
