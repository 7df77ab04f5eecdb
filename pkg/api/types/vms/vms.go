package vms

import (
	"github.com/opst/podconsole/pkg/api/types/internal/cmp"
	"github.com/opst/podconsole/pkg/api/types/templates"
)

// status values of VirtualMachine. Other values may come; they are neither running nor stopped.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

type VirtualMachine struct {
	Id        string              `json:"id"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Node      string              `json:"node,omitempty"`
	Template  string              `json:"template,omitempty"`
	Resources templates.Resources `json:"resources,omitempty"`
}

func (vm VirtualMachine) Equal(o VirtualMachine) bool {
	return vm.Id == o.Id &&
		vm.Name == o.Name &&
		vm.Status == o.Status &&
		vm.Node == o.Node &&
		vm.Template == o.Template &&
		vm.Resources.Equal(o.Resources)
}

func (vm VirtualMachine) Running() bool {
	return vm.Status == StatusRunning
}

func (vm VirtualMachine) Stopped() bool {
	return vm.Status == StatusStopped
}

// List is the response of GET /vms .
type List struct {
	VMs []VirtualMachine `json:"vms"`
}

func (l List) Equal(o List) bool {
	return cmp.SliceEqual(l.VMs, o.VMs)
}
