// Package dashboard composes bindings of users, templates, pods and virtual machines
// into the stats shown on the dashboard.
package dashboard

import (
	"context"

	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/api/types/pods"
	"github.com/opst/podconsole/pkg/api/types/templates"
	"github.com/opst/podconsole/pkg/api/types/users"
	"github.com/opst/podconsole/pkg/api/types/vms"
	"github.com/opst/podconsole/pkg/binding"
	"github.com/opst/podconsole/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Source provides the collections counted on the dashboard.
type Source interface {
	Users(context.Context) (users.List, error)
	Templates(context.Context) (templates.List, error)
	Pods(context.Context) (pods.List, error)
	VMs(context.Context) (vms.List, error)
}

type DashboardStats struct {
	UsersCount           int `json:"usersCount"`
	TemplatesCount       int `json:"templatesCount"`
	DeployedPodsCount    int `json:"deployedPodsCount"`
	VirtualMachinesCount int `json:"virtualMachinesCount"`
	RunningVMsCount      int `json:"runningVMsCount"`
	StoppedVMsCount      int `json:"stoppedVMsCount"`
}

// Derive counts collections. A nil collection counts as empty.
//
// VMs which are neither running nor stopped are counted only in VirtualMachinesCount.
func Derive(u *users.List, t *templates.List, p *pods.List, v *vms.List) DashboardStats {
	stats := DashboardStats{}
	if u != nil {
		stats.UsersCount = len(u.Users)
	}
	if t != nil {
		stats.TemplatesCount = len(t.Templates)
	}
	if p != nil {
		stats.DeployedPodsCount = len(p.Pods)
	}
	if v != nil {
		stats.VirtualMachinesCount = len(v.VMs)
		for _, vm := range v.VMs {
			switch {
			case vm.Running():
				stats.RunningVMsCount += 1
			case vm.Stopped():
				stats.StoppedVMsCount += 1
			}
		}
	}
	return stats
}

type State struct {
	Stats   DashboardStats `json:"stats"`
	Loading bool           `json:"loading"`

	// the first error of users, templates, pods and vms in this order. "" if none.
	Error string `json:"error"`
}

// Binding is the dashboard view-model.
//
// It is loading while any of its constituents is loading, and counts
// whichever collections are available at the time.
type Binding struct {
	users     *binding.Binding[users.List, binding.None]
	templates *binding.Binding[templates.List, binding.None]
	pods      *binding.Binding[pods.List, binding.None]
	vms       *binding.Binding[vms.List, binding.None]
}

type config struct {
	log *log.Logger
}

type Option func(*config) *config

func WithLogger(l *log.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

// New creates a Binding and starts fetching every constituent.
func New(ctx context.Context, src Source, options ...Option) *Binding {
	conf := &config{log: logger.Null()}
	for _, o := range options {
		conf = o(conf)
	}

	return &Binding{
		users: binding.New(
			ctx, binding.Ignore(src.Users), binding.None{},
			binding.WithName("dashboard/users"), binding.WithLogger(conf.log),
		),
		templates: binding.New(
			ctx, binding.Ignore(src.Templates), binding.None{},
			binding.WithName("dashboard/templates"), binding.WithLogger(conf.log),
		),
		pods: binding.New(
			ctx, binding.Ignore(src.Pods), binding.None{},
			binding.WithName("dashboard/pods"), binding.WithLogger(conf.log),
		),
		vms: binding.New(
			ctx, binding.Ignore(src.VMs), binding.None{},
			binding.WithName("dashboard/vms"), binding.WithLogger(conf.log),
		),
	}
}

func (b *Binding) State() State {
	u, t, p, v := b.users.State(), b.templates.State(), b.pods.State(), b.vms.State()
	loading, err := binding.Combine(u, t, p, v)
	return State{
		Stats:   Derive(dataOf(u), dataOf(t), dataOf(p), dataOf(v)),
		Loading: loading,
		Error:   err,
	}
}

func dataOf[T any](s binding.State[T]) *T {
	if !s.HasData {
		return nil
	}
	return &s.Data
}

// Refetch triggers every constituent, and returns without waiting for them.
func (b *Binding) Refetch() {
	b.users.Refetch()
	b.templates.Refetch()
	b.pods.Refetch()
	b.vms.Refetch()
}

// Settled waits until every constituent is settled.
func (b *Binding) Settled(ctx context.Context) (State, error) {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { _, err := b.users.Settled(ctx); return err })
	eg.Go(func() error { _, err := b.templates.Settled(ctx); return err })
	eg.Go(func() error { _, err := b.pods.Settled(ctx); return err })
	eg.Go(func() error { _, err := b.vms.Settled(ctx); return err })
	err := eg.Wait()
	return b.State(), err
}

// Subscribe registers fn to be called with the aggregated state when any constituent changes.
func (b *Binding) Subscribe(fn func(State)) (cancel func()) {
	cancels := []func(){
		b.users.Subscribe(func(binding.State[users.List]) { fn(b.State()) }),
		b.templates.Subscribe(func(binding.State[templates.List]) { fn(b.State()) }),
		b.pods.Subscribe(func(binding.State[pods.List]) { fn(b.State()) }),
		b.vms.Subscribe(func(binding.State[vms.List]) { fn(b.State()) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (b *Binding) Close() {
	b.users.Close()
	b.templates.Close()
	b.pods.Close()
	b.vms.Close()
}
