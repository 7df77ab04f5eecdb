// Package console wires the request cache, the API client, the session and
// the bindings into one Console.
//
// A process usually has one Console for its lifetime; tests build as many as they need.
package console

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/api/types/pods"
	"github.com/opst/podconsole/pkg/api/types/templates"
	"github.com/opst/podconsole/pkg/api/types/users"
	"github.com/opst/podconsole/pkg/api/types/vms"
	"github.com/opst/podconsole/pkg/binding"
	configs "github.com/opst/podconsole/pkg/configs/console"
	"github.com/opst/podconsole/pkg/dashboard"
	"github.com/opst/podconsole/pkg/errors"
	"github.com/opst/podconsole/pkg/logger"
	"github.com/opst/podconsole/pkg/reqcache"
	"github.com/opst/podconsole/pkg/rest"
	"github.com/opst/podconsole/pkg/session"
)

type Console struct {
	cancel context.CancelFunc

	Requests *reqcache.Cache
	Client   rest.Client
	Session  *session.Cache

	Dashboard *dashboard.Binding
	Cluster   *dashboard.ClusterBinding
	Users     *binding.Binding[users.List, binding.None]
	Groups    *binding.Binding[users.GroupList, binding.None]
	Templates *binding.Binding[templates.List, binding.None]
	Pods      *binding.Binding[pods.List, rest.PodQuery]
	VMs       *binding.Binding[vms.List, binding.None]
}

type config struct {
	clock      clockwork.Clock
	log        *log.Logger
	httpclient *http.Client
}

type Option func(*config) *config

func WithClock(clock clockwork.Clock) Option {
	return func(c *config) *config {
		c.clock = clock
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) *config {
		c.httpclient = hc
		return c
	}
}

// New builds a Console for cfg, and starts loading every binding.
//
// Everything stops when ctx is done or Close is called.
func New(ctx context.Context, cfg *configs.Config, options ...Option) (*Console, error) {
	if err := cfg.Verify(); err != nil {
		return nil, errors.WrapWithNote("config is not usable", err)
	}

	conf := &config{clock: clockwork.NewRealClock(), log: logger.Null(), httpclient: new(http.Client)}
	for _, o := range options {
		conf = o(conf)
	}

	ctx, cancel := context.WithCancel(ctx)

	reqOpts := []reqcache.Option{reqcache.WithClock(conf.clock), reqcache.WithLogger(conf.log)}
	if w := time.Duration(cfg.Cache.RequestWindow); 0 < w {
		reqOpts = append(reqOpts, reqcache.WithWindow(w))
	}
	requests := reqcache.New(ctx, reqOpts...)

	client, err := rest.NewClient(
		&cfg.Profile, requests,
		rest.WithHTTPClient(conf.httpclient), rest.WithLogger(conf.log),
	)
	if err != nil {
		cancel()
		return nil, errors.WrapWithNote("cannot create API client", err)
	}

	sessOpts := []session.Option{session.WithClock(conf.clock), session.WithLogger(conf.log)}
	if w := time.Duration(cfg.Cache.SessionWindow); 0 < w {
		sessOpts = append(sessOpts, session.WithWindow(w))
	}

	bopts := func(name string) []binding.Option {
		return []binding.Option{binding.WithName(name), binding.WithLogger(conf.log)}
	}

	return &Console{
		cancel:    cancel,
		Requests:  requests,
		Client:    client,
		Session:   session.New(ctx, client, sessOpts...),
		Dashboard: dashboard.New(ctx, dashboardSource{client}, dashboard.WithLogger(conf.log)),
		Cluster:   dashboard.NewCluster(ctx, client, dashboard.WithLogger(conf.log)),
		Users:     binding.New(ctx, binding.Ignore(client.Users), binding.None{}, bopts("users")...),
		Groups:    binding.New(ctx, binding.Ignore(client.Groups), binding.None{}, bopts("groups")...),
		Templates: binding.New(ctx, binding.Ignore(client.Templates), binding.None{}, bopts("templates")...),
		Pods:      binding.New(ctx, client.Pods, rest.PodQuery{}, bopts("pods")...),
		VMs:       binding.New(ctx, binding.Ignore(client.VMs), binding.None{}, bopts("vms")...),
	}, nil
}

// Close stops every binding and the caches.
func (c *Console) Close() {
	c.Dashboard.Close()
	c.Cluster.Close()
	c.Users.Close()
	c.Groups.Close()
	c.Templates.Close()
	c.Pods.Close()
	c.VMs.Close()
	c.cancel()
}

// dashboardSource counts pods of every namespace.
type dashboardSource struct {
	rest.Client
}

func (d dashboardSource) Pods(ctx context.Context) (pods.List, error) {
	return d.Client.Pods(ctx, rest.PodQuery{})
}
