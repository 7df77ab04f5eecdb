// Package rest is the client of the platform API.
//
// Reads go through a reqcache.Cache, so the same request made by many callers
// in a short time is sent once.
package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/opst/podconsole/pkg/api/types/metrics"
	"github.com/opst/podconsole/pkg/api/types/pods"
	"github.com/opst/podconsole/pkg/api/types/templates"
	"github.com/opst/podconsole/pkg/api/types/users"
	"github.com/opst/podconsole/pkg/api/types/vms"
	configs "github.com/opst/podconsole/pkg/configs/console"
	"github.com/opst/podconsole/pkg/logger"
	"github.com/opst/podconsole/pkg/reqcache"
)

// HeaderRequestId is the header to correlate a request with server logs.
const HeaderRequestId = "X-Request-Id"

type Client interface {
	// Users lists users.
	Users(ctx context.Context) (users.List, error)

	// Groups lists user groups.
	Groups(ctx context.Context) (users.GroupList, error)

	// Templates lists pod templates.
	Templates(ctx context.Context) (templates.List, error)

	// Pods lists deployed pods matching query.
	Pods(ctx context.Context, query PodQuery) (pods.List, error)

	// VMs lists virtual machines.
	VMs(ctx context.Context) (vms.List, error)

	// ClusterResources reports resources of each node.
	ClusterResources(ctx context.Context) (metrics.ClusterResources, error)

	// NodeResources reports resources of the named node.
	NodeResources(ctx context.Context, name string) (metrics.NodeResources, error)

	// SessionRequest returns the request checking who the client is.
	SessionRequest() reqcache.Fetch

	// Logout ends the session.
	//
	// Only transport failures are reported; the response is not inspected.
	Logout(ctx context.Context) error

	// StartVM starts the virtual machine, and forgets cached VM lists.
	StartVM(ctx context.Context, id string) (vms.VirtualMachine, error)

	// StopVM stops the virtual machine, and forgets cached VM lists.
	StopVM(ctx context.Context, id string) (vms.VirtualMachine, error)
}

// PodQuery narrows down pods. Empty fields are not used.
type PodQuery struct {
	Namespace string
	Template  string
	Owner     string
	Phase     string
}

func (q PodQuery) values() url.Values {
	v := url.Values{}
	for k, val := range map[string]string{
		"namespace": q.Namespace,
		"template":  q.Template,
		"owner":     q.Owner,
		"phase":     q.Phase,
	} {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

type client struct {
	httpclient *http.Client
	api        string
	cache      *reqcache.Cache
	log        *log.Logger
}

type config struct {
	httpclient *http.Client
	log        *log.Logger
}

type Option func(*config) *config

// WithHTTPClient replaces the base http.Client. CA of the profile is added to its copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) *config {
		c.httpclient = hc
		return c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

func NewClient(prof *configs.Profile, cache *reqcache.Cache, options ...Option) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	conf := &config{httpclient: new(http.Client), log: logger.Null()}
	for _, o := range options {
		conf = o(conf)
	}

	httpclient := *conf.httpclient
	hc := &httpclient
	if prof.Cert.CA != "" {
		_hc, err := trustCa(hc, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		hc = _hc
	}

	return &client{
		httpclient: hc,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		cache:      cache,
		log:        conf.log,
	}, nil
}

func (c *client) apipath(path ...string) string {
	trimmed := make([]string, 0, len(path)+1)
	trimmed = append(trimmed, c.api)
	for _, p := range path {
		trimmed = append(trimmed, strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/"))
	}
	return strings.Join(trimmed, "/")
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}

// request builds a Fetch sending method to the endpoint.
//
// Each call of the Fetch is a new request with its own request id.
func (c *client) request(method string, endpoint string, query url.Values) reqcache.Fetch {
	u := endpoint
	if len(query) != 0 {
		u += "?" + query.Encode()
	}
	return func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, u, nil)
		if err != nil {
			return nil, err
		}
		rid := uuid.NewString()
		req.Header.Set(HeaderRequestId, rid)
		req.Header.Set("Accept", "application/json")
		c.log.Debugf("%s %s (%s: %s)", method, u, HeaderRequestId, rid)
		return c.httpclient.Do(req)
	}
}

// cacheKey is the path under api root and the query, sorted by key.
func cacheKey(path []string, query url.Values) string {
	key := strings.Join(path, "/")
	if len(query) != 0 {
		key += "?" + query.Encode()
	}
	return key
}

// get sends GET for path through the cache, and waits for the response until ctx is done.
func get[T any](ctx context.Context, c *client, query url.Values, path ...string) (T, error) {
	key := cacheKey(path, query)
	fetch := c.request(http.MethodGet, c.apipath(path...), query)
	return reqcache.Acquire[T](c.cache, key, fetch).Await(ctx)
}

// send issues method for path without cache, and decodes the JSON response into T.
func send[T any](ctx context.Context, c *client, method string, path ...string) (T, error) {
	var zero T
	resp, err := c.request(method, c.apipath(path...), nil)(ctx)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if err := reqcache.Validate(resp); err != nil {
		return zero, err
	}
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return zero, &reqcache.DecodeError{Status: resp.StatusCode, Err: err}
	}
	return v, nil
}

func (c *client) Users(ctx context.Context) (users.List, error) {
	return get[users.List](ctx, c, nil, "users")
}

func (c *client) Groups(ctx context.Context) (users.GroupList, error) {
	return get[users.GroupList](ctx, c, nil, "groups")
}

func (c *client) Templates(ctx context.Context) (templates.List, error) {
	return get[templates.List](ctx, c, nil, "templates")
}

func (c *client) Pods(ctx context.Context, query PodQuery) (pods.List, error) {
	return get[pods.List](ctx, c, query.values(), "pods")
}

func (c *client) VMs(ctx context.Context) (vms.List, error) {
	return get[vms.List](ctx, c, nil, "vms")
}

func (c *client) ClusterResources(ctx context.Context) (metrics.ClusterResources, error) {
	return get[metrics.ClusterResources](ctx, c, nil, "cluster", "resources")
}

func (c *client) NodeResources(ctx context.Context, name string) (metrics.NodeResources, error) {
	return get[metrics.NodeResources](ctx, c, nil, "cluster", "nodes", url.PathEscape(name), "resources")
}

func (c *client) SessionRequest() reqcache.Fetch {
	return c.request(http.MethodGet, c.apipath("auth", "session"), nil)
}

func (c *client) Logout(ctx context.Context) error {
	resp, err := c.request(http.MethodPost, c.apipath("auth", "logout"), nil)(ctx)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *client) StartVM(ctx context.Context, id string) (vms.VirtualMachine, error) {
	return c.changeVM(ctx, id, "start")
}

func (c *client) StopVM(ctx context.Context, id string) (vms.VirtualMachine, error) {
	return c.changeVM(ctx, id, "stop")
}

func (c *client) changeVM(ctx context.Context, id string, action string) (vms.VirtualMachine, error) {
	vm, err := send[vms.VirtualMachine](ctx, c, http.MethodPost, "vms", url.PathEscape(id), action)
	if err != nil {
		return vms.VirtualMachine{}, err
	}
	c.cache.InvalidatePrefix("vms")
	c.log.Infof("vm %s: %s -> %s", id, action, vm.Status)
	return vm, nil
}
