package rest_test

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	testctx "github.com/opst/podconsole/internal/testutils/context"
	testhttp "github.com/opst/podconsole/internal/testutils/http"
	"github.com/opst/podconsole/pkg/api/types/users"
	"github.com/opst/podconsole/pkg/api/types/vms"
	configs "github.com/opst/podconsole/pkg/configs/console"
	"github.com/opst/podconsole/pkg/reqcache"
	"github.com/opst/podconsole/pkg/rest"
	"github.com/opst/podconsole/pkg/utils/try"
)

func routes(bodies map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, ok := bodies[req.Method+" "+req.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"reason": "no such endpoint"}`))
			return
		}
		w.Write([]byte(body))
	}
}

func setup(t *testing.T, bodies map[string]string) (rest.Client, *testhttp.Platform) {
	t.Helper()
	platform := testhttp.NewPlatform(t, bodies)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cache := reqcache.New(ctx)

	client := try.To(rest.NewClient(&configs.Profile{ApiRoot: platform.ApiRoot() + "/"}, cache)).OrFatal(t)
	return client, platform
}

func TestNewClient(t *testing.T) {
	t.Run("it rejects invalid profile", func(t *testing.T) {
		_, err := rest.NewClient(&configs.Profile{ApiRoot: "not/a/url"}, reqcache.New(context.Background()))
		if !errors.Is(err, configs.ErrProfileInvalid) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it trusts CA in the profile", func(t *testing.T) {
		server := httptest.NewTLSServer(routes(map[string]string{
			"GET /api/users": `{"users": [{"id": "u1", "username": "alice", "isAdmin": false, "createdAt": "2024-01-02T03:04:05Z"}]}`,
		}))
		defer server.Close()

		ca := base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{
			Type: "CERTIFICATE", Bytes: server.Certificate().Raw,
		}))
		client := try.To(rest.NewClient(
			&configs.Profile{ApiRoot: server.URL + "/api", Cert: configs.Cert{CA: ca}},
			reqcache.New(context.Background()),
		)).OrFatal(t)

		ctx := testctx.WithTest(context.Background(), t)
		actual := try.To(client.Users(ctx)).OrFatal(t)
		if len(actual.Users) != 1 || actual.Users[0].Username != "alice" {
			t.Errorf("unexpected users: %+v", actual)
		}
	})

	t.Run("without the CA, TLS server is not trusted", func(t *testing.T) {
		server := httptest.NewTLSServer(routes(map[string]string{}))
		defer server.Close()

		client := try.To(rest.NewClient(
			&configs.Profile{ApiRoot: server.URL + "/api"}, reqcache.New(context.Background()),
		)).OrFatal(t)

		ctx := testctx.WithTest(context.Background(), t)
		if _, err := client.Users(ctx); err == nil {
			t.Error("no error")
		}
	})
}

func TestReads(t *testing.T) {
	t.Run("concurrent reads of an endpoint are sent once", func(t *testing.T) {
		client, rec := setup(t, map[string]string{
			"GET /api/users": `{"users": [{"id": "u1", "username": "alice", "isAdmin": true, "createdAt": "2024-01-02T03:04:05Z"}]}`,
		})
		release := rec.Hold("GET /api/users")

		ctx := testctx.WithTest(context.Background(), t)
		results := make([]users.List, 3)
		errs := make([]error, 3)
		wg := sync.WaitGroup{}
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = client.Users(ctx)
			}(i)
		}
		release()
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("read #%d failed: %v", i, err)
			}
		}

		if n := rec.Count("GET /api/users"); n != 1 {
			t.Errorf("request is sent %d times", n)
		}
		for i := range results {
			if !results[i].Equal(results[0]) || len(results[i].Users) != 1 {
				t.Errorf("result #%d differs: %+v", i, results[i])
			}
		}
	})

	t.Run("requests carry a request id", func(t *testing.T) {
		client, rec := setup(t, map[string]string{"GET /api/groups": `{"groups": []}`})

		ctx := testctx.WithTest(context.Background(), t)
		try.To(client.Groups(ctx)).OrFatal(t)

		rid := rec.Last().Header.Get(rest.HeaderRequestId)
		if _, err := uuid.Parse(rid); err != nil {
			t.Errorf("request id is not uuid: %q", rid)
		}
	})

	t.Run("pod queries are cached per query, regardless of field order", func(t *testing.T) {
		client, rec := setup(t, map[string]string{"GET /api/pods": `{"pods": []}`})
		ctx := testctx.WithTest(context.Background(), t)

		try.To(client.Pods(ctx, rest.PodQuery{Namespace: "ns", Owner: "alice"})).OrFatal(t)
		try.To(client.Pods(ctx, rest.PodQuery{Owner: "alice", Namespace: "ns"})).OrFatal(t)
		try.To(client.Pods(ctx, rest.PodQuery{Namespace: "other"})).OrFatal(t)

		if n := rec.Count("GET /api/pods?namespace=ns&owner=alice"); n != 1 {
			t.Errorf("query (ns, alice) is sent %d times", n)
		}
		if n := rec.Count("GET /api/pods?namespace=other"); n != 1 {
			t.Errorf("query (other) is sent %d times", n)
		}
	})

	t.Run("node resources are read by node name", func(t *testing.T) {
		client, rec := setup(t, map[string]string{
			"GET /api/cluster/nodes/node-a/resources": `{
				"name": "node-a",
				"cpu": {"capacity": "4", "used": "1500m"},
				"memory": {"capacity": "8Gi", "used": "1Gi"},
				"pods": {"capacity": "110", "used": "3"}
			}`,
		})
		ctx := testctx.WithTest(context.Background(), t)

		actual := try.To(client.NodeResources(ctx, "node-a")).OrFatal(t)
		if actual.Name != "node-a" || actual.CPU.Used.MilliValue() != 1500 {
			t.Errorf("unexpected resources: %+v", actual)
		}
		if n := rec.Count("GET /api/cluster/nodes/node-a/resources"); n != 1 {
			t.Errorf("request is sent %d times", n)
		}
	})

	t.Run("non-2xx response is StatusError with the reason from the server", func(t *testing.T) {
		client, _ := setup(t, map[string]string{})
		ctx := testctx.WithTest(context.Background(), t)

		_, err := client.Templates(ctx)
		serr := new(reqcache.StatusError)
		if !errors.As(err, &serr) {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := &reqcache.StatusError{Status: 404, StatusText: "Not Found", Reason: "no such endpoint"}
		if diff := cmp.Diff(expected, serr); diff != "" {
			t.Errorf("error (-want +got):\n%s", diff)
		}
	})

	t.Run("malformed body is DecodeError", func(t *testing.T) {
		client, _ := setup(t, map[string]string{"GET /api/vms": `{"vms": [`})
		ctx := testctx.WithTest(context.Background(), t)

		_, err := client.VMs(ctx)
		derr := new(reqcache.DecodeError)
		if !errors.As(err, &derr) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("SessionRequest asks auth/session, every time it is called", func(t *testing.T) {
		client, rec := setup(t, map[string]string{
			"GET /api/auth/session": `{"authenticated": true, "username": "alice"}`,
		})
		ctx := testctx.WithTest(context.Background(), t)

		fetch := client.SessionRequest()
		for i := 0; i < 2; i++ {
			resp := try.To(fetch(ctx)).OrFatal(t)
			resp.Body.Close()
		}
		if n := rec.Count("GET /api/auth/session"); n != 2 {
			t.Errorf("request is sent %d times", n)
		}
	})

	t.Run("Logout posts auth/logout, and ignores the status", func(t *testing.T) {
		client, rec := setup(t, map[string]string{})
		ctx := testctx.WithTest(context.Background(), t)

		if err := client.Logout(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if n := rec.Count("POST /api/auth/logout"); n != 1 {
			t.Errorf("request is sent %d times", n)
		}
	})
}

func TestVMActions(t *testing.T) {
	for name, testcase := range map[string]struct {
		action func(rest.Client, context.Context, string) (vms.VirtualMachine, error)
		path   string
		status string
	}{
		"StartVM": {action: rest.Client.StartVM, path: "/api/vms/v1/start", status: vms.StatusRunning},
		"StopVM":  {action: rest.Client.StopVM, path: "/api/vms/v1/stop", status: vms.StatusStopped},
	} {
		t.Run(name+" posts the action, and following VMs reads the list again", func(t *testing.T) {
			client, rec := setup(t, map[string]string{
				"GET /api/vms":          `{"vms": [{"id": "v1", "name": "vm-1", "status": "starting"}]}`,
				"POST " + testcase.path: `{"id": "v1", "name": "vm-1", "status": "` + testcase.status + `"}`,
			})
			ctx := testctx.WithTest(context.Background(), t)

			try.To(client.VMs(ctx)).OrFatal(t)
			vm := try.To(testcase.action(client, ctx, "v1")).OrFatal(t)
			if vm.Status != testcase.status {
				t.Errorf("unexpected vm: %+v", vm)
			}
			try.To(client.VMs(ctx)).OrFatal(t)

			if n := rec.Count("POST " + testcase.path); n != 1 {
				t.Errorf("action is sent %d times", n)
			}
			if n := rec.Count("GET /api/vms"); n != 2 {
				t.Errorf("vms are read %d times", n)
			}
		})
	}

	t.Run("failed action keeps the cached list", func(t *testing.T) {
		client, rec := setup(t, map[string]string{
			"GET /api/vms": `{"vms": [{"id": "v1", "name": "vm-1", "status": "stopped"}]}`,
		})
		ctx := testctx.WithTest(context.Background(), t)

		try.To(client.VMs(ctx)).OrFatal(t)
		if _, err := client.StartVM(ctx, "v1"); err == nil {
			t.Error("no error")
		}
		try.To(client.VMs(ctx)).OrFatal(t)

		if n := rec.Count("GET /api/vms"); n != 1 {
			t.Errorf("vms are read %d times", n)
		}
	})
}
