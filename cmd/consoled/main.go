package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/podconsole/cmd/consoled/handlers"
	configs "github.com/opst/podconsole/pkg/configs/console"
	"github.com/opst/podconsole/pkg/console"
	"github.com/opst/podconsole/pkg/echoutil"
	"github.com/opst/podconsole/pkg/logger"
	"github.com/opst/podconsole/pkg/utils/filewatch"
)

// errRestart tells the config file is updated and the server should start over.
var errRestart = errors.New("config file is updated")

type flags struct {
	configPath string
	loglevel   string
	cert       string
	certkey    string
}

func main() {
	f := flags{}
	flag.StringVar(&f.configPath, "config-path", "", "console config path (*.yaml or *.toml)")
	flag.StringVar(&f.loglevel, "loglevel", "", "log level. debug|info|warn|error|off . overrides the config file")
	flag.StringVar(&f.cert, "cert", "", "certification file for TLS")
	flag.StringVar(&f.certkey, "certkey", "", "key of certification file for TLS")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		err := serve(ctx, f)
		if errors.Is(err, errRestart) {
			log.Println("config file is updated. restarting server.")
			continue
		}
		if err != nil {
			log.Fatalf("server stopped: %s", err)
		}
		return
	}
}

// serve runs the console server until ctx is done or the config file is updated.
func serve(ctx context.Context, f flags) error {
	conf, err := configs.Load(f.configPath)
	if err != nil {
		return err
	}

	wctx, cancel, err := filewatch.UntilModifyContext(ctx, f.configPath)
	if err != nil {
		return err
	}
	defer cancel()

	loglevel := conf.LogLevel
	if f.loglevel != "" {
		loglevel = f.loglevel
	}

	l := logger.Default("consoled")
	e := echo.New()
	e.HideBanner = true
	e.Logger = l
	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(middleware.Recover())
	e.Use(echoutil.LogHandlerFunc)

	c, err := console.New(wctx, conf, console.WithLogger(l))
	if err != nil {
		return err
	}
	defer c.Close()

	handlers.Register(e.Group("/api"), c)

	log.Println("registered routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	served := make(chan error, 1)
	go func() {
		addr := ":" + conf.ServerPort
		if f.cert != "" && f.certkey != "" {
			served <- e.StartTLS(addr, f.cert, f.certkey)
		} else {
			served <- e.Start(addr)
		}
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-wctx.Done():
	}

	graceful, gcancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer gcancel()
	if err := e.Shutdown(graceful); err != nil {
		l.Warnf("error on shutdown: %s", err)
	}
	<-served

	if mod := new(filewatch.ModifiedError); errors.As(context.Cause(wctx), &mod) {
		return errRestart
	}
	return nil
}
