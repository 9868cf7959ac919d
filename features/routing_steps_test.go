package features

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	webkit "github.com/letswire/webkit"
)

type routingWorld struct {
	router  *webkit.Router
	handler webkit.Handler
	resp    webkit.Response
	log     []string
}

func (w *routingWorld) reset(*godog.Scenario) {
	w.router = webkit.NewRouter()
	w.handler = nil
	w.resp = webkit.Response{}
	w.log = nil
}

func (w *routingWorld) baseHandler() webkit.Handler {
	return func(req webkit.Request) (webkit.Response, error) {
		return w.router.Route(req)
	}
}

func (w *routingWorld) aRouterWithGETUsersIDReturningTheIDAsJSON() error {
	return w.router.Handle("GET", "/users/:id", func(req webkit.Request) (webkit.Response, error) {
		id, _ := req.Param("id")
		return webkit.JSONResponse(200, map[string]string{"userId": id})
	})
}

func (w *routingWorld) iRequestGET(path string) error {
	h := w.handler
	if h == nil {
		h = w.baseHandler()
	}
	req := webkit.NewTestRequest("GET", path, nil, nil)
	resp, err := h(req)
	w.resp = resp
	return err
}

func (w *routingWorld) theStatusIs(status int) error {
	if w.resp.Status() != status {
		return fmt.Errorf("expected status %d, got %d", status, w.resp.Status())
	}
	return nil
}

func (w *routingWorld) theBodyIs(body string) error {
	if string(w.resp.Body()) != body {
		return fmt.Errorf("expected body %s, got %s", body, string(w.resp.Body()))
	}
	return nil
}

func (w *routingWorld) aHandlerAtGETHReturningStatus(status int) error {
	return w.router.Handle("GET", "/h", func(req webkit.Request) (webkit.Response, error) {
		w.log = append(w.log, "handler")
		return webkit.NewResponse(status, nil), nil
	})
}

func (w *routingWorld) middlewareM1AndM2ComposedAroundItInThatOrder() error {
	m1 := func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			w.log = append(w.log, "1-pre")
			resp, err := next(req)
			w.log = append(w.log, "1-post")
			return resp, err
		}
	}
	m2 := func(next webkit.Handler) webkit.Handler {
		return func(req webkit.Request) (webkit.Response, error) {
			w.log = append(w.log, "2-pre")
			resp, err := next(req)
			w.log = append(w.log, "2-post")
			return resp, err
		}
	}
	w.handler = webkit.Compose(w.baseHandler(), m1, m2)
	return nil
}

func (w *routingWorld) theMiddlewareLogIs(expected string) error {
	got := ""
	for i, s := range w.log {
		if i > 0 {
			got += ","
		}
		got += s
	}
	if got != expected {
		return fmt.Errorf("expected log %q, got %q", expected, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	w := &routingWorld{}
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		w.reset(sc)
		return c, nil
	})

	ctx.Step(`^a router with GET /users/:id returning the id as JSON$`, w.aRouterWithGETUsersIDReturningTheIDAsJSON)
	ctx.Step(`^I request GET /users/42$`, func() error { return w.iRequestGET("/users/42") })
	ctx.Step(`^I request GET /h$`, func() error { return w.iRequestGET("/h") })
	ctx.Step(`^the status is (\d+)$`, w.theStatusIs)
	ctx.Step(`^the body is (.*)$`, w.theBodyIs)
	ctx.Step(`^a handler at GET /h returning status (\d+)$`, w.aHandlerAtGETHReturningStatus)
	ctx.Step(`^middleware M1 and M2 composed around it in that order$`, w.middlewareM1AndM2ComposedAroundItInThatOrder)
	ctx.Step(`^the middleware log is "([^"]*)"$`, w.theMiddlewareLogIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"routing.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned from godog suite")
	}
}
