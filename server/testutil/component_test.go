package testutil

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/testutil"
)

func TestComponentServesRoutes(t *testing.T) {
	calls := 0
	comp := NewComponent(func(r gin.IRouter) {
		r.GET("/ping", func(c *gin.Context) {
			calls++
			c.String(http.StatusOK, "pong")
		})
	})
	if comp.BaseURL() != "" {
		t.Fatal("BaseURL should be empty before Start")
	}
	testutil.Start(t, comp)

	resp, err := http.Get(comp.BaseURL() + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" || resp.Header.Get("X-Request-Id") == "" {
		t.Errorf("body = %q, request id = %q", body, resp.Header.Get("X-Request-Id"))
	}
	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("health = %s", h.Status)
	}

	before := comp.BaseURL()
	testutil.Reset(t, comp)
	if comp.BaseURL() == before {
		t.Error("Reset should start a new listener")
	}
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}
