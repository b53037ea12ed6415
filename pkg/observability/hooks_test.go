package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRouterHooks{}
	r.OnRouteStart(ctx, 0, 4)
	r.OnCandidate(ctx, 0, 12.5, nil)
	r.OnRouteComplete(ctx, 0, "routed", time.Millisecond, nil)

	p := NoopPipelineHooks{}
	p.OnLoadComplete(ctx, 2, 1, time.Millisecond, nil)
	p.OnRouteStageComplete(ctx, 1, 0, time.Second, nil)
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "route")
	c.OnCacheMiss(ctx, "render")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/route")
	h.OnResponse(ctx, "POST", "/v1/route", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Router().(NoopRouterHooks); !ok {
		t.Error("Router() should return NoopRouterHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customRouter := &testRouterHooks{}
	SetRouterHooks(customRouter)
	if Router() != customRouter {
		t.Error("SetRouterHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Router().(NoopRouterHooks); !ok {
		t.Error("Reset() should restore NoopRouterHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testRouterHooks{}
	SetRouterHooks(custom)
	SetRouterHooks(nil)

	if Router() != custom {
		t.Error("SetRouterHooks(nil) should be ignored")
	}
}

type testRouterHooks struct{ NoopRouterHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
