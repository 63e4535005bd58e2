package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnAuditStart(ctx, "/home/alice/sandbox")
	e.OnAuditComplete(ctx, "/home/alice/sandbox", 2, time.Second, nil)
	e.OnInstallStart(ctx, "/home/alice/sandbox", []string{"numpy"})
	e.OnInstallComplete(ctx, "/home/alice/sandbox", []string{"numpy"}, time.Second, nil)
	e.OnRunStart(ctx, "/home/alice/sandbox", "main.py")
	e.OnRunComplete(ctx, "/home/alice/sandbox", "main.py", "completed", time.Second)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "packages")
	c.OnCacheMiss(ctx, "packages")
	c.OnCacheSet(ctx, "packages", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/audit")
	h.OnResponse(ctx, "POST", "/audit", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
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

	// Reset and verify
	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEngineHooks{}
	SetEngineHooks(custom)

	// Setting nil should be ignored
	SetEngineHooks(nil)

	if Engine() != custom {
		t.Error("SetEngineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEngineHooks struct{ NoopEngineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
