package listener

import "testing"

func TestContextReadinessFlags(t *testing.T) {
	ctx := NewContext(1)
	if ctx.MetadataReady() || ctx.ConstantPoolsReady() {
		t.Fatal("expected both readiness flags false initially")
	}
	ctx.setMetadataReady()
	if !ctx.MetadataReady() {
		t.Fatal("expected metadata ready after setMetadataReady")
	}
	ctx.setConstantPoolsReady()
	if !ctx.ConstantPoolsReady() {
		t.Fatal("expected pools ready after setConstantPoolsReady")
	}
}

func TestContextBag(t *testing.T) {
	ctx := NewContext(1)
	if _, ok := ctx.Get("missing"); ok {
		t.Fatal("expected miss on empty bag")
	}
	ctx.Put("k", 42)
	v, ok := ctx.Get("k")
	if !ok || v != 42 {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestNopListenerDefaultsTrue(t *testing.T) {
	var l Listener = NopListener{}
	if !l.OnRecordingStart() || !l.OnChunkStart(nil) || !l.OnMetadata(nil) ||
		!l.OnCheckpoint(nil) || !l.OnEvent(nil, 0, 0, 0, 0) || !l.OnChunkEnd(nil, false) ||
		!l.OnRecordingEnd() {
		t.Fatal("expected every NopListener callback to default to true")
	}
}
