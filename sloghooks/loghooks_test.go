package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestHooks(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestSelfHealIsSampledAndRedacted(t *testing.T) {
	h, buf := newTestHooks(Options{SelfHealEvery: 3})

	for i := 0; i < 6; i++ {
		h.SelfHeal("entry:ns:secret-key", "corrupt")
	}
	if n := strings.Count(buf.String(), "spillcache.self_heal"); n != 2 {
		t.Fatalf("expected 2 sampled lines, got %d:\n%s", n, buf.String())
	}
	if strings.Contains(buf.String(), "secret-key") {
		t.Fatalf("key leaked into logs: %s", buf.String())
	}
}

func TestCustomRedactor(t *testing.T) {
	h, buf := newTestHooks(Options{Redact: func(string) string { return "<k>" }})
	h.ProviderSetRejected("entry:ns:abc")
	if !strings.Contains(buf.String(), "key=<k>") {
		t.Fatalf("custom redactor not used: %s", buf.String())
	}
}

func TestWorkerFaultLogsError(t *testing.T) {
	h, buf := newTestHooks(Options{})
	h.WorkerFault("get", errors.New("disk I/O error"))
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "op=get") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.WorkerFault("set", errors.New("x"))
	h.SelfHeal("k", "corrupt")
	h.ProviderSetRejected("k")
	h.StoreClosed("set")
}
