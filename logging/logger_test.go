package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-logger/glog"
)

func TestFmtLoggerWritesLogfmtLine(t *testing.T) {
	buf := &bytes.Buffer{}
	clock := func() time.Time { return time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC) }
	logger := WithFields(NewFmtLogger(buf, WithTimestamps(clock)), map[string]any{
		"url":     "/api/shipments/schema",
		"kind":    "submit",
		"form_id": "shipments",
		"origin":  "request schema",
	})

	logger.Info("dispatched %s", "submit")

	want := `time=2026-10-14T09:30:00Z level=info msg="dispatched submit" form_id=shipments kind=submit origin="request schema" url=/api/shipments/schema` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected line\n got: %q\nwant: %q", got, want)
	}
}

func TestFmtLoggerDropsEntriesBelowMinLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewFmtLogger(buf)

	logger.Debug("transition set field")
	logger.Trace("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected debug and trace to be dropped by default, got %q", buf.String())
	}

	logger.Warn("remote request failed")
	if !strings.Contains(buf.String(), "level=warn") {
		t.Fatalf("expected warn entry, got %q", buf.String())
	}

	buf.Reset()
	NewFmtLogger(buf, WithMinLevel(LevelTrace)).Debug("transition set field")
	if !strings.Contains(buf.String(), `level=debug msg="transition set field"`) {
		t.Fatalf("expected debug entry, got %q", buf.String())
	}
}

func TestFmtLoggerFieldsDoNotLeakBetweenCopies(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewFmtLogger(buf)
	_ = base.WithFields(map[string]any{"request_id": "r-1"})

	base.Info("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("fields leaked into the parent logger: %q", buf.String())
	}
}

func TestNormalizeFallsBackToFmtLogger(t *testing.T) {
	if _, ok := Normalize(nil).(*FmtLogger); !ok {
		t.Fatal("expected nil logger to normalize to FmtLogger")
	}
	if _, ok := Normalize(Nop{}).(Nop); !ok {
		t.Fatal("expected explicit logger to be kept")
	}
}

func TestWithFieldsOnLoggerWithoutFieldSupport(t *testing.T) {
	var l Logger = Nop{}
	if got := WithFields(l, map[string]any{"a": 1}); got != l {
		t.Fatal("expected logger without field support to be returned unchanged")
	}
}

func TestFromGlogForwardsStructuredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := glog.NewLogger(
		glog.WithWriter(buf),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel("trace"),
	)

	logger := WithFields(FromGlog(base), map[string]any{"request_id": "r-1"}).
		WithContext(context.Background())
	logger.Debug("options fetched")

	out := buf.String()
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected go-logger output")
	}
	if !strings.Contains(out, "request_id") {
		t.Fatalf("expected structured field in %q", out)
	}
}
