package main

import (
	"errors"
	"testing"

	"github.com/momentics/evserve/api"
)

func TestBuildScheduler(t *testing.T) {
	deps, err := newRuntimeDeps("error")
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"fanout", "pool", "multiplexer"} {
		s, err := deps.buildScheduler(kind, 2, kind == "pool")
		if err != nil || s == nil {
			t.Fatalf("%s: %v", kind, err)
		}
		s.Close()
	}
	if s, err := deps.buildScheduler("inline", 2, false); err != nil || s != nil {
		t.Fatalf("inline: %v, %v", s, err)
	}
	if _, err := deps.buildScheduler("pool", 0, false); !errors.Is(err, api.ErrInvalidWorkerCount) {
		t.Fatalf("expected ErrInvalidWorkerCount, got %v", err)
	}
	if _, err := deps.buildScheduler("lottery", 2, false); err == nil {
		t.Fatal("expected error for unknown scheduler")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("chatty"); err == nil {
		t.Fatal("expected error")
	}
}
