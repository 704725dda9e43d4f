package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	jobA := &stubJob{name: "cart-ttl"}
	jobB := &stubJob{name: "revision-audit"}
	registry := NewRegistry(jobA, nil)
	registry.Register(jobB)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
	if names := registry.Names(); len(names) != 2 || names[1] != "revision-audit" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryReplacesSameName(t *testing.T) {
	first := &stubJob{name: "cart-ttl"}
	audit := &stubJob{name: "revision-audit"}
	second := &stubJob{name: "cart-ttl"}

	registry := NewRegistry(first, audit, second)
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != second {
		t.Fatalf("expected later job to replace earlier one in place")
	}
	if jobs[1] != audit {
		t.Fatalf("order changed")
	}
}
