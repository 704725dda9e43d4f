package cron

import (
	"context"
	"slices"
)

// Job is a periodic maintenance task. Names are unique within a registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in the order they first registered.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds job, or swaps it in place of an earlier job with the same
// name. Nil is ignored so optional jobs can be passed straight through.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	idx := slices.IndexFunc(r.jobs, func(j Job) bool { return j.Name() == job.Name() })
	if idx >= 0 {
		r.jobs[idx] = job
		return
	}
	r.jobs = append(r.jobs, job)
}

func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name()
	}
	return names
}
