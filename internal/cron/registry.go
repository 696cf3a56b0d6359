package cron

import "context"

// Job is one maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order. Job names label metrics and
// logs, so a second job with a taken name is dropped.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with jobs. Nil entries are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds job and reports whether it was accepted.
func (r *Registry) Register(job Job) bool {
	if job == nil {
		return false
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, taken := r.names[job.Name()]; taken {
		return false
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
	return true
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Names lists job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
