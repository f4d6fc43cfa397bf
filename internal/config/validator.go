package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var jobNameRe = regexp.MustCompile(`^[\w-]+$`)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("config validation errors")

// Validate checks the pipeline for:
//   - At least one job
//   - Job names that are non-empty and match the job name grammar
//   - Blank requires or workflow entries
//
// It deliberately does not reject unknown requires targets or cycles; those
// are graph properties and are reported by the dag package.
func Validate(cfg *PipelineConfig) error {
	if cfg == nil || cfg.Jobs.Len() == 0 {
		return fmt.Errorf("%w: at least one job is required", ErrInvalid)
	}
	var errs []string

	for _, name := range cfg.Jobs.Names() {
		if name == "" {
			errs = append(errs, "jobs: empty job name")
			continue
		}
		if !jobNameRe.MatchString(name) {
			errs = append(errs, fmt.Sprintf("job %q: name must match %s", name, jobNameRe))
		}
		job, _ := cfg.Jobs.Get(name)
		for i, req := range job.Requires {
			if strings.TrimSpace(req) == "" {
				errs = append(errs, fmt.Sprintf("job %s: requires[%d] is empty", name, i))
			}
		}
	}
	for i, name := range cfg.Workflow {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("workflow[%d] is empty", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}
