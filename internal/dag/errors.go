package dag

import "errors"

// Call-contract errors. Graph content never produces an error: a cyclic or
// disconnected graph is still a valid Graph.
var (
	// ErrConfiguration is returned by Build when no job configuration is supplied.
	ErrConfiguration = errors.New("no job config provided")
	// ErrMissingTrigger is returned when a trigger descriptor has no trigger.
	ErrMissingTrigger = errors.New("must provide a trigger")
	// ErrMissingPRNumber is returned for a ~pr trigger without a PR number.
	ErrMissingPRNumber = errors.New(`must provide a PR number with "~pr" trigger`)
	// ErrMissingJobName is returned by join queries without a job name.
	ErrMissingJobName = errors.New("must provide a job name")
)
