package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the top-level pipeline document.
type PipelineConfig struct {
	Jobs     Jobs       `yaml:"jobs" json:"jobs"`
	Workflow []string   `yaml:"workflow,omitempty" json:"workflow,omitempty"` // legacy linear order; nil = use job order
	Engine   EngineConf `yaml:"engine,omitempty" json:"engine,omitempty"`
}

// EngineConf holds tunable concurrency settings for the trigger engine.
type EngineConf struct {
	TriggerWorkers   int `yaml:"trigger_workers" json:"trigger_workers"`
	QueueDepth       int `yaml:"queue_depth" json:"queue_depth"`
	TriggerTimeoutMs int `yaml:"trigger_timeout_ms" json:"trigger_timeout_ms"`
}

// Job is a single job definition. Only the fields that shape the workflow
// graph are modelled; everything else in the document is ignored.
type Job struct {
	// Requires is nil when the job does not declare requires at all.
	// A declared empty list is non-nil.
	Requires StringList `yaml:"requires,omitempty" json:"requires"`
}

// StringList accepts either a single scalar or a sequence of scalars.
type StringList []string

// IsZero lets yaml omit an undeclared list while still writing a declared empty one.
func (s StringList) IsZero() bool { return s == nil }

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil
		}
		*s = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: requires entries must be strings", item.Line)
			}
			out = append(out, item.Value)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("line %d: requires must be a string or a list of strings", value.Line)
	}
}

func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("requires must be a string or a list of strings: %w", err)
	}
	if many == nil {
		many = []string{}
	}
	*s = many
	return nil
}

// Jobs is an insertion-ordered map of job name to Job. Declaration order is
// significant: legacy workflows chain jobs in the order they were written.
type Jobs struct {
	order  []string
	byName map[string]Job
}

// NewJobs builds a Jobs map from entries kept in the given order.
func NewJobs(entries ...JobEntry) Jobs {
	var j Jobs
	for _, e := range entries {
		j.Set(e.Name, e.Job)
	}
	return j
}

// JobEntry is a name/job pair used to construct Jobs in code.
type JobEntry struct {
	Name string
	Job  Job
}

// Set adds or replaces a job. Replacing keeps the original position.
func (j *Jobs) Set(name string, job Job) {
	if j.byName == nil {
		j.byName = make(map[string]Job)
	}
	if _, ok := j.byName[name]; !ok {
		j.order = append(j.order, name)
	}
	j.byName[name] = job
}

// Get returns the job registered under name.
func (j Jobs) Get(name string) (Job, bool) {
	job, ok := j.byName[name]
	return job, ok
}

// Names returns job names in declaration order.
func (j Jobs) Names() []string {
	out := make([]string, len(j.order))
	copy(out, j.order)
	return out
}

// Len returns the number of jobs.
func (j Jobs) Len() int { return len(j.order) }

// DeclaresRequires reports whether any job declares a requires list,
// even an empty one.
func (j Jobs) DeclaresRequires() bool {
	for _, name := range j.order {
		if j.byName[name].Requires != nil {
			return true
		}
	}
	return false
}

func (j *Jobs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: jobs must be a mapping", value.Line)
	}
	*j = Jobs{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		var job Job
		if body.Tag != "!!null" {
			if err := body.Decode(&job); err != nil {
				return fmt.Errorf("job %s: %w", key.Value, err)
			}
		}
		j.Set(key.Value, job)
	}
	return nil
}

func (j Jobs) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range j.order {
		var body yaml.Node
		if err := body.Encode(j.byName[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&body,
		)
	}
	return node, nil
}

// UnmarshalJSON decodes a JSON object token by token so key order survives.
func (j *Jobs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("jobs must be an object")
	}
	*j = Jobs{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("jobs: unexpected key %v", tok)
		}
		var job Job
		if err := dec.Decode(&job); err != nil {
			return fmt.Errorf("job %s: %w", name, err)
		}
		j.Set(name, job)
	}
	_, err = dec.Token()
	return err
}

func (j Jobs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range j.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(j.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
