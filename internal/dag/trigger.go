package dag

import (
	"fmt"
	"regexp"
	"strings"
)

// Event sentinels.
const (
	SentinelPR      = "~pr"
	SentinelCommit  = "~commit"
	SentinelRelease = "~release"
	SentinelTag     = "~tag"
)

// Sentinels lists every event sentinel seeded into a graph, in order.
var Sentinels = []string{SentinelPR, SentinelCommit, SentinelRelease, SentinelTag}

const eventPR = "pr"

var (
	branchRe  = regexp.MustCompile(`^~(pr|commit):(.+)$`)
	prChainRe = regexp.MustCompile(`^PR-(\d+):(.+)$`)
)

// Descriptor describes an incoming event as received from the caller.
type Descriptor struct {
	Trigger string `json:"trigger" yaml:"trigger"`
	PRNum   string `json:"pr_num,omitempty" yaml:"pr_num,omitempty"`
	// PRChain marks a plain job trigger as running inside the PRNum namespace.
	PRChain bool `json:"pr_chain,omitempty" yaml:"pr_chain,omitempty"`
}

// Kind discriminates parsed triggers.
type Kind int

const (
	KindJob     Kind = iota // plain job name: "main"
	KindEvent               // bare sentinel or external reference: "~commit", "~sd@12:main"
	KindBranch              // branch-scoped event: "~commit:master", "~pr:feature-1"
	KindPRChain             // job inside a PR namespace: "PR-12:main"
)

func (k Kind) String() string {
	switch k {
	case KindJob:
		return "job"
	case KindEvent:
		return "event"
	case KindBranch:
		return "branch"
	case KindPRChain:
		return "pr_chain"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Trigger is a Descriptor parsed once into its variant.
type Trigger struct {
	Kind   Kind
	Name   string // raw trigger text
	Event  string // "pr" or "commit" (KindBranch)
	Branch string // branch value (KindBranch)
	Job    string // unscoped job name (KindPRChain)
	PRNum  string
}

// ParseTrigger validates d and classifies its trigger.
func ParseTrigger(d Descriptor) (Trigger, error) {
	name := d.Trigger
	if name == "" {
		return Trigger{}, ErrMissingTrigger
	}
	t := Trigger{Name: name, PRNum: d.PRNum}

	if m := prChainRe.FindStringSubmatch(name); m != nil {
		t.Kind = KindPRChain
		t.PRNum = m[1]
		t.Job = m[2]
		return t, nil
	}
	if m := branchRe.FindStringSubmatch(name); m != nil {
		t.Kind = KindBranch
		t.Event = m[1]
		t.Branch = m[2]
		return t, nil
	}
	if strings.HasPrefix(name, "~") {
		if name == SentinelPR && d.PRNum == "" {
			return Trigger{}, ErrMissingPRNumber
		}
		t.Kind = KindEvent
		return t, nil
	}
	if d.PRChain {
		if d.PRNum == "" {
			return Trigger{}, ErrMissingPRNumber
		}
		t.Kind = KindPRChain
		t.Job = name
		return t, nil
	}
	t.Kind = KindJob
	return t, nil
}

// PRScoped renames a job into the namespace of a pull request.
func PRScoped(prNum, job string) string {
	return "PR-" + prNum + ":" + job
}

// source is the parsed form of an edge source.
type source struct {
	event  string // "pr" or "commit" when branch-scoped, else empty
	branch string // literal branch
	re     *regexp.Regexp
	broken bool // regex that does not compile; never matches
}

func parseSource(src string) source {
	m := branchRe.FindStringSubmatch(src)
	if m == nil {
		return source{}
	}
	s := source{event: m[1]}
	pattern := m[2]
	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			s.broken = true
			return s
		}
		s.re = re
		return s
	}
	s.branch = pattern
	return s
}

func (s source) matches(event, branch string) bool {
	if s.event == "" || s.broken || s.event != event {
		return false
	}
	if s.re != nil {
		return s.re.MatchString(branch)
	}
	return s.branch == branch
}

// SplitPRScoped undoes PRScoped. ok is false for names outside a PR namespace.
func SplitPRScoped(name string) (prNum, job string, ok bool) {
	m := prChainRe.FindStringSubmatch(name)
	if m == nil {
		return "", name, false
	}
	return m[1], m[2], true
}
