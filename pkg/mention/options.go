package mention

import (
	"strings"

	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

// Transform turns a chosen candidate into the text inserted for it.
type Transform func(trigger, candidate string) string

// DefaultTransform prefixes the trigger token unless the candidate already
// starts with it.
func DefaultTransform(trigger, candidate string) string {
	if strings.HasPrefix(candidate, trigger) {
		return candidate
	}
	return trigger + candidate
}

// Options configures an Engine. Start from DefaultOptions: the zero value
// means unlimited visible candidates, no space removers and requesting
// options on every match.
type Options struct {
	Triggers []trigger.Spec
	// Pattern is the ECMAScript validation pattern for fragments.
	Pattern string
	// MinChars is the fragment length required before the popup shows.
	MinChars int
	// MaxVisible caps the candidates shown; 0 means unlimited.
	MaxVisible int
	// Spacer is inserted after a committed candidate.
	Spacer string
	// SpaceRemovers lists the punctuation that pulls a spacer back.
	SpaceRemovers    string
	PassThroughEnter bool
	PassThroughTab   bool
	MatchAnyPosition bool
	// RequestOnlyIfNoOptions limits OnRequestOptions to matches without
	// candidates.
	RequestOnlyIfNoOptions bool
	TieBreak               trigger.TieBreak
	Measurer               caret.Measurer
	Transform              Transform

	// OnRequestOptions asks the host for more candidates. It must not block;
	// the host answers later through SetCandidates.
	OnRequestOptions func(trigger, typed string)
	// OnSelect fires after a commit with the new value.
	OnSelect func(value string)
	// OnChange fires whenever the engine rewrites the value itself.
	OnChange func(value string, caret int)
	// KeyHandler receives every key the engine does not consume.
	KeyHandler func(Key)
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Triggers:               []trigger.Spec{{Token: "@"}},
		Pattern:                trigger.DefaultPattern,
		MaxVisible:             6,
		SpaceRemovers:          ",.!?",
		RequestOnlyIfNoOptions: true,
		TieBreak:               trigger.LastTrigger,
	}
}

func (o Options) withDefaults() Options {
	if len(o.Triggers) == 0 {
		o.Triggers = []trigger.Spec{{Token: "@"}}
	}
	if o.MaxVisible < 0 {
		o.MaxVisible = 0
	}
	if o.MinChars < 0 {
		o.MinChars = 0
	}
	if o.Transform == nil {
		o.Transform = DefaultTransform
	}
	if o.Measurer == nil {
		o.Measurer = caret.GridMeasurer{}
	}
	return o
}
