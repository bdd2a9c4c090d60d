package mention

import (
	"reflect"
	"slices"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

func people() suggest.Map {
	return suggest.Map{"@": {"bob", "bill"}}
}

func newEngine(src trigger.Source, mod func(*Options)) *Engine {
	opts := DefaultOptions()
	if mod != nil {
		mod(&opts)
	}
	return New(nil, src, opts)
}

func TestOpenOnMatch(t *testing.T) {
	e := newEngine(people(), nil)
	e.OnTextChangedAt("hello @b", 8)

	st := e.State()
	if !st.Visible || st.Selection != 0 {
		t.Fatalf("State() = %+v, want open at 0", st)
	}
	want := &trigger.Match{Trigger: "@", Start: 7, Length: 1, Candidates: []string{"bob", "bill"}}
	if !reflect.DeepEqual(st.Match, want) {
		t.Errorf("Match = %+v, want %+v", st.Match, want)
	}

	r := e.Render()
	if r.MatchStart != 7 || r.MatchLength != 1 || !slices.Equal(r.Candidates, []string{"bob", "bill"}) {
		t.Errorf("Render() = %+v", r)
	}
}

func TestArrowKeysWrap(t *testing.T) {
	e := newEngine(people(), nil)
	e.OnTextChangedAt("hello @b", 8)

	steps := []struct {
		key  KeyCode
		want int
	}{
		{KeyDown, 1},
		{KeyDown, 0},
		{KeyUp, 1},
		{KeyUp, 0},
	}
	for i, s := range steps {
		if !e.OnKeyDown(Key{Code: s.key}) {
			t.Fatalf("step %d: %v not handled", i, s.key)
		}
		if got := e.State().Selection; got != s.want {
			t.Errorf("step %d: Selection = %d, want %d", i, got, s.want)
		}
	}
}

func TestWrapUsesVisibleCount(t *testing.T) {
	e := newEngine(suggest.Flat{"ann", "amy", "abe", "al"}, func(o *Options) { o.MaxVisible = 2 })
	e.OnTextChangedAt("@a", 2)

	if got := len(e.Render().Candidates); got != 2 {
		t.Fatalf("visible candidates = %d, want 2", got)
	}
	e.OnKeyDown(Key{Code: KeyDown})
	e.OnKeyDown(Key{Code: KeyDown})
	if got := e.State().Selection; got != 0 {
		t.Errorf("Selection = %d, want 0", got)
	}

	e = newEngine(suggest.Flat{"ann", "amy", "abe", "al"}, func(o *Options) { o.MaxVisible = 0 })
	e.OnTextChangedAt("@a", 2)
	if got := len(e.Render().Candidates); got != 4 {
		t.Errorf("unlimited visible candidates = %d, want 4", got)
	}
}

func TestCommitOnEnter(t *testing.T) {
	var selected string
	e := newEngine(people(), func(o *Options) {
		o.OnSelect = func(v string) { selected = v }
	})
	e.OnTextChangedAt("hello @b", 8)

	if !e.OnKeyDown(Key{Code: KeyEnter}) {
		t.Fatal("Enter not handled")
	}
	if e.Value() != "hello @bob" || e.Caret() != 10 {
		t.Errorf("after commit = %q@%d, want %q@10", e.Value(), e.Caret(), "hello @bob")
	}
	if selected != "hello @bob" {
		t.Errorf("OnSelect got %q", selected)
	}
	if e.State().Visible {
		t.Error("popup still open after commit")
	}

	// The host echoes the rewritten value; the full name must not reopen.
	e.OnTextChangedAt(e.Value(), e.Caret())
	if e.State().Visible {
		t.Error("popup reopened on committed mention")
	}
}

func TestCommitSelected(t *testing.T) {
	e := newEngine(people(), func(o *Options) { o.Spacer = " " })
	e.OnTextChangedAt("hi @b there", 5)
	e.OnKeyDown(Key{Code: KeyDown})
	e.OnKeyDown(Key{Code: KeyTab})

	if e.Value() != "hi @bill  there" || e.Caret() != 9 {
		t.Errorf("after commit = %q@%d", e.Value(), e.Caret())
	}
}

func TestCommitWritesToField(t *testing.T) {
	f := caret.NewField("hello @b")
	f.SetLayout(caret.Layout{Columns: 80, CellWidth: 8, CellHeight: 16, Wrap: true})
	e := New(f, people(), DefaultOptions())

	e.OnTextChanged(f.Value())
	r := e.Render()
	if !r.Visible || r.Left != 64 || r.Top != 0 {
		t.Fatalf("Render() = %+v, want visible at left 64", r)
	}

	e.OnKeyDown(Key{Code: KeyEnter})
	if f.Value() != "hello @bob" {
		t.Errorf("field value = %q", f.Value())
	}
	if s, end := f.SelectionRange(); s != 10 || end != 10 {
		t.Errorf("field selection = %d,%d, want 10,10", s, end)
	}
	if !f.Focused() {
		t.Error("field not focused after commit")
	}
}

func TestSpaceRemover(t *testing.T) {
	var changes []string
	e := newEngine(people(), func(o *Options) {
		o.Spacer = " "
		o.OnChange = func(v string, _ int) { changes = append(changes, v) }
	})
	e.OnTextChangedAt("hello @b", 8)
	e.OnKeyDown(Key{Code: KeyEnter})
	if e.Value() != "hello @bob " || e.Caret() != 11 {
		t.Fatalf("after commit = %q@%d", e.Value(), e.Caret())
	}

	e.OnTextChangedAt("hello @bob !", 12)
	if e.Value() != "hello @bob! " || e.Caret() != 11 {
		t.Errorf("after punctuation = %q@%d, want %q@11", e.Value(), e.Caret(), "hello @bob! ")
	}
	if e.Armed() {
		t.Error("space remover still armed")
	}
	want := []string{"hello @bob ", "hello @bob! "}
	if !slices.Equal(changes, want) {
		t.Errorf("OnChange calls = %q, want %q", changes, want)
	}

	// Only once per commit.
	e.OnTextChangedAt("hello @bob!  ", 12)
	e.OnTextChangedAt("hello @bob!  ?", 13)
	if e.Value() != "hello @bob!  ?" {
		t.Errorf("fired twice: %q", e.Value())
	}
}

func TestSpaceRemoverArming(t *testing.T) {
	commit := func() *Engine {
		e := newEngine(people(), func(o *Options) { o.Spacer = " " })
		e.OnTextChangedAt("hello @b", 8)
		e.OnKeyDown(Key{Code: KeyEnter})
		return e
	}

	e := commit()
	e.OnTextChangedAt("hello @bob ", 11)
	e.OnTextChangedAt("hello @bob .", 12)
	if e.Value() != "hello @bob. " {
		t.Errorf("echo consumed the remover: %q", e.Value())
	}

	e = commit()
	e.OnBlur()
	e.OnTextChangedAt("hello @bob .", 12)
	if e.Value() != "hello @bob ." {
		t.Errorf("fired after blur: %q", e.Value())
	}

	e = commit()
	e.OnTextChangedAt("hello @bob x", 12)
	e.OnTextChangedAt("hello @bob x.", 13)
	if e.Value() != "hello @bob x." || e.Armed() {
		t.Errorf("fired on a later edit: %q", e.Value())
	}

	e = commit()
	e.OnTextChangedAt("hello @bob !!", 13)
	if e.Value() != "hello @bob !!" {
		t.Errorf("fired on paste: %q", e.Value())
	}

	// Moving the caret away and back is two change events, not an echo.
	e = commit()
	e.OnTextChangedAt("hello @bob ", 0)
	if e.Armed() {
		t.Error("caret move left the remover armed")
	}
	e.OnKeyDown(Key{Code: KeyOther, Rune: 'x'})
	e.OnTextChangedAt("hello @bob ", 11)
	e.OnTextChangedAt("hello @bob !", 12)
	if e.Value() != "hello @bob !" || e.Caret() != 12 {
		t.Errorf("fired after caret moved: %q@%d", e.Value(), e.Caret())
	}

	// Typed somewhere other than the committed caret.
	e = commit()
	e.OnTextChangedAt("!hello @bob ", 1)
	if e.Value() != "!hello @bob " {
		t.Errorf("fired away from the caret: %q", e.Value())
	}
}

func TestCloseEvents(t *testing.T) {
	closers := map[string]func(*Engine){
		"escape": func(e *Engine) {
			if !e.OnKeyDown(Key{Code: KeyEscape}) {
				t.Error("Escape not handled")
			}
		},
		"blur":   (*Engine).OnBlur,
		"resize": (*Engine).OnResize,
		"scroll": (*Engine).OnScroll,
		"no match": func(e *Engine) {
			e.OnTextChangedAt("hello @b ", 9)
		},
	}
	for name, closeFn := range closers {
		t.Run(name, func(t *testing.T) {
			e := newEngine(people(), nil)
			e.OnTextChangedAt("hello @b", 8)
			closeFn(e)
			if e.State().Visible || e.Render().Visible {
				t.Errorf("popup still open after %s", name)
			}
		})
	}
}

func TestKeysPassThrough(t *testing.T) {
	var forwarded []KeyCode
	e := newEngine(people(), func(o *Options) {
		o.PassThroughEnter = true
		o.KeyHandler = func(k Key) { forwarded = append(forwarded, k.Code) }
	})

	// Closed: everything goes to the host.
	if e.OnKeyDown(Key{Code: KeyDown}) {
		t.Error("Down handled while closed")
	}

	e.OnTextChangedAt("@b", 2)
	if e.OnKeyDown(Key{Code: KeyOther, Rune: 'x'}) {
		t.Error("other key handled while open")
	}
	if e.OnKeyDown(Key{Code: KeyEnter}) {
		t.Error("Enter consumed despite pass-through")
	}
	if e.Value() != "@bob" {
		t.Errorf("Enter did not commit: %q", e.Value())
	}

	want := []KeyCode{KeyDown, KeyOther, KeyEnter}
	if !slices.Equal(forwarded, want) {
		t.Errorf("forwarded = %v, want %v", forwarded, want)
	}
}

func TestVisibilityThreshold(t *testing.T) {
	tests := []struct {
		name     string
		src      trigger.Source
		text     string
		minChars int
		want     bool
	}{
		{"two candidates", people(), "@b", 0, true},
		{"one partial candidate", people(), "@bo", 0, true},
		{"one full candidate", people(), "@bob", 0, false},
		{"full candidate other case", people(), "@BOB", 0, false},
		{"no candidates", people(), "@z", 0, false},
		{"bare trigger", people(), "@", 0, true},
		{"below min chars", people(), "@b", 2, false},
		{"at min chars", suggest.Flat{"bob", "bonnie"}, "@bo", 2, true},
		{"missing list", suggest.Map{"#": {"go"}}, "@b", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.src, func(o *Options) { o.MinChars = tt.minChars })
			e.OnTextChangedAt(tt.text, len([]rune(tt.text)))
			if got := e.State().Visible; got != tt.want {
				t.Errorf("Visible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectionIdentity(t *testing.T) {
	e := newEngine(suggest.Flat{"bob", "bill", "bonnie"}, nil)
	e.OnTextChangedAt("@b", 2)
	e.OnKeyDown(Key{Code: KeyDown})
	e.OnKeyDown(Key{Code: KeyDown})

	e.OnTextChangedAt("@b", 2)
	if got := e.State().Selection; got != 2 {
		t.Errorf("same list: Selection = %d, want 2", got)
	}

	e.OnTextChangedAt("@bo", 3)
	if got := e.State().Selection; got != 0 {
		t.Errorf("new list: Selection = %d, want 0", got)
	}
}

func TestIdempotentUpdate(t *testing.T) {
	e := newEngine(people(), nil)
	e.OnTextChangedAt("x @b y", 4)
	first := e.State()
	e.OnTextChangedAt("x @b y", 4)
	if second := e.State(); !reflect.DeepEqual(first, second) {
		t.Errorf("State changed: %+v then %+v", first, second)
	}
}

func TestRequestOptions(t *testing.T) {
	type call struct{ trigger, typed string }
	var calls []call
	var e *Engine
	e = newEngine(suggest.Map{"@": {"bob"}}, func(o *Options) {
		o.OnRequestOptions = func(trig, typed string) {
			calls = append(calls, call{trig, typed})
			e.SetCandidates(suggest.Map{"@": {"zed", "zoe"}})
		}
	})

	e.OnTextChangedAt("@b", 2)
	if len(calls) != 0 {
		t.Fatalf("asked for options with candidates present: %v", calls)
	}

	e.OnTextChangedAt("@z", 2)
	if want := []call{{"@", "z"}}; !slices.Equal(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	if r := e.Render(); !r.Visible || !slices.Equal(r.Candidates, []string{"zed", "zoe"}) {
		t.Errorf("Render() after SetCandidates = %+v", r)
	}
}

func TestRequestOptionsAlways(t *testing.T) {
	var n int
	e := newEngine(people(), func(o *Options) {
		o.RequestOnlyIfNoOptions = false
		o.OnRequestOptions = func(string, string) { n++ }
	})
	e.OnTextChangedAt("@b", 2)
	e.SetCandidates(people())
	if n != 1 {
		t.Errorf("OnRequestOptions calls = %d, want 1", n)
	}
}

func TestSetCandidatesClosesWhenEmptied(t *testing.T) {
	e := newEngine(people(), nil)
	e.OnTextChangedAt("@b", 2)
	e.SetCandidates(suggest.Map{"@": {}})
	if e.State().Visible {
		t.Error("popup open with no candidates")
	}
}

func TestChoose(t *testing.T) {
	e := newEngine(people(), nil)
	if e.Choose(0) {
		t.Error("Choose succeeded while closed")
	}
	e.OnTextChangedAt("@b", 2)
	if e.Select(5) {
		t.Error("Select accepted out of range index")
	}
	if !e.Choose(1) || e.Value() != "@bill" {
		t.Errorf("Choose(1) value = %q", e.Value())
	}
}

func TestWholeWordTrigger(t *testing.T) {
	e := newEngine(suggest.Flat{"host", "hostname"}, func(o *Options) {
		o.Triggers = []trigger.Spec{{Token: "@", WholeWord: true}}
	})
	e.OnTextChangedAt("email@h", 7)
	if e.State().Visible {
		t.Error("opened inside a word")
	}
	e.OnTextChangedAt("mail @h", 7)
	if !e.State().Visible {
		t.Error("did not open after a space")
	}
}

func TestNewlinesNormalized(t *testing.T) {
	e := newEngine(people(), nil)
	e.OnTextChangedAt("a\r\n@b", 4)
	st := e.State()
	if !st.Visible || st.Match.Start != 3 {
		t.Errorf("State() = %+v, want open at 3", st)
	}
}

func TestEmptyBuffer(t *testing.T) {
	e := New(nil, nil, Options{})
	e.OnTextChanged("")
	e.OnTextChangedAt("", 0)
	if e.OnKeyDown(Key{Code: KeyEnter}) || e.State().Visible {
		t.Error("empty engine reacted")
	}
}
