package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/dictionary"
	"github.com/bastiangx/mentionserve/pkg/mention"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// session is one mirrored host field.
type session struct {
	field  *caret.Field
	engine *mention.Engine
	extra  suggest.Map

	// filled by engine callbacks while a request is handled
	rewrite *Rewrite
	more    *More
}

// Server handles the IPC for mention suggestions
type Server struct {
	cfg        *config.Config
	configPath string
	loader     *dictionary.Loader
	opts       mention.Options
	sessions   map[string]*session

	writer       *bufio.Writer
	encoder      *msgpack.Encoder
	requestCount int
}

// NewServer creates a server reading candidates from loader's store.
// configPath is where runtime config changes are saved; empty disables saving.
func NewServer(cfg *config.Config, configPath string, loader *dictionary.Loader) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if loader == nil {
		loader = cfg.CandidateLoader("")
	}
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		loader:     loader,
		opts:       cfg.EngineOptions(),
		sessions:   make(map[string]*session),
	}
}

// Start serves requests on stdin/stdout until stdin closes.
func (s *Server) Start() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads msgpack requests from r and writes responses to w until r is
// exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	log.Debug("Starting Server.")
	s.writer = bufio.NewWriter(w)
	s.encoder = msgpack.NewEncoder(s.writer)
	decoder := msgpack.NewDecoder(bufio.NewReader(r))

	s.sendResponse(map[string]string{"status": "ready"})

	for {
		var raw msgpack.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request stream: %v", err)
			return err
		}
		s.requestCount++
		s.handleRequest(raw)
	}
}

// handleRequest decodes and dispatches one request
func (s *Server) handleRequest(raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}
	log.Debugf("Request %s: op=%s field=%s", req.ID, req.Op, req.Field)

	switch req.Op {
	case "health":
		s.sendResponse(s.status(req.ID, "ok"))
	case "reload":
		s.handleReload(req)
	case "config":
		s.handleConfig(req)
	case "text", "key", "choose", "blur", "resize", "scroll", "layout", "candidates", "close":
		s.handleField(req)
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown op: %s", req.Op), 400)
	}
}

func (s *Server) handleField(req Request) {
	if req.Field == "" {
		s.sendError(req.ID, "Missing 'f' field id", 400)
		return
	}
	if req.Op == "text" && s.cfg.Server.MaxText > 0 && len(req.Text) > s.cfg.Server.MaxText {
		s.sendError(req.ID, fmt.Sprintf("Text exceeds maximum size of %d bytes", s.cfg.Server.MaxText), 413)
		return
	}

	sess, ok := s.sessions[req.Field]
	if !ok {
		if req.Op != "text" && req.Op != "layout" {
			s.sendError(req.ID, fmt.Sprintf("Unknown field: %s", req.Field), 404)
			return
		}
		if s.cfg.Server.MaxFields > 0 && len(s.sessions) >= s.cfg.Server.MaxFields {
			s.sendError(req.ID, fmt.Sprintf("Field limit of %d reached", s.cfg.Server.MaxFields), 429)
			return
		}
		sess = s.openSession(req.Field)
	}
	sess.rewrite, sess.more = nil, nil

	start := time.Now()
	var handled bool
	switch req.Op {
	case "text":
		text := caret.NormalizeNewlines(req.Text)
		pos := utf8.RuneCountInString(text)
		if req.Caret != nil {
			pos = *req.Caret
		}
		sess.field.SetValue(text)
		sess.field.SetSelectionRange(pos, pos)
		sess.engine.OnTextChanged(text)
	case "key":
		handled = sess.engine.OnKeyDown(parseKey(req.Key))
	case "choose":
		handled = sess.engine.Choose(req.Index)
	case "blur":
		sess.field.Blur()
		sess.engine.OnBlur()
	case "resize":
		sess.engine.OnResize()
	case "scroll":
		sess.field.Scroll(req.ScrollTop, req.ScrollLeft)
		sess.engine.OnScroll()
	case "layout":
		if req.Layout == nil {
			s.sendError(req.ID, "Missing 'layout'", 400)
			return
		}
		sess.field.SetLayout(*req.Layout)
		sess.engine.OnResize()
	case "candidates":
		sess.extra = suggest.Map(req.Candidates)
		sess.engine.SetCandidates(s.source(sess))
	case "close":
		sess.engine.OnBlur()
		delete(s.sessions, req.Field)
		log.Debugf("Closed field %s, %d open", req.Field, len(s.sessions))
	}
	elapsed := time.Since(start)

	resp := s.describe(req, sess)
	resp.Handled = handled
	resp.TimeTaken = elapsed.Microseconds()
	s.sendResponse(resp)
}

func (s *Server) openSession(id string) *session {
	sess := &session{field: caret.NewField("")}
	sess.field.SetLayout(s.cfg.Server.Layout)
	sess.engine = s.newEngine(sess)
	s.sessions[id] = sess
	log.Debugf("Opened field %s, %d open", id, len(s.sessions))
	return sess
}

// newEngine binds a fresh engine to sess with the current options.
func (s *Server) newEngine(sess *session) *mention.Engine {
	opts := s.opts
	opts.OnChange = func(value string, pos int) {
		sess.rewrite = &Rewrite{Text: value, Caret: pos}
	}
	opts.OnRequestOptions = func(trigger, typed string) {
		sess.more = &More{Trigger: trigger, Typed: typed}
	}
	e := mention.New(sess.field, s.source(sess), opts)
	start, _ := sess.field.SelectionRange()
	e.OnTextChangedAt(sess.field.Value(), start)
	sess.more = nil
	return e
}

func (s *Server) source(sess *session) suggest.Layered {
	return suggest.Layered{Top: sess.extra, Base: s.loader.Store()}
}

func (s *Server) describe(req Request, sess *session) FieldResponse {
	r := sess.engine.Render()
	suggestions := make([]Suggestion, len(r.Candidates))
	for i, c := range r.Candidates {
		suggestions[i] = Suggestion{Word: c, Rank: uint16(i + 1)}
	}
	return FieldResponse{
		ID:          req.ID,
		Field:       req.Field,
		Visible:     r.Visible,
		Top:         r.Top,
		Left:        r.Left,
		MatchStart:  r.MatchStart,
		MatchLength: r.MatchLength,
		Suggestions: suggestions,
		Selection:   r.Selection,
		Rewrite:     sess.rewrite,
		More:        sess.more,
	}
}

// handleReload re-reads candidate files and re-runs every open field.
func (s *Server) handleReload(req Request) {
	stats, err := s.loader.Reload()
	if err != nil {
		log.Warnf("Reload finished with errors: %v", err)
	}
	for _, sess := range s.sessions {
		sess.engine.SetCandidates(s.source(sess))
	}
	resp := s.status(req.ID, "ok")
	resp.Failed = stats.Failed
	s.sendResponse(resp)
}

// handleConfig applies runtime engine changes. Open fields get new engines
// and keep their text and caret.
func (s *Server) handleConfig(req Request) {
	if req.Config == nil {
		s.sendError(req.ID, "Missing 'config'", 400)
		return
	}
	if err := s.cfg.Update(s.configPath, *req.Config); err != nil {
		log.Errorf("Saving config to %s: %v", s.configPath, err)
		s.sendError(req.ID, "Failed to save config", 500)
		return
	}
	s.opts = s.cfg.EngineOptions()
	for _, sess := range s.sessions {
		sess.engine = s.newEngine(sess)
	}
	s.sendResponse(s.status(req.ID, "ok"))
}

func (s *Server) status(id, status string) StatusResponse {
	stats := s.loader.Store().Stats()
	return StatusResponse{
		ID:         id,
		Status:     status,
		Fields:     len(s.sessions),
		Triggers:   stats["triggers"],
		Tokens:     s.loader.Store().Tokens(),
		Candidates: stats["candidates"],
		Requests:   s.requestCount,
	}
}

// sendResponse encodes a response and flushes it to the client
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}

func parseKey(name string) mention.Key {
	code := mention.ParseKeyCode(name)
	k := mention.Key{Code: code}
	if r := []rune(name); code == mention.KeyOther && len(r) == 1 {
		k.Rune = r[0]
	}
	return k
}
