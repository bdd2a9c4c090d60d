/*
Package server implements msgpack IPC for mention suggestions.

A host process (an editor plugin, a browser bridge) mirrors each of its text
fields into the server and forwards edits and key presses. The server runs
one suggestion engine per field and answers with what the popup should
show, whether a key was consumed, and any rewrite the host must apply.

# IPC

Requests and responses are msgpack maps written back to back on stdin and
stdout. The server first writes:

	{"status": "ready"}

Every request names an op and, for field ops, the field id:

	{"id": "r1", "op": "text", "f": "comment", "text": "hello @b", "caret": 8}

The response carries the popup state, candidates ranked by position:

	{"id": "r1", "f": "comment", "visible": true, "top": 0, "left": 64,
	 "start": 7, "len": 1, "s": [{"w": "bob", "r": 1}, {"w": "bill", "r": 2}],
	 "selection": 0, "t": 42}

Keys are sent before the host handles them itself; "handled" tells the host
to drop the key. When a key commits a candidate the response carries the new
text and caret under "rw":

	{"id": "r2", "op": "key", "f": "comment", "key": "enter"}
	{"id": "r2", "f": "comment", "handled": true, "rw": {"text": "hello @bob", "caret": 10}, ...}

When a match has no candidates the response carries "more" with the trigger
and typed text; the host may answer with a "candidates" op for that field.

# Ops

text, key, choose, blur, resize, scroll, layout, candidates and close act on
one field. reload re-reads candidate list files, config changes engine
options for every field, and health reports counters and the triggers that
have a candidate list.

Errors come back as {"id", "e", "c"} with HTTP-like codes: 400 for bad
requests, 404 for unknown fields, 413 for oversized text and 429 when the
field limit is reached.
*/
package server

import (
	"github.com/bastiangx/mentionserve/pkg/caret"
	"github.com/bastiangx/mentionserve/pkg/config"
)

// Request is any client message. Fields not used by an op are ignored.
type Request struct {
	ID         string               `msgpack:"id"`
	Op         string               `msgpack:"op"`
	Field      string               `msgpack:"f,omitempty"`
	Text       string               `msgpack:"text,omitempty"`
	Caret      *int                 `msgpack:"caret,omitempty"`
	Key        string               `msgpack:"key,omitempty"`
	Index      int                  `msgpack:"index,omitempty"`
	Candidates map[string][]string  `msgpack:"candidates,omitempty"`
	Layout     *caret.Layout        `msgpack:"layout,omitempty"`
	ScrollTop  float64              `msgpack:"st,omitempty"`
	ScrollLeft float64              `msgpack:"sl,omitempty"`
	Config     *config.EngineUpdate `msgpack:"config,omitempty"`
}

// Suggestion is one visible candidate.
type Suggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// Rewrite is text the engine changed; the host must apply it verbatim.
type Rewrite struct {
	Text  string `msgpack:"text"`
	Caret int    `msgpack:"caret"`
}

// More asks the host for candidates for the typed fragment.
type More struct {
	Trigger string `msgpack:"trigger"`
	Typed   string `msgpack:"typed"`
}

// FieldResponse describes a field after an op.
type FieldResponse struct {
	ID          string       `msgpack:"id"`
	Field       string       `msgpack:"f"`
	Visible     bool         `msgpack:"visible"`
	Top         float64      `msgpack:"top"`
	Left        float64      `msgpack:"left"`
	MatchStart  int          `msgpack:"start"`
	MatchLength int          `msgpack:"len"`
	Suggestions []Suggestion `msgpack:"s"`
	Selection   int          `msgpack:"selection"`
	Handled     bool         `msgpack:"handled,omitempty"`
	Rewrite     *Rewrite     `msgpack:"rw,omitempty"`
	More        *More        `msgpack:"more,omitempty"`
	TimeTaken   int64        `msgpack:"t"`
}

// StatusResponse answers ops that do not describe a field.
type StatusResponse struct {
	ID         string   `msgpack:"id"`
	Status     string   `msgpack:"status"`
	Fields     int      `msgpack:"fields"`
	Triggers   int      `msgpack:"triggers"`
	Tokens     []string `msgpack:"tokens,omitempty"`
	Candidates int      `msgpack:"candidates"`
	Requests   int      `msgpack:"requests"`
	Failed     int      `msgpack:"failed,omitempty"`
}

// ErrorResponse holds basic error information for a failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
