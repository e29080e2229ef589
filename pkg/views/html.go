// Package views renders session snapshots. Every function here is a pure
// function of its arguments; event wiring is left to the caller.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/rubiojr/hnsearch/pkg/search"
)

// Form endpoints the components post to.
const (
	SearchAction  = "/search"
	MoreAction    = "/more"
	DismissAction = "/dismiss"
)

// PageData is everything Page needs.
type PageData struct {
	Title    string
	Snapshot search.Snapshot
	Version  string
	// SocketPath is the snapshot WebSocket. A page rendered while a fetch is
	// running listens on it and reloads once the session is idle again.
	SocketPath string
}

// ButtonProps describe a labelled control that posts a form when clicked.
type ButtonProps struct {
	Label  string
	Action string
	Name   string
	Value  string
	Class  string
}

// htmlWriter remembers the first write error so components can write
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// SearchBox renders the search form holding the draft term.
func SearchBox(value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<form class="search" method="post"`)
		h.attr("action", SearchAction)
		h.raw(`><input type="text" name="q"`)
		h.attr("value", value)
		h.raw(`><button type="submit">Search</button></form>`)
		return h.err
	})
}

// Button renders a single control. Clicking it only submits its form.
func Button(p ButtonProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<form class="action" method="post"`)
		h.attr("action", p.Action)
		h.raw(`>`)
		if p.Name != "" {
			h.raw(`<input type="hidden"`)
			h.attr("name", p.Name)
			h.attr("value", p.Value)
			h.raw(`>`)
		}
		h.raw(`<button type="submit"`)
		if p.Class != "" {
			h.attr("class", p.Class)
		}
		h.raw(`>`)
		h.text(p.Label)
		h.raw(`</button></form>`)
		return h.err
	})
}

func Loading() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="loading">Loading ...</div>`)
		return err
	})
}

// WithLoading substitutes the loading indicator for c while isLoading is
// set. Otherwise c renders unchanged.
func WithLoading(isLoading bool, c templ.Component) templ.Component {
	if isLoading {
		return Loading()
	}
	return c
}

func ErrorNotice() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="interactions"><p class="error">Something went wrong.</p></div>`)
		return err
	})
}

// Table renders one row per hit. An empty slice renders an empty table.
func Table(hits []search.Item) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="table">`)
		for _, item := range hits {
			h.raw(`<div class="table-row"`)
			h.attr("data-id", item.ObjectID)
			h.raw(`><span class="col-title"><a`)
			h.attr("href", string(templ.URL(item.URL)))
			h.raw(`>`)
			h.text(item.Title)
			h.raw(`</a></span><span class="col-author">`)
			h.text(item.Author)
			h.raw(`</span><span class="col-comments">`)
			h.text(strconv.Itoa(item.NumComments))
			h.raw(`</span><span class="col-points">`)
			h.text(strconv.Itoa(item.Points))
			h.raw(`</span><span class="col-action">`)
			h.render(ctx, Button(ButtonProps{
				Label:  "Dismiss",
				Action: DismissAction,
				Name:   "id",
				Value:  item.ObjectID,
				Class:  "button-inline",
			}))
			h.raw(`</span></div>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// Results is the error notice when the session failed, the table otherwise.
func Results(snap search.Snapshot) templ.Component {
	if snap.HasError {
		return ErrorNotice()
	}
	return Table(snap.ActiveHits)
}

// Page renders the whole document for one session.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		snap := data.Snapshot
		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		h.text(data.Title)
		h.raw(`</title><style>` + stylesheet + `</style></head><body><div class="page"><div class="interactions">`)
		h.render(ctx, SearchBox(snap.DraftTerm))
		h.raw(`</div>`)
		h.render(ctx, Results(snap))
		h.raw(`<div class="interactions">`)
		h.render(ctx, WithLoading(snap.IsLoading, Button(ButtonProps{Label: "More", Action: MoreAction})))
		h.raw(`</div>`)
		if data.Version != "" {
			h.raw(`<footer>hnsearch `)
			h.text(data.Version)
			h.raw(`</footer>`)
		}
		h.raw(`</div>`)
		if data.SocketPath != "" && snap.IsLoading {
			h.raw(`<script>`)
			h.raw(`window.hnsearchSocket = "`)
			h.raw(templ.EscapeString(data.SocketPath))
			h.raw(`";`)
			h.raw(reloadScript)
			h.raw(`</script>`)
		}
		h.raw(`</body></html>`)
		return h.err
	})
}

const stylesheet = `body{font-family:sans-serif;color:#222;background:#f4f4f4;margin:0}
.page{margin:20px}
.interactions{text-align:center;margin:10px 0}
form{display:inline}
.table{margin:20px 0}
.table-row{display:flex;line-height:24px;white-space:nowrap;margin:10px 0;padding:10px;background:#fff;border:1px solid #e3e3e3}
.col-title{width:40%}.col-author{width:30%}.col-comments,.col-points,.col-action{width:10%}
.table-row>span{overflow:hidden;text-overflow:ellipsis;padding:0 10px}
.button-inline{border:0;background:transparent;color:inherit;cursor:pointer}
.error{color:#a00}`

const reloadScript = `(function(){
var proto = location.protocol === "https:" ? "wss://" : "ws://";
var ws = new WebSocket(proto + location.host + window.hnsearchSocket);
ws.onmessage = function(ev){
  if (!JSON.parse(ev.data).is_loading) { ws.close(); location.reload(); }
};
})();`
