package search

import "fmt"

// Event is anything that can change a session. The set is closed.
type Event interface {
	event()
}

// Mounted starts a session: the draft term is committed and fetched.
type Mounted struct{}

// InputChanged replaces the draft term.
type InputChanged struct {
	Text string
}

// Submitted commits the draft term as the active key.
type Submitted struct{}

// LoadMoreRequested asks for the page after the active key's current one.
type LoadMoreRequested struct{}

// Dismissed removes a hit from the active key's results.
type Dismissed struct {
	ObjectID string
}

// FetchSucceeded carries a page back for the request that produced it.
type FetchSucceeded struct {
	Request FetchRequest
	Page    *Page
}

// FetchFailed reports the failure of request.
type FetchFailed struct {
	Request FetchRequest
	Err     error
}

func (Mounted) event()           {}
func (InputChanged) event()      {}
func (Submitted) event()         {}
func (LoadMoreRequested) event() {}
func (Dismissed) event()         {}
func (FetchSucceeded) event()    {}
func (FetchFailed) event()       {}

// FetchRequest is the side effect Reduce asks its caller to perform.
// Key is the term active when the fetch began; the result is merged there
// even if the user has moved on.
type FetchRequest struct {
	Key  string
	Page int
}

func (r FetchRequest) String() string {
	return fmt.Sprintf("%q page %d", r.Key, r.Page)
}
