package search

// State is one user's search session.
type State struct {
	// DraftTerm is the text in the search box.
	DraftTerm string
	// ActiveKey is the term of the last committed search.
	ActiveKey string
	Cache     *Cache
	// Err holds the last fetch failure until the next fetch begins.
	Err error
	// InFlight counts fetches started and not yet completed.
	InFlight int
}

// NewState returns a session that will search for query once mounted.
func NewState(query string) State {
	return State{
		DraftTerm: query,
		ActiveKey: query,
		Cache:     NewCache(),
	}
}

func (s State) Loading() bool {
	return s.InFlight > 0
}

// Snapshot is the read-only projection views render from.
type Snapshot struct {
	DraftTerm  string `json:"draft_term"`
	ActiveKey  string `json:"active_key"`
	ActiveHits []Item `json:"active_hits"`
	ActivePage int    `json:"active_page"`
	TotalHits  int    `json:"total_hits"`
	TotalPages int    `json:"total_pages"`
	IsLoading  bool   `json:"is_loading"`
	HasError   bool   `json:"has_error"`
	Error      string `json:"error,omitempty"`
}

func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		DraftTerm:  s.DraftTerm,
		ActiveKey:  s.ActiveKey,
		ActiveHits: []Item{},
		IsLoading:  s.Loading(),
		HasError:   s.Err != nil,
	}
	if s.Err != nil {
		snap.Error = s.Err.Error()
	}
	if s.Cache != nil {
		if e, ok := s.Cache.Get(s.ActiveKey); ok {
			snap.ActiveHits = append(snap.ActiveHits, e.Hits...)
			snap.ActivePage = e.Page
			snap.TotalHits = e.NbHits
			snap.TotalPages = e.NbPages
		}
	}
	return snap
}
