// Package search holds the state of a Hacker News search session.
//
// # Overview
//
// A session remembers the text being typed (the draft term), the last
// committed search (the active key), every page fetched so far for every
// term, whether a fetch is running and whether the last one failed. Views
// only ever see a Snapshot of it.
//
// # Components
//
//   - Cache: term → accumulated hits. Pages are appended in fetch order
//     and never deduplicated; Dismiss is the only way hits leave it.
//   - Reduce: a pure function from (State, Event) to the next State plus,
//     optionally, a FetchRequest the caller has to run.
//   - Controller: runs Reduce on a single goroutine, performs fetches
//     through a Fetcher and publishes snapshots after every change.
//
// # Events
//
//	Mounted            commit the draft term and fetch page 0
//	InputChanged       replace the draft term
//	Submitted          commit the draft term, fetch page 0 unless cached
//	LoadMoreRequested  fetch the active key's next page
//	Dismissed          drop a hit from the active key's results
//	FetchSucceeded     merge a page under the key it was requested for
//	FetchFailed        record the failure
//
// Starting a fetch clears any previous error. The loading flag stays set
// until every started fetch has completed.
//
// # Usage
//
// Driving the reducer by hand, as the terminal UI does:
//
//	state := search.NewState("redux")
//	state, req, _ := search.Reduce(state, search.Mounted{})
//	page, err := client.Search(ctx, req.Key, req.Page)
//	if err != nil {
//		state, _, _ = search.Reduce(state, search.FetchFailed{Request: *req, Err: err})
//	} else {
//		state, _, _ = search.Reduce(state, search.FetchSucceeded{Request: *req, Page: page})
//	}
//
// Using a Controller, as the web server does:
//
//	ctrl := search.NewController(client, "redux", search.WithPublisher(hub))
//	go ctrl.Run(ctx)
//	ctrl.Mount(ctx)
//	ctrl.InputChange(ctx, "golang")
//	ctrl.Submit(ctx)
//
// # Concurrency
//
// Cache and State are not safe for concurrent use. Reduce never modifies
// its input, so a State can be shared once it is no longer being reduced.
// Controller methods are safe to call from any goroutine.
//
// A fetch cannot be cancelled. When a new term is submitted while an older
// fetch is still running, both results are merged under their own keys.
package search
