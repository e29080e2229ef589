package search

import (
	"errors"
	"fmt"
)

// Reduce applies ev to s and returns the resulting state. s is left
// untouched. When the event starts a fetch, the request to perform is
// returned; its outcome must be fed back as FetchSucceeded or FetchFailed.
//
// An error is only returned for Dismissed without results for the active
// key, in which case the returned state equals s.
func Reduce(s State, ev Event) (State, *FetchRequest, error) {
	if s.Cache == nil {
		s.Cache = NewCache()
	}

	switch ev := ev.(type) {
	case Mounted:
		s.ActiveKey = s.DraftTerm
		return beginFetch(s, s.DraftTerm, 0)

	case InputChanged:
		s.DraftTerm = ev.Text
		return s, nil, nil

	case Submitted:
		s.ActiveKey = s.DraftTerm
		if !s.Cache.NeedsFetch(s.DraftTerm) {
			return s, nil, nil
		}
		return beginFetch(s, s.DraftTerm, 0)

	case LoadMoreRequested:
		next := 0
		if e, ok := s.Cache.Get(s.ActiveKey); ok {
			next = e.Page + 1
		}
		return beginFetch(s, s.ActiveKey, next)

	case Dismissed:
		cache := s.Cache.Clone()
		if err := cache.Dismiss(s.ActiveKey, ev.ObjectID); err != nil {
			return s, nil, err
		}
		s.Cache = cache
		return s, nil, nil

	case FetchSucceeded:
		page := Page{Page: ev.Request.Page}
		if ev.Page != nil {
			page = *ev.Page
		}
		cache := s.Cache.Clone()
		cache.MergePage(ev.Request.Key, page)
		s.Cache = cache
		s = fetchDone(s)
		return s, nil, nil

	case FetchFailed:
		err := ev.Err
		if err == nil {
			err = fmt.Errorf("fetching %s: unknown error", ev.Request)
		}
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		s.Err = err
		s = fetchDone(s)
		return s, nil, nil
	}

	return s, nil, fmt.Errorf("unknown event %T", ev)
}

func beginFetch(s State, key string, page int) (State, *FetchRequest, error) {
	s.InFlight++
	s.Err = nil
	return s, &FetchRequest{Key: key, Page: page}, nil
}

func fetchDone(s State) State {
	if s.InFlight > 0 {
		s.InFlight--
	}
	return s
}
