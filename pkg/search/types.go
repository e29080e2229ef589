package search

// Item is one hit returned by the search API.
type Item struct {
	ObjectID    string `json:"objectID"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	NumComments int    `json:"num_comments"`
	Points      int    `json:"points"`
}

// Page is a single search API response. Page numbers start at zero.
type Page struct {
	Hits        []Item `json:"hits"`
	Page        int    `json:"page"`
	NbHits      int    `json:"nbHits"`
	NbPages     int    `json:"nbPages"`
	HitsPerPage int    `json:"hitsPerPage"`
}

// Entry is what the cache holds for one search term: every hit fetched so
// far in fetch order, and the number of the last page merged. NbHits and
// NbPages are the totals reported by the most recent page.
type Entry struct {
	Hits    []Item
	Page    int
	NbHits  int
	NbPages int
}
