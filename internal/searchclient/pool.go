package searchclient

import (
	"github.com/techresidents/indexsvc/internal/pool"
)

// Pool is a bounded set of search-backend clients, checked out for the
// duration of one Indexer invocation.
type Pool = pool.Pool[*Client]

// NewPool builds a pool of size clients, each connected to baseURL.
func NewPool(size int, baseURL string) (*Pool, error) {
	return pool.New(size, func() (*Client, error) {
		return New(baseURL)
	})
}
