package offline

import (
	"net/http"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultStoreSize = 256

// storedHeaders are kept with a cached response
var storedHeaders = []string{"Content-Type", "Content-Language", "ETag", "Last-Modified"}

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c cachedResponse) write(w http.ResponseWriter, cacheStatus string) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(c.status)
	w.Write(c.body)
}

// Storage holds named response stores. Stores of every release live here
// until a release activates and drops the others.
type Storage struct {
	mu     sync.Mutex
	size   int
	stores map[string]*lru.Cache[string, cachedResponse]
}

// NewStorage creates an empty storage whose stores hold at most size
// responses each
func NewStorage(size int) *Storage {
	if size <= 0 {
		size = defaultStoreSize
	}
	return &Storage{size: size, stores: make(map[string]*lru.Cache[string, cachedResponse])}
}

// open returns the store called name, creating it if needed
func (s *Storage) open(name string) *lru.Cache[string, cachedResponse] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[name]; ok {
		return store
	}
	// lru.New only fails for a non-positive size
	store, _ := lru.New[string, cachedResponse](s.size)
	s.stores[name] = store
	return store
}

// Names lists the existing stores
func (s *Storage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delete drops the store called name
func (s *Storage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores[name]; !ok {
		return false
	}
	delete(s.stores, name)
	return true
}

// match looks a request key up across every store
func (s *Storage) match(key string) (cachedResponse, bool) {
	s.mu.Lock()
	stores := make([]*lru.Cache[string, cachedResponse], 0, len(s.stores))
	for _, store := range s.stores {
		stores = append(stores, store)
	}
	s.mu.Unlock()

	for _, store := range stores {
		if resp, ok := store.Get(key); ok {
			return resp, true
		}
	}
	return cachedResponse{}, false
}
