package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxAssetSize        = 16 << 20
)

// errAssetTooLarge marks a response over the size limit. It is proxied to
// the client but never stored.
var errAssetTooLarge = errors.New("asset exceeds cache size limit")

// Config configures an AssetCache
type Config struct {
	// Origin is the base URL the assets are fetched from
	Origin string
	// Version names the stores of this release
	Version    string
	HTTPClient *http.Client
	Storage    *Storage
	// MaxAssetSize is the largest body that is cached; 16 MiB when zero
	MaxAssetSize int64
}

// AssetCache serves front-end assets from Origin. Manifest files are served
// cache-first and revalidated in the background; other GETs go to the
// network first and fall back to the cache; everything else is proxied.
type AssetCache struct {
	origin  *url.URL
	version string
	client  *http.Client
	storage *Storage
	proxy   *httputil.ReverseProxy
	maxSize int64
	pending sync.WaitGroup
}

// New creates an asset cache
func New(cfg Config) (*AssetCache, error) {
	origin, err := url.Parse(strings.TrimRight(cfg.Origin, "/"))
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid asset origin %q", cfg.Origin)
	}
	if cfg.Version == "" {
		return nil, errors.New("asset cache version is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	if cfg.Storage == nil {
		cfg.Storage = NewStorage(0)
	}
	if cfg.MaxAssetSize <= 0 {
		cfg.MaxAssetSize = maxAssetSize
	}

	return &AssetCache{
		origin:  origin,
		version: cfg.Version,
		client:  cfg.HTTPClient,
		storage: cfg.Storage,
		proxy:   httputil.NewSingleHostReverseProxy(origin),
		maxSize: cfg.MaxAssetSize,
	}, nil
}

// StaticName is the name of this release's manifest store
func (c *AssetCache) StaticName() string { return StaticCacheName(c.version) }

// DynamicName is the name of this release's network-first store
func (c *AssetCache) DynamicName() string { return DynamicCacheName(c.version) }

// Install fetches every manifest file into the static store. Files that
// fail are reported together; the rest stay cached.
func (c *AssetCache) Install(ctx context.Context) error {
	store := c.storage.open(c.StaticName())

	var errs []error
	for _, file := range StaticFiles {
		resp, err := c.fetch(ctx, file, nil)
		if err == nil && !ok(resp.status) {
			err = fmt.Errorf("status %d", resp.status)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		store.Add(file, resp)
	}
	return errors.Join(errs...)
}

// Activate drops the stores of every other release and returns their names
func (c *AssetCache) Activate() []string {
	var removed []string
	for _, name := range c.storage.Names() {
		if name == c.StaticName() || name == c.DynamicName() {
			continue
		}
		if c.storage.Delete(name) {
			removed = append(removed, name)
		}
	}
	c.storage.open(c.StaticName())
	c.storage.open(c.DynamicName())
	return removed
}

// Wait blocks until background revalidations finish
func (c *AssetCache) Wait() {
	c.pending.Wait()
}

func (c *AssetCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		c.proxy.ServeHTTP(w, r)
		return
	}

	key := requestKey(r.URL)
	if inManifest(r.URL.Path) {
		c.serveCacheFirst(w, r, key)
		return
	}
	c.serveNetworkFirst(w, r, key)
}

func (c *AssetCache) serveCacheFirst(w http.ResponseWriter, r *http.Request, key string) {
	store := c.storage.open(c.StaticName())

	if cached, found := c.storage.match(key); found {
		c.revalidate(r, key)
		cached.write(w, "HIT")
		return
	}

	resp, err := c.fetch(r.Context(), key, r.Header)
	if errors.Is(err, errAssetTooLarge) {
		c.proxy.ServeHTTP(w, r)
		return
	}
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("asset", key).Msg("asset fetch failed")
		http.Error(w, "asset unavailable offline", http.StatusGatewayTimeout)
		return
	}
	if ok(resp.status) {
		store.Add(key, resp)
	}
	resp.write(w, "MISS")
}

func (c *AssetCache) revalidate(r *http.Request, key string) {
	header := r.Header.Clone()
	ctx := context.WithoutCancel(r.Context())

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
		defer cancel()

		resp, err := c.fetch(ctx, key, header)
		if err != nil || !ok(resp.status) {
			return
		}
		c.storage.open(c.StaticName()).Add(key, resp)
	}()
}

func (c *AssetCache) serveNetworkFirst(w http.ResponseWriter, r *http.Request, key string) {
	resp, err := c.fetch(r.Context(), key, r.Header)
	if errors.Is(err, errAssetTooLarge) {
		c.proxy.ServeHTTP(w, r)
		return
	}
	if err == nil {
		if ok(resp.status) {
			c.storage.open(c.DynamicName()).Add(key, resp)
		}
		resp.write(w, "MISS")
		return
	}

	if cached, found := c.storage.match(key); found {
		cached.write(w, "FALLBACK")
		return
	}

	observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("asset", key).Msg("asset unavailable")
	http.Error(w, "asset unavailable offline", http.StatusGatewayTimeout)
}

func (c *AssetCache) fetch(ctx context.Context, key string, header http.Header) (cachedResponse, error) {
	target := c.origin.String() + key

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return cachedResponse{}, err
	}
	for _, h := range []string{"Accept", "Accept-Language"} {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return cachedResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return cachedResponse{}, err
	}
	if int64(len(body)) > c.maxSize {
		return cachedResponse{}, fmt.Errorf("%s: %w", key, errAssetTooLarge)
	}

	kept := make(http.Header)
	for _, h := range storedHeaders {
		if v := resp.Header.Get(h); v != "" {
			kept.Set(h, v)
		}
	}
	return cachedResponse{status: resp.StatusCode, header: kept, body: body}, nil
}

func requestKey(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		return path + "?" + u.RawQuery
	}
	return path
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
