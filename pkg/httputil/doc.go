// Package httputil fetches remote inputs, such as point files and basemap
// images, for the renderer.
//
// # Overview
//
//   - [Fetcher]: GET with retry, size limit and an optional on-disk cache
//   - [Cache]: file-based byte cache with a TTL
//   - [Retry]: exponential backoff for errors marked [RetryableError]
//
// # Caching
//
// Responses are stored under the render cache directory and reused until the
// TTL passes, so re-rendering against the same basemap does not download it
// again:
//
//	store, err := httputil.NewCache(filepath.Join(cacheDir, "http"), 24*time.Hour)
//	f := httputil.NewFetcher(store)
//	data, err := f.Fetch(ctx, "https://tiles.example.com/world.png", false)
//
// # Retry
//
// Network failures, 5xx responses and 429 responses are retried with
// exponential backoff; a Retry-After header on 429 stretches the wait.
// A 404 is reported as NOT_FOUND and is never retried.
package httputil
