// Package services implements the catalog clients a migration talks to: [AmazonService] as the [Source]
// and [SpotifyService] as the [Destination].
//
// # Transport
//
// Both clients are built on [APIService], a thin JSON-over-HTTP client. Authentication lives in the
// [http.Client] transport ([oauth2.Transport] with a static bearer token for Amazon Music,
// [oauth2.Config.Client] for Spotify so a refresh token is honoured). Static headers such as
// Amazon's x-api-key are set on the [APIService].
//
// [APIService.Do] only returns transport and encoding failures. Status handling belongs to the caller:
// [APIResponse.Err] converts a non-2xx response to a [*shared.StatusError], which unwraps to
// [shared.ErrAPIRequest]. Bodies that do not decode wrap [shared.ErrMalformedResponse].
//
// # Pacing
//
// Services accept a pacer through small interfaces ([Waiter], [Holder], [Observer]) so they do not
// depend on a particular strategy. Every response is reported to the [Observer], letting an adaptive
// pacer react to Retry-After and X-RateLimit headers.
//
// # Pagination
//
// [AmazonService.FetchPlaylist] follows cursors in a loop. A page holding exactly the page size is
// non-final; the next request carries the cursor of its last edge.
//
// Nothing is retried.
package services
