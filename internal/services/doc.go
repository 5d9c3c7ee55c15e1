// Package services defines the [Service] interface for music streaming providers and implements it for
// Spotify, YouTube Music, Apple Music and Amazon Music.
//
// # Service Interface
//
// All providers implement a common abstraction so that playlist transfer and track matching work
// uniformly across platforms. The matching engine only needs the narrower [Searcher].
//
// # Implementations
//
//   - [SpotifyService] wraps github.com/zmb3/spotify/v2. A user access token is used as a static
//     OAuth2 bearer; otherwise the client credentials flow is used, which is enough for search.
//   - [YouTubeService] searches through github.com/raitonoberu/ytmusic and talks to the ytmusicapi
//     proxy for library operations. The auth_file path is sent via the X-Auth-File header.
//   - [AppleService] wraps github.com/minchao/go-apple-music with a developer token and, for library
//     access, a music user token.
//   - [AmazonService] speaks JSON to the Amazon Music Web API.
//
// # Transport
//
// HTTP based clients run on [Transport], which throttles requests with a token bucket and retries
// 429 and 5xx responses with exponential backoff, honouring Retry-After.
//
// # Caching
//
// [CachedSearcher] wraps any [Searcher] with a [SearchCache]. Only successful searches are stored.
//
// # Error Handling
//
// Non-2xx responses become [APIError], which unwraps to the shared sentinels:
//   - [shared.ErrNotAuthenticated] : 401, or Authenticate() not called
//   - [shared.ErrRateLimited] : 429 after retries
//   - [shared.ErrServiceUnavailable] : 5xx after retries
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrAPIRequest] : anything else
package services
