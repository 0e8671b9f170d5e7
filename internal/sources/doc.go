// Package sources provides interfaces and implementations for retrieving photo
// collections and their media from external sources.
//
// Architecture:
//   - CollectionSource: lists collections, lists the media of one collection and
//     downloads media payloads
//   - Collection and MediaRef: source-neutral descriptions of albums and photos
//
// Current implementations:
//   - PhotoServiceSource: a Flickr-style JSON REST API. Listings are paginated and
//     pages are fetched concurrently. The collection list is memoized for a short time.
//   - StaticSource: a YAML manifest on the local filesystem, used for offline
//     installations and demos
//
// NewSource selects the implementation matching the configured source type.
package sources
