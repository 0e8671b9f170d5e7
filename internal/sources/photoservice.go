package sources

import (
	"context"
	//nolint:gosec // the photo service signing scheme mandates MD5
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/mosaic-wall/internal/httpclient"
)

const (
	// DefaultPageSize is the number of entries requested per listing page
	DefaultPageSize = 100

	// CollectionListTTL is how long the collection list is reused before it is fetched again
	CollectionListTTL = 60 * time.Second

	// maxConcurrentPages bounds the number of listing pages fetched at once
	maxConcurrentPages = 4

	methodListCollections = "flickr.photosets.getList"
	methodListMedia       = "flickr.photosets.getPhotos"

	mediaExtras = "date_upload,date_taken,url_l,url_m,url_s"

	takenLayout = "2006-01-02 15:04:05"
)

// PhotoServiceSource reads collections from a Flickr-style JSON REST API
type PhotoServiceSource struct {
	settings    Settings
	apiClient   httpclient.Client
	mediaClient httpclient.Client
	collections *expiringValue[[]Collection]
}

var _ CollectionSource = (*PhotoServiceSource)(nil)

// PhotoServiceOption configures a PhotoServiceSource
type PhotoServiceOption func(*PhotoServiceSource)

// WithAPIClient replaces the client used for listing calls
func WithAPIClient(client httpclient.Client) PhotoServiceOption {
	return func(s *PhotoServiceSource) {
		s.apiClient = client
	}
}

// WithMediaClient replaces the client used for payload downloads
func WithMediaClient(client httpclient.Client) PhotoServiceOption {
	return func(s *PhotoServiceSource) {
		s.mediaClient = client
	}
}

// NewPhotoServiceSource creates a source for the given settings
func NewPhotoServiceSource(settings Settings, opts ...PhotoServiceOption) (*PhotoServiceSource, error) {
	if settings.Endpoint == "" {
		return nil, fmt.Errorf("photo service endpoint cannot be empty")
	}
	if _, err := url.Parse(settings.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid photo service endpoint: %w", err)
	}
	if settings.PageSize <= 0 {
		settings.PageSize = DefaultPageSize
	}

	s := &PhotoServiceSource{
		settings: settings,
		apiClient: httpclient.NewDefaultClient(settings.Timeout,
			httpclient.WithRateLimit(settings.RequestsPerSecond)),
		mediaClient: httpclient.NewDefaultClient(settings.Timeout,
			httpclient.WithAccept("image/*")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.collections = newExpiringValue(CollectionListTTL, s.loadCollections)
	return s, nil
}

// ListCollections returns all collections of the configured user. The result is
// reused for CollectionListTTL.
func (s *PhotoServiceSource) ListCollections(ctx context.Context) ([]Collection, error) {
	collections, err := s.collections.Get(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(collections), nil
}

func (s *PhotoServiceSource) loadCollections(ctx context.Context) ([]Collection, error) {
	slog.Debug("Requesting all collections", "user_id", s.settings.UserID)

	first, err := s.fetchCollectionPage(ctx, 1)
	if err != nil {
		return nil, err
	}

	pages := make([][]Collection, max(first.pages, 1))
	pages[0] = first.collections

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for page := 2; page <= first.pages; page++ {
		g.Go(func() error {
			result, err := s.fetchCollectionPage(gctx, page)
			if err != nil {
				return err
			}
			pages[page-1] = result.collections
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slices.Concat(pages...), nil
}

type collectionPage struct {
	collections []Collection
	pages       int
}

func (s *PhotoServiceSource) fetchCollectionPage(ctx context.Context, page int) (*collectionPage, error) {
	params := url.Values{}
	params.Set("user_id", s.settings.UserID)

	var resp collectionListResponse
	if err := s.call(ctx, methodListCollections, page, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list collections (page %d): %w", page, err)
	}

	result := &collectionPage{
		collections: make([]Collection, 0, len(resp.Photosets.Photoset)),
		pages:       int(resp.Photosets.Pages),
	}
	for _, ps := range resp.Photosets.Photoset {
		result.collections = append(result.collections, Collection{
			ID:         ps.ID,
			Title:      ps.Title.Content,
			MediaCount: int(ps.Photos),
		})
	}
	return result, nil
}

// ListMedia returns the media references of a collection. The number of pages is
// derived from the collection's media count, rounding up so a partial last page is
// still requested. Pages are fetched concurrently and reassembled in page order.
func (s *PhotoServiceSource) ListMedia(ctx context.Context, collection Collection) ([]MediaRef, error) {
	totalPages := PageCount(collection.MediaCount, s.settings.PageSize)
	slog.Debug("Requesting media of collection",
		"collection_id", collection.ID,
		"title", collection.Title,
		"media_count", collection.MediaCount,
		"pages", totalPages)

	pages := make([][]MediaRef, totalPages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for page := 1; page <= totalPages; page++ {
		g.Go(func() error {
			refs, err := s.fetchMediaPage(gctx, collection.ID, page)
			if err != nil {
				return fmt.Errorf("failed loading page %d of collection %s: %w", page, collection.ID, err)
			}
			pages[page-1] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slices.Concat(pages...), nil
}

func (s *PhotoServiceSource) fetchMediaPage(ctx context.Context, collectionID string, page int) ([]MediaRef, error) {
	params := url.Values{}
	params.Set("photoset_id", collectionID)
	params.Set("user_id", s.settings.UserID)
	params.Set("extras", mediaExtras)
	params.Set("privacy_filter", "1")

	var resp mediaListResponse
	if err := s.call(ctx, methodListMedia, page, params, &resp); err != nil {
		return nil, err
	}

	refs := make([]MediaRef, 0, len(resp.Photoset.Photo))
	for _, p := range resp.Photoset.Photo {
		refs = append(refs, p.toMediaRef(collectionID))
	}
	return refs, nil
}

// FetchMedia downloads the payload at locator
func (s *PhotoServiceSource) FetchMedia(ctx context.Context, locator string) ([]byte, error) {
	return s.mediaClient.Get(ctx, locator)
}

// call performs one API method call and decodes the JSON response into out
func (s *PhotoServiceSource) call(ctx context.Context, method string, page int, params url.Values, out stater) error {
	params.Set("method", method)
	params.Set("api_key", s.settings.APIKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("per_page", strconv.Itoa(s.settings.PageSize))
	params.Set("page", strconv.Itoa(page))
	if s.settings.APISecret != "" {
		params.Set("api_sig", sign(s.settings.APISecret, params))
	}

	endpoint := s.settings.Endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	data, err := s.apiClient.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return out.status().err()
}

// sign computes the request signature: the MD5 of the secret followed by every
// parameter name and value, sorted by name
func sign(secret string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "api_sig" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(secret)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}
	//nolint:gosec // required by the signing scheme
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// PageCount returns the number of pages needed to list total entries
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

type stater interface {
	status() apiStatus
}

type apiStatus struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a apiStatus) status() apiStatus { return a }

func (a apiStatus) err() error {
	if a.Stat == "" || a.Stat == "ok" {
		return nil
	}
	return fmt.Errorf("photo service returned %s (code %d): %s", a.Stat, a.Code, a.Message)
}

type collectionListResponse struct {
	apiStatus
	Photosets struct {
		Page     flexInt `json:"page"`
		Pages    flexInt `json:"pages"`
		Photoset []struct {
			ID    string `json:"id"`
			Title struct {
				Content string `json:"_content"`
			} `json:"title"`
			Photos flexInt `json:"photos"`
		} `json:"photoset"`
	} `json:"photosets"`
}

type mediaListResponse struct {
	apiStatus
	Photoset struct {
		ID    string     `json:"id"`
		Page  flexInt    `json:"page"`
		Pages flexInt    `json:"pages"`
		Total flexInt    `json:"total"`
		Photo []apiMedia `json:"photo"`
	} `json:"photoset"`
}

type apiMedia struct {
	ID         string `json:"id"`
	DateAdded  string `json:"dateadded"`
	DateUpload string `json:"dateupload"`
	DateTaken  string `json:"datetaken"`
	URLLarge   string `json:"url_l"`
	URLMedium  string `json:"url_m"`
	URLSmall   string `json:"url_s"`
}

func (m apiMedia) toMediaRef(collectionID string) MediaRef {
	renditions := make(map[Size]string, 3)
	for size, locator := range map[Size]string{
		SizeLarge:  m.URLLarge,
		SizeMedium: m.URLMedium,
		SizeSmall:  m.URLSmall,
	} {
		if locator != "" {
			renditions[size] = locator
		}
	}

	return MediaRef{
		ID:           m.ID,
		CollectionID: collectionID,
		DateAdded:    parseUnix(m.DateAdded),
		DatePosted:   parseUnix(m.DateUpload),
		DateTaken:    parseTaken(m.DateTaken),
		Renditions:   renditions,
	}
}

func parseUnix(s string) *time.Time {
	if s == "" {
		return nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

func parseTaken(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(takenLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// flexInt accepts both JSON numbers and numeric strings, which the API mixes freely
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}
