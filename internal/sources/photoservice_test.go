package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mosaic-wall/internal/httpclient"
)

// fakePhotoService emulates the listing methods of the REST API
type fakePhotoService struct {
	collectionPages [][]map[string]any
	mediaPerSet     map[string]int
	failMethod      string
	listCalls       atomic.Int32
	mediaCalls      atomic.Int32
	lastQuery       atomic.Value
}

func (f *fakePhotoService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.lastQuery.Store(q)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	if q.Get("method") == f.failMethod {
		_ = json.NewEncoder(w).Encode(map[string]any{"stat": "fail", "code": 1, "message": "Photoset not found"})
		return
	}

	switch q.Get("method") {
	case methodListCollections:
		f.listCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stat": "ok",
			"photosets": map[string]any{
				"page":     page,
				"pages":    len(f.collectionPages),
				"photoset": f.collectionPages[page-1],
			},
		})
	case methodListMedia:
		f.mediaCalls.Add(1)
		total := f.mediaPerSet[q.Get("photoset_id")]
		var photos []map[string]any
		for i := (page - 1) * perPage; i < min(page*perPage, total); i++ {
			photos = append(photos, map[string]any{
				"id":         fmt.Sprintf("%s-%d", q.Get("photoset_id"), i),
				"dateupload": "1728291600",
				"datetaken":  "2024-10-07 09:00:00",
				"url_l":      fmt.Sprintf("https://img.example.com/%d_b.jpg", i),
				"url_m":      fmt.Sprintf("https://img.example.com/%d.jpg", i),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stat": "ok",
			"photoset": map[string]any{
				"id":    q.Get("photoset_id"),
				"page":  strconv.Itoa(page),
				"total": strconv.Itoa(total),
				"photo": photos,
			},
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestPhotoService(t *testing.T, fake *fakePhotoService, settings Settings) *PhotoServiceSource {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	settings.Endpoint = srv.URL + "/services/rest"
	src, err := NewPhotoServiceSource(settings,
		WithAPIClient(httpclient.NewDefaultClient(time.Second, httpclient.WithMaxTries(1))))
	require.NoError(t, err)
	return src
}

func TestNewPhotoServiceSource(t *testing.T) {
	t.Parallel()

	_, err := NewPhotoServiceSource(Settings{})
	require.Error(t, err)

	src, err := NewPhotoServiceSource(Settings{Endpoint: "https://api.example.com/services/rest"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, src.settings.PageSize)
}

func TestPhotoServiceSource_ListCollections(t *testing.T) {
	t.Parallel()

	t.Run("single page", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{collectionPages: [][]map[string]any{{
			{"id": "721", "title": map[string]any{"_content": "Devoxx 2025 Day 1"}, "photos": "120"},
			{"id": "722", "title": map[string]any{"_content": "Team offsite"}, "photos": 3},
		}}}
		src := newTestPhotoService(t, fake, Settings{UserID: "1234@N00"})

		collections, err := src.ListCollections(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Collection{
			{ID: "721", Title: "Devoxx 2025 Day 1", MediaCount: 120},
			{ID: "722", Title: "Team offsite", MediaCount: 3},
		}, collections)

		q := fake.lastQuery.Load().(url.Values)
		assert.Equal(t, "1234@N00", q.Get("user_id"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("nojsoncallback"))
	})

	t.Run("multiple pages are reassembled in order", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{collectionPages: [][]map[string]any{
			{{"id": "1", "title": map[string]any{"_content": "a"}, "photos": 1}},
			{{"id": "2", "title": map[string]any{"_content": "b"}, "photos": 1}},
			{{"id": "3", "title": map[string]any{"_content": "c"}, "photos": 1}},
		}}
		src := newTestPhotoService(t, fake, Settings{})

		collections, err := src.ListCollections(context.Background())
		require.NoError(t, err)
		require.Len(t, collections, 3)
		for i, c := range collections {
			assert.Equal(t, strconv.Itoa(i+1), c.ID)
		}
		assert.Equal(t, int32(3), fake.listCalls.Load())
	})

	t.Run("result is memoized until the TTL passes", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{collectionPages: [][]map[string]any{{
			{"id": "1", "title": map[string]any{"_content": "a"}, "photos": 1},
		}}}
		src := newTestPhotoService(t, fake, Settings{})

		now := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
		src.collections.now = func() time.Time { return now }

		for range 3 {
			_, err := src.ListCollections(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), fake.listCalls.Load())

		now = now.Add(CollectionListTTL)
		_, err := src.ListCollections(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), fake.listCalls.Load())
	})

	t.Run("API failure is reported", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{failMethod: methodListCollections}
		src := newTestPhotoService(t, fake, Settings{})

		_, err := src.ListCollections(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Photoset not found")
	})

	t.Run("HTTP failure is reported", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		src, err := NewPhotoServiceSource(Settings{Endpoint: srv.URL},
			WithAPIClient(httpclient.NewDefaultClient(time.Second, httpclient.WithMaxTries(1))))
		require.NoError(t, err)

		_, err = src.ListCollections(context.Background())
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, httpclient.StatusCode(err))
	})
}

func TestPhotoServiceSource_ListMedia(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		mediaCount    int
		pageSize      int
		expectedCalls int32
	}{
		{name: "partial last page is requested", mediaCount: 250, pageSize: 100, expectedCalls: 3},
		{name: "exact multiple of the page size", mediaCount: 200, pageSize: 100, expectedCalls: 2},
		{name: "fewer media than one page", mediaCount: 7, pageSize: 100, expectedCalls: 1},
		{name: "empty collection makes no request", mediaCount: 0, pageSize: 100, expectedCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakePhotoService{mediaPerSet: map[string]int{"721": tt.mediaCount}}
			src := newTestPhotoService(t, fake, Settings{PageSize: tt.pageSize})

			refs, err := src.ListMedia(context.Background(), Collection{ID: "721", MediaCount: tt.mediaCount})
			require.NoError(t, err)
			require.Len(t, refs, tt.mediaCount)
			assert.Equal(t, tt.expectedCalls, fake.mediaCalls.Load())

			for i, ref := range refs {
				assert.Equal(t, fmt.Sprintf("721-%d", i), ref.ID)
				assert.Equal(t, "721", ref.CollectionID)
			}
		})
	}

	t.Run("maps dates and renditions", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{mediaPerSet: map[string]int{"9": 1}}
		src := newTestPhotoService(t, fake, Settings{})

		refs, err := src.ListMedia(context.Background(), Collection{ID: "9", MediaCount: 1})
		require.NoError(t, err)
		require.Len(t, refs, 1)

		ref := refs[0]
		assert.Nil(t, ref.DateAdded)
		require.NotNil(t, ref.DatePosted)
		assert.Equal(t, time.Unix(1728291600, 0).UTC(), *ref.DatePosted)
		require.NotNil(t, ref.DateTaken)
		assert.Equal(t, time.Date(2024, 10, 7, 9, 0, 0, 0, time.UTC), *ref.DateTaken)
		assert.Equal(t, map[Size]string{
			SizeLarge:  "https://img.example.com/0_b.jpg",
			SizeMedium: "https://img.example.com/0.jpg",
		}, ref.Renditions)
	})

	t.Run("failing page aborts the listing", func(t *testing.T) {
		t.Parallel()

		fake := &fakePhotoService{failMethod: methodListMedia}
		src := newTestPhotoService(t, fake, Settings{})

		_, err := src.ListMedia(context.Background(), Collection{ID: "721", MediaCount: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed loading page 1 of collection 721")
	})
}

func TestPhotoServiceSource_Signing(t *testing.T) {
	t.Parallel()

	fake := &fakePhotoService{collectionPages: [][]map[string]any{{}}}
	src := newTestPhotoService(t, fake, Settings{APIKey: "key", APISecret: "secret"})

	_, err := src.ListCollections(context.Background())
	require.NoError(t, err)

	q := fake.lastQuery.Load().(url.Values)
	sig := q.Get("api_sig")
	require.NotEmpty(t, sig)
	q.Del("api_sig")
	assert.Equal(t, sign("secret", q), sig)
}

func TestSign(t *testing.T) {
	t.Parallel()

	params := url.Values{}
	params.Set("b", "2")
	params.Set("a", "1")
	// md5("secret" + "a1" + "b2")
	assert.Equal(t, "aaf433dbd21b3b11d1e0b7477e52300d", sign("secret", params))

	params.Set("api_sig", "ignored")
	withSig := sign("secret", params)
	params.Del("api_sig")
	assert.Equal(t, sign("secret", params), withSig, "an existing signature must not be signed")
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, pageSize, expected int
	}{
		{total: 0, pageSize: 100, expected: 0},
		{total: 1, pageSize: 100, expected: 1},
		{total: 99, pageSize: 100, expected: 1},
		{total: 100, pageSize: 100, expected: 1},
		{total: 101, pageSize: 100, expected: 2},
		{total: 250, pageSize: 100, expected: 3},
		{total: 10, pageSize: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.pageSize), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, PageCount(tt.total, tt.pageSize))
		})
	}
}

func TestMediaRef_PreferredRendition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		renditions map[Size]string
		expected   string
		found      bool
	}{
		{
			name:       "large wins",
			renditions: map[Size]string{SizeSmall: "s", SizeLarge: "l", SizeMedium: "m"},
			expected:   "l",
			found:      true,
		},
		{
			name:       "medium when large is missing",
			renditions: map[Size]string{SizeSmall: "s", SizeMedium: "m"},
			expected:   "m",
			found:      true,
		},
		{
			name:       "small as last resort",
			renditions: map[Size]string{SizeSmall: "s"},
			expected:   "s",
			found:      true,
		},
		{
			name:       "nothing available",
			renditions: map[Size]string{"original": "o"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ref := MediaRef{Renditions: tt.renditions}
			locator, ok := ref.PreferredRendition()
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, locator)
		})
	}
}

func TestFlexInt(t *testing.T) {
	t.Parallel()

	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "34", "c": null}`), &v))
	assert.Equal(t, flexInt(12), v.A)
	assert.Equal(t, flexInt(34), v.B)
	assert.Equal(t, flexInt(0), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": "twelve"}`), &v))
}
