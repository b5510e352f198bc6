package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kovalyov-valentin/news-relay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test News</title>
    <link>https://example.com</link>
    <description>Test feed</description>
    <item>
      <title>Newest story</title>
      <link>https://example.com/news/2</link>
      <guid>news-2</guid>
    </item>
    <item>
      <title>Older story</title>
      <link>https://example.com/news/1</link>
      <guid>news-1</guid>
    </item>
  </channel>
</rss>`

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom News</title>
  <id>urn:atom-news</id>
  <updated>2026-10-19T09:00:00Z</updated>
  <entry>
    <title>Atom story</title>
    <id>urn:atom-news:1</id>
    <link href="https://example.com/atom/1"/>
    <updated>2026-10-19T09:00:00Z</updated>
  </entry>
</feed>`

const testNoLinkFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test News</title>
    <item>
      <title>x</title>
      <guid isPermaLink="false">no-link-1</guid>
    </item>
  </channel>
</rss>`

const testNoLinkNoGuidFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test News</title>
    <item>
      <title>Newest, no link</title>
    </item>
    <item>
      <title>Older story</title>
      <link>https://example.com/news/1</link>
    </item>
  </channel>
</rss>`

const testPaddedLinkFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test News</title>
    <item>
      <title>
        Padded story
      </title>
      <link>
        https://example.com/news/3
      </link>
    </item>
  </channel>
</rss>`

const testEmptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Quiet News</title>
  </channel>
</rss>`

func feedServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPreservesOrder(t *testing.T) {
	for name, decode := range map[string]Decoder{"gofeed": DecodeGofeed, "slymarbo": DecodeSlyMarbo} {
		t.Run(name, func(t *testing.T) {
			srv := feedServer(t, testRSSFeed)

			items, err := NewRSSSource(srv.URL, decode, time.Second).Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, items, 2)

			assert.Equal(t, model.FeedItem{Title: "Newest story", Link: "https://example.com/news/2"}, items[0])
			assert.Equal(t, "https://example.com/news/1", items[1].Link)
		})
	}
}

func TestFetchAtom(t *testing.T) {
	srv := feedServer(t, testAtomFeed)

	items, err := NewRSSSource(srv.URL, DecodeGofeed, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/atom/1", items[0].Link)
}

func TestFetchItemWithoutLink(t *testing.T) {
	for name, decode := range map[string]Decoder{"gofeed": DecodeGofeed, "slymarbo": DecodeSlyMarbo} {
		t.Run(name, func(t *testing.T) {
			srv := feedServer(t, testNoLinkFeed)

			items, err := NewRSSSource(srv.URL, decode, time.Second).Fetch(context.Background())
			require.NoError(t, err)
			require.NotEmpty(t, items)
			assert.Equal(t, "x", items[0].Title)
			assert.Empty(t, items[0].Link)
		})
	}
}

func TestFetchNewestWithoutLinkOrGuidStaysFirst(t *testing.T) {
	for name, decode := range map[string]Decoder{"gofeed": DecodeGofeed, "slymarbo": DecodeSlyMarbo} {
		t.Run(name, func(t *testing.T) {
			srv := feedServer(t, testNoLinkNoGuidFeed)

			items, err := NewRSSSource(srv.URL, decode, time.Second).Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, model.FeedItem{Title: "Newest, no link"}, items[0])
			assert.Equal(t, "https://example.com/news/1", items[1].Link)
		})
	}
}

func TestFetchTrimsWhitespace(t *testing.T) {
	for name, decode := range map[string]Decoder{"gofeed": DecodeGofeed, "slymarbo": DecodeSlyMarbo} {
		t.Run(name, func(t *testing.T) {
			srv := feedServer(t, testPaddedLinkFeed)

			items, err := NewRSSSource(srv.URL, decode, time.Second).Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, model.FeedItem{Title: "Padded story", Link: "https://example.com/news/3"}, items[0])
		})
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRSSSource(srv.URL, DecodeGofeed, time.Second).Fetch(context.Background())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := feedServer(t, "not xml")

	_, err := NewRSSSource(srv.URL, DecodeGofeed, time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse feed")
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := feedServer(t, testEmptyFeed)

	_, err := NewRSSSource(srv.URL, DecodeGofeed, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestFetchNetworkError(t *testing.T) {
	srv := feedServer(t, testRSSFeed)
	url := srv.URL
	srv.Close()

	_, err := NewRSSSource(url, DecodeGofeed, time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request feed")

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestFetchRespectsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewRSSSource(srv.URL, DecodeGofeed, 50*time.Millisecond).Fetch(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchSendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer srv.Close()

	_, err := NewRSSSource(srv.URL, DecodeGofeed, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userAgent, got)
}

func TestDecoderFor(t *testing.T) {
	for _, name := range []string{"", "gofeed", "slymarbo"} {
		d, err := DecoderFor(name)
		require.NoError(t, err, name)
		assert.NotNil(t, d)
	}

	_, err := DecoderFor("json")
	assert.Error(t, err)
}
