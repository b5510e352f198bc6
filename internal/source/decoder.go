package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SlyMarbo/rss"
	"github.com/kovalyov-valentin/news-relay/internal/model"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

// Decoder разбирает тело ленты в статьи, сохраняя порядок документа
type Decoder func(data []byte) ([]model.FeedItem, error)

// DecoderFor возвращает декодер по имени из конфига
func DecoderFor(name string) (Decoder, error) {
	switch name {
	case "gofeed", "":
		return DecodeGofeed, nil
	case "slymarbo":
		return DecodeSlyMarbo, nil
	default:
		return nil, fmt.Errorf("unknown feed parser %q", name)
	}
}

func DecodeGofeed(data []byte) ([]model.FeedItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return lo.Map(feed.Items, func(item *gofeed.Item, _ int) model.FeedItem {
		return newFeedItem(item.Title, item.Link)
	}), nil
}

// DecodeSlyMarbo разбирает ленту через SlyMarbo/rss.
// Эта либа выбрасывает статьи, у которых нет ни guid, ни ссылки,
// поэтому первую статью документа сверяем отдельно: если у нее нет ссылки,
// она должна остаться первой, а не уступить место более старой
func DecodeSlyMarbo(data []byte) ([]model.FeedItem, error) {
	feed, err := rss.Parse(data)
	if err != nil {
		return nil, err
	}

	items := lo.Map(feed.Items, func(item *rss.Item, _ int) model.FeedItem {
		return newFeedItem(item.Title, item.Link)
	})

	first, ok, err := firstEntry(data)
	if err != nil {
		return nil, err
	}

	if ok && first.link() == "" && (len(items) == 0 || items[0].Link != "") {
		items = append([]model.FeedItem{newFeedItem(first.Title, "")}, items...)
	}

	return items, nil
}

func newFeedItem(title, link string) model.FeedItem {
	return model.FeedItem{
		Title: strings.TrimSpace(title),
		Link:  strings.TrimSpace(link),
	}
}

// Первая статья документа как есть: <item> в RSS или <entry> в Atom
type rawEntry struct {
	Title string `xml:"title"`
	Links []struct {
		Href string `xml:"href,attr"`
		Text string `xml:",chardata"`
	} `xml:"link"`
}

func (e rawEntry) link() string {
	for _, l := range e.Links {
		if v := strings.TrimSpace(l.Href); v != "" {
			return v
		}
		if v := strings.TrimSpace(l.Text); v != "" {
			return v
		}
	}
	return ""
}

func firstEntry(data []byte) (rawEntry, bool, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	d.Strict = false

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return rawEntry{}, false, nil
		}
		if err != nil {
			return rawEntry{}, false, fmt.Errorf("scan feed items: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || (se.Name.Local != "item" && se.Name.Local != "entry") {
			continue
		}

		var e rawEntry
		if err := d.DecodeElement(&e, &se); err != nil {
			return rawEntry{}, false, fmt.Errorf("scan feed items: %w", err)
		}
		return e, true, nil
	}
}
