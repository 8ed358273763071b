package release

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SparkleNamespace is the XML namespace of the appcast extension attributes.
const SparkleNamespace = "http://www.andymatuschak.org/xml-namespaces/sparkle"

// sparklePrefix is what the decoder reports as the namespace when a feed uses
// the sparkle: prefix without declaring it.
const sparklePrefix = "sparkle"

type rssDocument struct {
	XMLName xml.Name    `xml:"rss"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string `xml:"title"`
	// A channel with a single item decodes into a one-element slice, so both
	// shapes of the document reach the normalizer as a list.
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string        `xml:"title"`
	Enclosure *rssEnclosure `xml:"enclosure"`
	Attrs     []xml.Attr    `xml:",any,attr"`
	Elements  []rssElement  `xml:",any"`
}

type rssEnclosure struct {
	URL   string     `xml:"url,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
}

type rssElement struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// ParseFeed decodes an appcast document into a Feed.
func ParseFeed(r io.Reader) (*Feed, error) {
	var doc rssDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformedFeed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if doc.Channel == nil {
		return nil, fmt.Errorf("%w: missing channel", ErrMalformedFeed)
	}
	if len(doc.Channel.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrMalformedFeed)
	}

	feed := &Feed{
		Title:   strings.TrimSpace(doc.Channel.Title),
		Records: make([]ReleaseRecord, 0, len(doc.Channel.Items)),
	}
	for i, item := range doc.Channel.Items {
		record, err := item.record(i)
		if err != nil {
			return nil, err
		}
		feed.Records = append(feed.Records, record)
	}
	return feed, nil
}

// ParseFeedBytes decodes an appcast document held in memory.
func ParseFeedBytes(data []byte) (*Feed, error) {
	return ParseFeed(bytes.NewReader(data))
}

func (item rssItem) record(index int) (ReleaseRecord, error) {
	raw, ok := item.sparkleValue("version")
	if !ok {
		return ReleaseRecord{}, &FeedError{Item: index, Field: "version", Err: fmt.Errorf("%w: missing", ErrMalformedFeed)}
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return ReleaseRecord{}, &FeedError{Item: index, Field: "version", Err: fmt.Errorf("%w: %v", ErrMalformedFeed, err)}
	}

	if item.Enclosure == nil || strings.TrimSpace(item.Enclosure.URL) == "" {
		return ReleaseRecord{}, &FeedError{Item: index, Field: "enclosure url", Err: fmt.Errorf("%w: missing", ErrMalformedFeed)}
	}

	short, _ := item.sparkleValue("shortVersionString")
	return ReleaseRecord{
		Title:        strings.TrimSpace(item.Title),
		Version:      version,
		ShortVersion: short,
		ArtifactURL:  strings.TrimSpace(item.Enclosure.URL),
	}, nil
}

// sparkleValue looks a sparkle field up as a child element, then as an
// attribute of the item, then as an attribute of the enclosure.
func (item rssItem) sparkleValue(local string) (string, bool) {
	for _, el := range item.Elements {
		if isSparkle(el.XMLName, local) {
			if v := strings.TrimSpace(el.Value); v != "" {
				return v, true
			}
		}
	}
	if v, ok := sparkleAttr(item.Attrs, local); ok {
		return v, true
	}
	if item.Enclosure != nil {
		return sparkleAttr(item.Enclosure.Attrs, local)
	}
	return "", false
}

func sparkleAttr(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if isSparkle(a.Name, local) {
			if v := strings.TrimSpace(a.Value); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func isSparkle(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == SparkleNamespace || name.Space == sparklePrefix)
}
