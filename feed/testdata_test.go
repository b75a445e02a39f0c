package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

const rss2Doc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>
      RSS Example
    </title>
    <link>https://example.com/</link>
    <description>News &amp; notes</description>
    <item>
      <title>
  First post
</title>
      <link>
        https://example.com/1
      </link>
      <description>First description</description>
      <guid>https://example.com/1</guid>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/2</link>
      <description type="html">&lt;pre&gt;raw text&lt;/pre&gt;</description>
      <category>a</category>
      <category>b</category>
    </item>
    <item>
      <title>Third post</title>
      <link>https://example.com/3</link>
    </item>
  </channel>
</rss>`

const rss1Doc = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/">
  <channel rdf:about="https://example.com/">
    <title>RDF Example</title>
    <link>https://example.com/</link>
    <description>An RSS 1.0 feed</description>
    <items>
      <rdf:Seq>
        <rdf:li rdf:resource="https://example.com/a"/>
        <rdf:li rdf:resource="https://example.com/b"/>
      </rdf:Seq>
    </items>
  </channel>
  <item rdf:about="https://example.com/a">
    <title>Alpha</title>
    <link>https://example.com/a</link>
    <description>Alpha description</description>
  </item>
  <item rdf:about="https://example.com/b">
    <title>Beta</title>
    <link>https://example.com/b</link>
  </item>
</rdf:RDF>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <subtitle>Not a description</subtitle>
  <link href="https://example.com/"/>
  <id>urn:uuid:60a76c80-d399-11d9-b93c-0003939e0af6</id>
  <updated>2024-01-02T10:00:00Z</updated>
  <entry>
    <title>Entry one</title>
    <link href="https://example.com/e1"/>
    <id>urn:e1</id>
    <updated>2024-01-02T10:00:00Z</updated>
    <summary>Plain summary</summary>
  </entry>
  <entry>
    <title>Entry two</title>
    <link rel="alternate" href="https://example.com/e2"/>
    <id>urn:e2</id>
    <updated>2024-01-01T10:00:00Z</updated>
    <content type="html">
      &lt;p&gt;Hello &lt;b&gt;there&lt;/b&gt;&lt;/p&gt;
    </content>
  </entry>
</feed>`

type stubFetcher struct {
	docs  map[string]string
	err   error
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[url]
	if !ok {
		return nil, fmt.Errorf("no document for %s", url)
	}
	return []byte(doc), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
