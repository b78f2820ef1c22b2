package market

import (
	"testing"
	"time"
)

func TestLookbackStart(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		lb   Lookback
		want time.Time
	}{
		{Month1, time.Date(2025, time.May, 15, 12, 0, 0, 0, time.UTC)},
		{Month3, time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)},
		{Month6, time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC)},
		{Month12, time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)},
		{YTD, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := tc.lb.Start(now); !got.Equal(tc.want) {
			t.Errorf("%s: start = %v, want %v", tc.lb.Label(), got, tc.want)
		}
	}
}

func TestLookbacksOrder(t *testing.T) {
	got := Lookbacks()
	if len(got) != 5 {
		t.Fatalf("expected 5 lookbacks, got %d", len(got))
	}
	labels := make([]string, 0, len(got))
	for _, lb := range got {
		labels = append(labels, lb.Label())
	}
	want := []string{"1mo", "3mo", "6mo", "12mo", "YTD"}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("lookback %d = %s, want %s", i, labels[i], want[i])
		}
	}
}

func TestParseNewsFeed(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Yahoo! Finance: AAPL News</title>
    <item>
      <title>Apple unveils widget</title>
      <link>https://example.com/a</link>
      <description>&lt;p&gt;Widget &lt;b&gt;news&lt;/b&gt;&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 14:00:00 +0000</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.com/skip</link>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/b</link>
      <description>plain text</description>
      <pubDate>Mon, 02 Jun 2025 12:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Third story</title>
      <link>https://example.com/c</link>
    </item>
  </channel>
</rss>`)

	items, err := parseNewsFeed(body, 2)
	if err != nil {
		t.Fatalf("parseNewsFeed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (cap), got %d", len(items))
	}
	if items[0].Title != "Apple unveils widget" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[0].Summary != "Widget news" {
		t.Errorf("summary should be stripped of markup, got %q", items[0].Summary)
	}
	if items[1].Title != "Second story" {
		t.Errorf("untitled item should be skipped, got %q", items[1].Title)
	}
}

func TestDataErrorCode(t *testing.T) {
	err := NewDataError("AAPL", "news", "only %d items", 2)
	if err.Code() != "PROVIDER_DATA" {
		t.Errorf("code = %q", err.Code())
	}
	if err.Error() != "market: AAPL: news: only 2 items" {
		t.Errorf("message = %q", err.Error())
	}
}
