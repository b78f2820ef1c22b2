package market

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
	"log/slog"

	"github.com/m3rciful/tickerbot/core/logger"
)

const (
	defaultFeedURL      = "https://feeds.finance.yahoo.com/rss/2.0/headline"
	defaultProfileURL   = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	defaultHTTPTimeout  = 10 * time.Second
	defaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	historyWindowSlack  = 7 // days scanned past the window start to find a trading day
	defaultNewsCapacity = 10
)

// YahooOptions tune the Yahoo-backed provider.
type YahooOptions struct {
	FeedURL    string
	ProfileURL string
	Timeout    time.Duration
}

// Yahoo implements Provider on top of Yahoo Finance: quote and history via
// finance-go, company profile and news headlines via plain HTTP.
type Yahoo struct {
	http       *resty.Client
	feedURL    string
	profileURL string
}

// NewYahoo builds a Yahoo provider with sane defaults for zeroed options.
func NewYahoo(opts YahooOptions) *Yahoo {
	if opts.FeedURL == "" {
		opts.FeedURL = defaultFeedURL
	}
	if opts.ProfileURL == "" {
		opts.ProfileURL = defaultProfileURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHTTPTimeout
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", defaultUserAgent)

	return &Yahoo{
		http:       client,
		feedURL:    opts.FeedURL,
		profileURL: opts.ProfileURL,
	}
}

// Quote fetches the current snapshot for the symbol.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*Snapshot, error) {
	start := time.Now()
	eq, err := equity.Get(symbol)
	if err != nil {
		// The vendor reports unknown tickers as a generic remote error.
		logger.Debug(ctx, "market", "quote.fetch",
			slog.String("status", "fail"),
			slog.String("symbol", symbol),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if eq == nil || eq.Symbol == "" {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	snap := &Snapshot{
		Symbol:                        eq.Symbol,
		LongName:                      eq.LongName,
		Price:                         eq.RegularMarketPrice,
		PreviousClose:                 eq.RegularMarketPreviousClose,
		ChangePercent:                 eq.RegularMarketChangePercent,
		MarketCap:                     eq.MarketCap,
		FiftyTwoWeekHigh:              eq.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:               eq.FiftyTwoWeekLow,
		FiftyTwoWeekHighChangePercent: eq.FiftyTwoWeekHighChangePercent,
		FiftyDayAverage:               eq.FiftyDayAverage,
		TwoHundredDayAverage:          eq.TwoHundredDayAverage,
		Volume:                        eq.RegularMarketVolume,
		AverageVolume:                 eq.AverageDailyVolume3Month,
		DividendRate:                  eq.TrailingAnnualDividendRate,
		DividendYield:                 eq.TrailingAnnualDividendYield,
	}
	if snap.LongName == "" {
		snap.LongName = eq.ShortName
	}
	if eq.DividendDate > 0 {
		snap.DividendDate = time.Unix(int64(eq.DividendDate), 0).UTC()
	}

	logger.Debug(ctx, "market", "quote.fetch",
		slog.String("status", "ok"),
		slog.String("symbol", snap.Symbol),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return snap, nil
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				LongBusinessSummary string `json:"longBusinessSummary"`
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				Website             string `json:"website"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Profile fetches the company description record used by the About action.
func (y *Yahoo) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var env quoteSummaryEnvelope
	resp, err := y.http.R().
		SetContext(ctx).
		SetQueryParam("modules", "assetProfile").
		SetResult(&env).
		Get(y.profileURL + "/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("market: profile %s: %w", symbol, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.IsError() {
		return nil, NewDataError(symbol, "profile", "http status %d", resp.StatusCode())
	}
	if env.QuoteSummary.Error != nil {
		return nil, NewDataError(symbol, "profile", "%s", env.QuoteSummary.Error.Description)
	}
	if len(env.QuoteSummary.Result) == 0 {
		return nil, NewDataError(symbol, "profile", "empty result")
	}

	ap := env.QuoteSummary.Result[0].AssetProfile
	if strings.TrimSpace(ap.LongBusinessSummary) == "" {
		return nil, NewDataError(symbol, "profile.summary", "absent")
	}
	return &Profile{
		Symbol:   symbol,
		Summary:  ap.LongBusinessSummary,
		Sector:   ap.Sector,
		Industry: ap.Industry,
		Website:  ap.Website,
	}, nil
}

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// News fetches up to n headlines from the symbol's RSS feed.
func (y *Yahoo) News(ctx context.Context, symbol string, n int) ([]NewsItem, error) {
	if n <= 0 {
		n = defaultNewsCapacity
	}
	resp, err := y.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"s":      symbol,
			"region": "US",
			"lang":   "en-US",
		}).
		Get(y.feedURL)
	if err != nil {
		return nil, fmt.Errorf("market: news %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, NewDataError(symbol, "news", "http status %d", resp.StatusCode())
	}

	items, err := parseNewsFeed(resp.Body(), n)
	if err != nil {
		return nil, NewDataError(symbol, "news", "feed parse: %v", err)
	}
	return items, nil
}

func parseNewsFeed(body []byte, n int) ([]NewsItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	items := make([]NewsItem, 0, n)
	for _, it := range feed.Channel.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		items = append(items, NewsItem{
			Title:     title,
			Link:      strings.TrimSpace(it.Link),
			Summary:   stripHTML(it.Description),
			Published: strings.TrimSpace(it.PubDate),
		})
		if len(items) == n {
			break
		}
	}
	return items, nil
}

// stripHTML extracts plain text from a feed description that may carry markup.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// HistoryOpen returns the opening price of the first trading day at or after
// the lookback window start.
func (y *Yahoo) HistoryOpen(ctx context.Context, symbol string, lb Lookback) (decimal.Decimal, error) {
	start := lb.Start(time.Now())
	end := start.AddDate(0, 0, historyWindowSlack)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	for iter.Next() {
		bar := iter.Bar()
		if bar == nil {
			continue
		}
		if !bar.Open.IsZero() {
			return bar.Open, nil
		}
	}
	if err := iter.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("market: history %s %s: %w", symbol, lb.Label(), err)
	}
	return decimal.Zero, NewDataError(symbol, "history."+lb.Label(), "no bars in window")
}
