package ticker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/tickerbot/internal/market"
	"github.com/m3rciful/tickerbot/internal/render"
)

type fakeProvider struct {
	snapshots map[string]*market.Snapshot
	profiles  map[string]*market.Profile
	news      map[string][]market.NewsItem
	opens     map[string]decimal.Decimal
	histErr   error
}

func (f *fakeProvider) Quote(_ context.Context, symbol string) (*market.Snapshot, error) {
	if s, ok := f.snapshots[symbol]; ok {
		return s, nil
	}
	return nil, market.ErrSymbolNotFound
}

func (f *fakeProvider) Profile(_ context.Context, symbol string) (*market.Profile, error) {
	if p, ok := f.profiles[symbol]; ok {
		return p, nil
	}
	return nil, market.NewDataError(symbol, "profile", "absent")
}

func (f *fakeProvider) News(_ context.Context, symbol string, n int) ([]market.NewsItem, error) {
	items := f.news[symbol]
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

func (f *fakeProvider) HistoryOpen(_ context.Context, symbol string, lb market.Lookback) (decimal.Decimal, error) {
	if f.histErr != nil {
		return decimal.Zero, f.histErr
	}
	if open, ok := f.opens[symbol]; ok {
		return open, nil
	}
	return decimal.Zero, market.NewDataError(symbol, "history."+lb.Label(), "no bars in window")
}

type sentMessage struct {
	kind   string // "text", "menu", "edit"
	text   string
	symbol string
}

type fakeTransport struct {
	sent []sentMessage
}

func (f *fakeTransport) SendText(_ context.Context, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "text", text: text})
	return nil
}

func (f *fakeTransport) SendMenu(_ context.Context, text, symbol string) error {
	f.sent = append(f.sent, sentMessage{kind: "menu", text: text, symbol: symbol})
	return nil
}

func (f *fakeTransport) EditText(_ context.Context, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "edit", text: text})
	return nil
}

type fakeAllow struct {
	allowed map[int64]int64
}

func (f *fakeAllow) AllowedThread(_ context.Context, chatID int64) (int64, bool, error) {
	t, ok := f.allowed[chatID]
	return t, ok, nil
}

type fakeReporter struct {
	reports []error
}

func (f *fakeReporter) ReportError(_ context.Context, _ ChatRef, _ string, err error) {
	f.reports = append(f.reports, err)
}

func newTestService(p market.Provider) (*Service, *fakeReporter) {
	rep := &fakeReporter{}
	svc := NewService(Config{IdleTimeout: 40 * time.Second}, p, &fakeAllow{allowed: map[int64]int64{-500: 7}}, rep)
	return svc, rep
}

func aaplProvider() *fakeProvider {
	return &fakeProvider{
		snapshots: map[string]*market.Snapshot{
			"AAPL": {
				Symbol: "AAPL", LongName: "Apple Inc.", Price: 190, PreviousClose: 188,
				DividendRate: 0.96, DividendDate: time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
				FiftyDayAverage: 185, TwoHundredDayAverage: 180,
			},
			"MSFT": {Symbol: "MSFT", LongName: "Microsoft", Price: 420},
		},
		profiles: map[string]*market.Profile{
			"AAPL": {Symbol: "AAPL", Summary: "Designs consumer electronics."},
		},
		news: map[string][]market.NewsItem{
			"AAPL": {{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}},
			"MSFT": {{Title: "a"}, {Title: "b"}},
		},
		opens: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(100)},
	}
}

func TestCommandThenDone(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 1, Private: true}

	tr := &fakeTransport{}
	if err := svc.HandleCommand(ctx, tr, chat, []string{"aapl"}); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if len(tr.sent) != 2 || tr.sent[0].kind != "text" || tr.sent[1].kind != "menu" {
		t.Fatalf("want quote text then menu, got %+v", tr.sent)
	}
	if tr.sent[1].symbol != "AAPL" {
		t.Errorf("menu should carry normalized symbol, got %q", tr.sent[1].symbol)
	}

	tr = &fakeTransport{}
	if err := svc.HandleAction(ctx, tr, chat, "AAPL", ActionDone); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if len(tr.sent) != 1 || tr.sent[0].kind != "edit" || tr.sent[0].text != render.Farewell {
		t.Fatalf("Done should edit to farewell, got %+v", tr.sent)
	}

	// The old menu is dead: further clicks are stale.
	tr = &fakeTransport{}
	err := svc.HandleAction(ctx, tr, chat, "AAPL", ActionAbout)
	if !errors.Is(err, ErrStaleInteraction) {
		t.Fatalf("click after Done = %v, want ErrStaleInteraction", err)
	}
	if len(tr.sent) != 0 {
		t.Errorf("stale click must send nothing, got %+v", tr.sent)
	}
}

func TestUnknownSymbolCreatesNoSession(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 2, Private: true}

	tr := &fakeTransport{}
	if err := svc.HandleCommand(ctx, tr, chat, []string{"ZZZZ"}); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if len(tr.sent) != 1 || tr.sent[0].text != render.BadTicker {
		t.Fatalf("want single bad-ticker reply, got %+v", tr.sent)
	}

	if err := svc.HandleAction(ctx, &fakeTransport{}, chat, "ZZZZ", ActionNews); !errors.Is(err, ErrStaleInteraction) {
		t.Errorf("click without session = %v, want ErrStaleInteraction", err)
	}
}

func TestMissingArgument(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	tr := &fakeTransport{}
	if err := svc.HandleCommand(context.Background(), tr, ChatRef{ChatID: 3, Private: true}, nil); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if len(tr.sent) != 1 || tr.sent[0].text != render.MissingSymbol {
		t.Fatalf("want usage reply, got %+v", tr.sent)
	}
}

func TestReplacementInvalidatesOldMenu(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 4, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"MSFT"}); err != nil {
		t.Fatal(err)
	}

	// AAPL-menu click is stale now.
	if err := svc.HandleAction(ctx, &fakeTransport{}, chat, "AAPL", ActionDividend); !errors.Is(err, ErrStaleInteraction) {
		t.Fatalf("old menu click = %v, want ErrStaleInteraction", err)
	}

	sess, ok := svc.Sessions().Lookup(chat.ChatID, time.Now())
	if !ok || sess.Symbol != "MSFT" {
		t.Fatalf("session should still be MSFT, got %+v ok=%v", sess, ok)
	}
}

func TestIdleExpiryRejectsClicks(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 5, Private: true}

	base := time.Now()
	svc.now = func() time.Time { return base }
	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return base.Add(41 * time.Second) }
	if err := svc.HandleAction(ctx, &fakeTransport{}, chat, "AAPL", ActionNews); !errors.Is(err, ErrStaleInteraction) {
		t.Fatalf("click on expired session = %v, want ErrStaleInteraction", err)
	}
}

func TestRoomRestriction(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()

	// Wrong thread: silent drop, no session.
	tr := &fakeTransport{}
	chat := ChatRef{ChatID: -500, ThreadID: 8}
	if err := svc.HandleCommand(ctx, tr, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 0 {
		t.Fatalf("restricted room must get no reply, got %+v", tr.sent)
	}
	if svc.Sessions().ActiveCount() != 0 {
		t.Error("restricted room must create no session")
	}

	// Matching thread passes.
	tr = &fakeTransport{}
	if err := svc.HandleCommand(ctx, tr, ChatRef{ChatID: -500, ThreadID: 7}, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("allowed room should get quote + menu, got %+v", tr.sent)
	}

	// Unlisted group chat is dropped too.
	tr = &fakeTransport{}
	if err := svc.HandleCommand(ctx, tr, ChatRef{ChatID: -900, ThreadID: 0}, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != 0 {
		t.Fatalf("unlisted group must get no reply, got %+v", tr.sent)
	}
}

func TestDividendDegradesGracefully(t *testing.T) {
	p := aaplProvider()
	svc, _ := newTestService(p)
	ctx := context.Background()
	chat := ChatRef{ChatID: 6, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"MSFT"}); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{}
	if err := svc.HandleAction(ctx, tr, chat, "MSFT", ActionDividend); err != nil {
		t.Fatalf("dividend on dividend-less symbol must not fail: %v", err)
	}
	if len(tr.sent) != 2 || tr.sent[0].text != render.NoDividend {
		t.Fatalf("want NoDividend edit then menu, got %+v", tr.sent)
	}

	if _, ok := svc.Sessions().Lookup(chat.ChatID, time.Now()); !ok {
		t.Error("session must stay alive after degraded dividend")
	}
}

func TestNewsRequiresThreeItems(t *testing.T) {
	svc, rep := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 7, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"MSFT"}); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{}
	err := svc.HandleAction(ctx, tr, chat, "MSFT", ActionNews)
	var dataErr *market.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("2-item news = %v, want DataError", err)
	}
	if len(rep.reports) != 1 {
		t.Errorf("failure should be reported once, got %d", len(rep.reports))
	}
	if len(tr.sent) != 1 || tr.sent[0].text != render.GenericFailure {
		t.Fatalf("user should see the generic notice, got %+v", tr.sent)
	}
	if _, ok := svc.Sessions().Lookup(chat.ChatID, time.Now()); !ok {
		t.Error("session must survive a failed action")
	}
}

func TestActionRearmsMenu(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 8, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{}
	if err := svc.HandleAction(ctx, tr, chat, "AAPL", ActionAbout); err != nil {
		t.Fatalf("About: %v", err)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("want edit + fresh menu, got %+v", tr.sent)
	}
	if tr.sent[0].kind != "edit" || !strings.Contains(tr.sent[0].text, "About AAPL") {
		t.Errorf("edit content wrong: %+v", tr.sent[0])
	}
	if tr.sent[1].kind != "menu" || tr.sent[1].text != render.PromptAbout || tr.sent[1].symbol != "AAPL" {
		t.Errorf("re-armed menu wrong: %+v", tr.sent[1])
	}
}

func TestMomentumHappyPath(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()
	chat := ChatRef{ChatID: 9, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{}
	if err := svc.HandleAction(ctx, tr, chat, "AAPL", ActionMomentum); err != nil {
		t.Fatalf("Momentum: %v", err)
	}
	if !strings.Contains(tr.sent[0].text, "1 month return: 90.00%") {
		t.Errorf("momentum content wrong:\n%s", tr.sent[0].text)
	}
}

func TestMomentumNeedsAllLookbacks(t *testing.T) {
	p := aaplProvider()
	p.histErr = market.NewDataError("AAPL", "history.1mo", "no bars in window")
	svc, rep := newTestService(p)
	ctx := context.Background()
	chat := ChatRef{ChatID: 10, Private: true}

	if err := svc.HandleCommand(ctx, &fakeTransport{}, chat, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}

	err := svc.HandleAction(ctx, &fakeTransport{}, chat, "AAPL", ActionMomentum)
	var dataErr *market.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("missing lookback = %v, want DataError", err)
	}
	if len(rep.reports) != 1 {
		t.Errorf("failure should be reported, got %d", len(rep.reports))
	}
}

// gatedProvider blocks the first Quote call until released, signalling when
// it has been entered. Later calls pass straight through.
type gatedProvider struct {
	fakeProvider
	entered chan struct{}
	release chan struct{}
	first   atomic.Bool
}

func (g *gatedProvider) Quote(ctx context.Context, symbol string) (*market.Snapshot, error) {
	if g.first.CompareAndSwap(false, true) {
		close(g.entered)
		<-g.release
	}
	return g.fakeProvider.Quote(ctx, symbol)
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{
		fakeProvider: *aaplProvider(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func TestChatEventsAreSerialized(t *testing.T) {
	p := newGatedProvider()
	svc, _ := newTestService(p)
	ctx := context.Background()
	chat := ChatRef{ChatID: 20, Private: true}
	tr := &fakeTransport{}

	cmdDone := make(chan error, 1)
	go func() {
		cmdDone <- svc.HandleCommand(ctx, tr, chat, []string{"AAPL"})
	}()
	// The command holds the chat lock from before its provider fetch, so a
	// click arriving now must wait until the command has finished.
	<-p.entered

	clickDone := make(chan error, 1)
	go func() {
		clickDone <- svc.HandleAction(ctx, tr, chat, "AAPL", ActionDone)
	}()

	close(p.release)
	if err := <-cmdDone; err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if err := <-clickDone; err != nil {
		t.Fatalf("click queued behind the command should see its session: %v", err)
	}

	// Quote, menu, then the click's farewell edit: strict arrival order.
	if len(tr.sent) != 3 {
		t.Fatalf("messages = %+v, want quote+menu+edit", tr.sent)
	}
	if tr.sent[0].kind != "text" || tr.sent[1].kind != "menu" {
		t.Errorf("command output out of order: %+v", tr.sent[:2])
	}
	if tr.sent[2].kind != "edit" || tr.sent[2].text != render.Farewell {
		t.Errorf("click ran before the command finished: %+v", tr.sent[2])
	}
}

func TestChatsDoNotBlockEachOther(t *testing.T) {
	p := newGatedProvider()
	svc, _ := newTestService(p)
	ctx := context.Background()

	blocked := make(chan error, 1)
	go func() {
		blocked <- svc.HandleCommand(ctx, &fakeTransport{}, ChatRef{ChatID: 21, Private: true}, []string{"AAPL"})
	}()
	<-p.entered

	// Another chat's command completes while the first sits in its fetch.
	tr := &fakeTransport{}
	if err := svc.HandleCommand(ctx, tr, ChatRef{ChatID: 22, Private: true}, []string{"MSFT"}); err != nil {
		t.Fatalf("second chat: %v", err)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("second chat should get quote + menu, got %+v", tr.sent)
	}
	select {
	case err := <-blocked:
		t.Fatalf("first chat finished before release: %v", err)
	default:
	}

	close(p.release)
	if err := <-blocked; err != nil {
		t.Fatalf("first chat: %v", err)
	}
}

func TestCrossChatIsolation(t *testing.T) {
	svc, _ := newTestService(aaplProvider())
	ctx := context.Background()

	if err := svc.HandleCommand(ctx, &fakeTransport{}, ChatRef{ChatID: 11, Private: true}, []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleCommand(ctx, &fakeTransport{}, ChatRef{ChatID: 12, Private: true}, []string{"MSFT"}); err != nil {
		t.Fatal(err)
	}

	// A failing action in chat 12 leaves chat 11 untouched.
	_ = svc.HandleAction(ctx, &fakeTransport{}, ChatRef{ChatID: 12, Private: true}, "MSFT", ActionNews)

	sess, ok := svc.Sessions().Lookup(11, time.Now())
	if !ok || sess.Symbol != "AAPL" {
		t.Fatalf("chat 11 session damaged: %+v ok=%v", sess, ok)
	}
}
