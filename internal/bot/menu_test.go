package bot

import (
	"strings"
	"testing"

	"github.com/m3rciful/tickerbot/internal/ticker"
)

func TestCallbackActionsCoverEveryMenuAction(t *testing.T) {
	covered := make(map[ticker.Action]bool, len(callbackActions))
	for _, action := range callbackActions {
		covered[action] = true
	}
	for _, action := range ticker.Actions() {
		if !covered[action] {
			t.Errorf("no callback unique registered for action %q", action)
		}
	}
	if len(callbackActions) != len(ticker.Actions()) {
		t.Errorf("callbackActions has %d entries, want %d", len(callbackActions), len(ticker.Actions()))
	}
}

func TestActionMenuLayout(t *testing.T) {
	markup := actionMenu("AAPL")
	rows := markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("menu rows = %d, want 3", len(rows))
	}
	if len(rows[0]) != 2 || len(rows[1]) != 2 || len(rows[2]) != 1 {
		t.Fatalf("row widths = %d/%d/%d, want 2/2/1", len(rows[0]), len(rows[1]), len(rows[2]))
	}
	if rows[2][0].Text != "Done" {
		t.Errorf("last row button = %q, want Done", rows[2][0].Text)
	}
	for _, row := range rows[:2] {
		for _, btn := range row {
			if !strings.Contains(btn.Text, "$AAPL") {
				t.Errorf("action button %q does not carry the symbol", btn.Text)
			}
			if !strings.Contains(btn.Data, "AAPL") {
				t.Errorf("button %q payload = %q, want the symbol", btn.Text, btn.Data)
			}
		}
	}
}
