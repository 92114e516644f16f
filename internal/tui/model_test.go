package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/query"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type fakeTrends struct{}

func (fakeTrends) Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error) {
	return []domain.TrendPoint{
		{ReportDate: "2024-01-02", Value: 45000},
		{ReportDate: "2024-01-09", Value: 47000},
	}, nil
}

type fakePrices struct{}

func (fakePrices) Overlay(ctx context.Context, sess domain.Session, commodity, start, end string) ([]domain.PricePoint, error) {
	c := 23.5
	return []domain.PricePoint{{Date: "2024-01-02", Close: &c}}, nil
}

type fakeLatest struct{}

func (fakeLatest) Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error) {
	return &domain.CotRecord{ReportDate: "2024-01-09", Fields: map[string]float64{"open_interest_all": 152340}}, nil
}

func newTestModel(t *testing.T) *AppModel {
	t.Helper()
	return newTestModelWithDebounce(t, 5*time.Millisecond)
}

func newTestModelWithDebounce(t *testing.T, delay time.Duration) *AppModel {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	loader := query.NewLoader(trace.NewNoopTracerProvider().Tracer("test"), log, fakeTrends{}, fakePrices{})
	orch := query.NewOrchestrator(loader, delay, true, log)
	t.Cleanup(orch.Close)
	return NewAppModel(Services{Orchestrator: orch, Latest: fakeLatest{}, Session: domain.Session{ID: "s", Username: "alice", Token: "t"}})
}

// nextResult waits for a loaded selection matching want. Results of
// selections that were superseded before the debounce settled are skipped.
func nextResult(t *testing.T, m *AppModel, want func(chart.Selection) bool) tea.Msg {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case res := <-m.svc.Orchestrator.Results():
			if want(res.Selection) {
				return resultMsg(res)
			}
		case <-timeout:
			t.Fatal("no result delivered")
			return nil
		}
	}
}

func TestSparkline(t *testing.T) {
	points := []chart.Point{{T: 1, V: 0}, {T: 2, V: 50}, {T: 3, V: 100}}
	if got := Sparkline(points, 10); got != "▁▄█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline(points, 2); got != "▁█" {
		t.Fatalf("expected the last two points, got %q", got)
	}
	if got := Sparkline([]chart.Point{{V: 5}, {V: 5}}, 5); got != "▁▁" {
		t.Fatalf("flat series should use the lowest rune, got %q", got)
	}
	if Sparkline(nil, 5) != "" {
		t.Fatal("empty series should render nothing")
	}
}

func TestSelectingFieldLoadsAndReconcilesChart(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.loading || len(m.selected) != 1 || m.selected[0] != domain.AllFields[0] {
		t.Fatalf("unexpected state after select: loading=%v selected=%v", m.loading, m.selected)
	}

	m.Update(nextResult(t, m, func(chart.Selection) bool { return true }))
	series := m.chart.Series()
	if m.loading || len(series) != 1 || series[0].Field != "m_money_positions_long_all" {
		t.Fatalf("unexpected chart after load: %+v", series)
	}
	if m.chart.Redraws() != 1 {
		t.Fatalf("expected one redraw, got %d", m.chart.Redraws())
	}
	if !strings.Contains(m.View(), "M Money Positions Long All - SILVER") {
		t.Fatal("view does not show the chart title")
	}
}

func TestOverlayToggleAddsPriceSeries(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	if !m.overlay {
		t.Fatal("overlay not toggled")
	}

	m.Update(nextResult(t, m, func(sel chart.Selection) bool { return sel.Overlay }))
	series := m.chart.Series()
	if len(series) != 2 || series[1].Kind != chart.KindPrice {
		t.Fatalf("expected field and price series, got %+v", series)
	}
	if m.priceRange == nil {
		t.Fatal("expected overlay range")
	}
}

func TestCommoditySwitchAndClear(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.Commodity() != domain.CommodityGold {
		t.Fatalf("expected GOLD, got %s", m.Commodity())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.Commodity() != domain.CommodityCrudeOil {
		t.Fatalf("expected wraparound to CRUDE OIL, got %s", m.Commodity())
	}

	sel := m.Selection()
	if len(sel.Fields) != 1 || sel.Fields[0] != domain.AllFields[1] || sel.Commodity != "CRUDE OIL" {
		t.Fatalf("unexpected selection %+v", sel)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if len(m.selected) != 0 {
		t.Fatal("clear did not empty the selection")
	}
	m.Update(nextResult(t, m, func(sel chart.Selection) bool { return len(sel.Fields) == 0 }))
	if len(m.chart.Series()) != 0 {
		t.Fatalf("expected empty chart after clear, got %+v", m.chart.Series())
	}
}

func TestClearSkipsDebounce(t *testing.T) {
	m := newTestModelWithDebounce(t, time.Hour)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})

	select {
	case res := <-m.svc.Orchestrator.Results():
		if len(res.Selection.Fields) != 0 {
			t.Fatalf("pending selection leaked through: %+v", res.Selection)
		}
		m.Update(resultMsg(res))
	case <-time.After(time.Second):
		t.Fatal("clear waited for the debounce")
	}
	if m.loading || len(m.chart.Series()) != 0 {
		t.Fatalf("expected an idle empty chart, loading=%v series=%d", m.loading, len(m.chart.Series()))
	}
}

func TestToggleFieldKeepsClickOrder(t *testing.T) {
	m := newTestModel(t)
	m.toggleField("a")
	m.toggleField("b")
	m.toggleField("c")
	m.toggleField("a")
	m.toggleField("a")
	if strings.Join(m.selected, ",") != "b,c,a" {
		t.Fatalf("unexpected order %v", m.selected)
	}
}

func TestLatestMsgIgnoredAfterSwitch(t *testing.T) {
	m := newTestModel(t)
	m.Update(latestMsg{commodity: "GOLD", record: &domain.CotRecord{ReportDate: "x"}})
	if m.latest != nil {
		t.Fatal("latest for another commodity must be ignored")
	}

	msg := m.fetchLatest()()
	m.Update(msg)
	if m.latest == nil || !strings.Contains(m.renderLatest(), "Open Interest 152,340") {
		t.Fatalf("unexpected latest line %q", m.renderLatest())
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestRenderPickerScrollsToCursor(t *testing.T) {
	m := newTestModel(t)
	m.cursor = len(domain.AllFields) - 1
	out := m.renderPicker(10)
	if n := len(strings.Split(out, "\n")); n != 10 {
		t.Fatalf("expected 10 lines, got %d", n)
	}
	if !strings.Contains(out, truncate(domain.FieldDisplayName(domain.AllFields[len(domain.AllFields)-1]), pickerWidth-6)) {
		t.Fatal("cursor row not visible")
	}
}
