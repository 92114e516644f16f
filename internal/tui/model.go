// Package tui is the terminal dashboard served over SSH: a commodity
// switcher, the categorized field picker, the price/volume toggle and the
// reconciled chart rendered as sparklines.
package tui

import (
	"context"
	"time"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/query"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type LatestReader interface {
	Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error)
}

// Services are the collaborators of one terminal session. Latest may be nil.
type Services struct {
	Orchestrator *query.Orchestrator
	Latest       LatestReader
	Session      domain.Session
}

type resultMsg query.Result

type resultsClosedMsg struct{}

type latestMsg struct {
	commodity string
	record    *domain.CotRecord
	err       error
}

type AppModel struct {
	svc   Services
	chart *chart.State

	commodity int
	cursor    int
	selected  []string
	overlay   bool

	loading     bool
	fieldErrors map[string]string
	priceRange  *query.DateRange
	latest      *domain.CotRecord
	latestErr   error

	spinner spinner.Model
	width   int
	height  int
}

func NewAppModel(svc Services) *AppModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return &AppModel{
		svc:     svc,
		chart:   chart.NewState(),
		spinner: sp,
		width:   100,
		height:  30,
	}
}

func (m *AppModel) SetSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
}

func (m *AppModel) Commodity() string {
	return domain.SupportedCommodities[m.commodity]
}

func (m *AppModel) Selection() chart.Selection {
	return chart.Selection{
		Commodity: m.Commodity(),
		Fields:    append([]string(nil), m.selected...),
		Overlay:   m.overlay,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForResult(m.svc.Orchestrator.Results()), m.fetchLatest())
}

func waitForResult(ch <-chan query.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return resultsClosedMsg{}
		}
		return resultMsg(res)
	}
}

func (m *AppModel) fetchLatest() tea.Cmd {
	if m.svc.Latest == nil {
		return nil
	}
	commodity := m.Commodity()
	reader, sess := m.svc.Latest, m.svc.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		rec, err := reader.Latest(ctx, sess, commodity)
		return latestMsg{commodity: commodity, record: rec, err: err}
	}
}

// reselect hands the new selection to the orchestrator, which loads it once
// the user stops changing it.
func (m *AppModel) reselect() tea.Cmd {
	m.loading = true
	m.svc.Orchestrator.Select(m.svc.Session, m.Selection())
	return m.spinner.Tick
}

func (m *AppModel) toggleField(field string) {
	for i, f := range m.selected {
		if f == field {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			return
		}
	}
	m.selected = append(m.selected, field)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		res := query.Result(msg)
		chart.Reconcile(m.chart, chart.Build(res.Desired()))
		m.loading = false
		m.fieldErrors = res.FieldErrors
		m.priceRange = res.Range
		return m, waitForResult(m.svc.Orchestrator.Results())

	case resultsClosedMsg:
		m.loading = false
		return m, nil

	case latestMsg:
		if msg.commodity == m.Commodity() {
			m.latest, m.latestErr = msg.record, msg.err
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeySpace {
		m.toggleField(domain.AllFields[m.cursor])
		return m, m.reselect()
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(domain.AllFields)-1 {
			m.cursor++
		}
	case "enter":
		m.toggleField(domain.AllFields[m.cursor])
		return m, m.reselect()
	case "tab", "right", "l":
		m.commodity = (m.commodity + 1) % len(domain.SupportedCommodities)
		m.latest, m.latestErr = nil, nil
		return m, tea.Batch(m.reselect(), m.fetchLatest())
	case "shift+tab", "left", "h":
		m.commodity = (m.commodity + len(domain.SupportedCommodities) - 1) % len(domain.SupportedCommodities)
		m.latest, m.latestErr = nil, nil
		return m, tea.Batch(m.reselect(), m.fetchLatest())
	case "o":
		m.overlay = !m.overlay
		return m, m.reselect()
	case "c":
		if len(m.selected) == 0 {
			return m, nil
		}
		m.selected = nil
		return m, m.reselect()
	}
	return m, nil
}
