package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cot-dashboard/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

const trendReplyPoints = 8

type CotReader interface {
	Latest(ctx context.Context, sess domain.Session, commodity string) (*domain.CotRecord, error)
	Trend(ctx context.Context, sess domain.Session, commodity, field string, limit int) ([]domain.TrendPoint, error)
}

type SessionSource interface {
	Session(ctx context.Context) (domain.Session, error)
}

// Replies builds the text answers for bot commands.
type Replies struct {
	cot     CotReader
	account SessionSource
	timeout time.Duration
}

func NewReplies(cot CotReader, account SessionSource) *Replies {
	return &Replies{cot: cot, account: account, timeout: 20 * time.Second}
}

func StartTelegramBot(token string, log logrus.FieldLogger, replies *Replies) {
	log = log.WithField("component", "telegram")
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.WithError(err).Error("failed to create Telegram bot")
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/fields", func(c tele.Context) error {
		return c.Send(FieldsText())
	})
	b.Handle("/latest", func(c tele.Context) error {
		return c.Send(replies.Latest(context.Background(), c.Args()))
	})
	b.Handle("/trend", func(c tele.Context) error {
		return c.Send(replies.Trend(context.Background(), c.Args()))
	})

	log.Info("Telegram bot started")
	go b.Start()
}

// FieldsText lists the field taxonomy by category.
func FieldsText() string {
	var sb strings.Builder
	for i, cat := range domain.FieldCategories {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n", cat.Name)
		for _, f := range cat.Fields {
			fmt.Fprintf(&sb, "  %s\n", f)
		}
	}
	return sb.String()
}

func supportedList() string {
	return strings.Join(domain.SupportedCommodities, ", ")
}

// Latest answers "/latest GOLD".
func (r *Replies) Latest(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /latest GOLD\nSupported: %s", supportedList())
	}
	commodity, ok := domain.NormalizeCommodity(strings.Join(args, " "))
	if !ok {
		return fmt.Sprintf("Unknown commodity: %s\nSupported: %s", strings.Join(args, " "), supportedList())
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	sess, err := r.account.Session(ctx)
	if err != nil {
		return fmt.Sprintf("Bot is not logged in to the COT backend: %v", err)
	}
	rec, err := r.cot.Latest(ctx, sess, commodity)
	if err != nil {
		return fmt.Sprintf("Error fetching latest report for %s: %v", commodity, err)
	}
	return FormatLatest(commodity, rec)
}

// Trend answers "/trend CRUDE OIL m_money_positions_long_all".
func (r *Replies) Trend(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: /trend GOLD m_money_positions_long_all\nSee /fields for field names"
	}
	field := args[len(args)-1]
	name := strings.Join(args[:len(args)-1], " ")
	commodity, ok := domain.NormalizeCommodity(name)
	if !ok {
		return fmt.Sprintf("Unknown commodity: %s\nSupported: %s", name, supportedList())
	}
	if !domain.IsKnownField(field) {
		return fmt.Sprintf("Unknown field: %s\nSee /fields for field names", field)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	sess, err := r.account.Session(ctx)
	if err != nil {
		return fmt.Sprintf("Bot is not logged in to the COT backend: %v", err)
	}
	points, err := r.cot.Trend(ctx, sess, commodity, field, 0)
	if err != nil {
		return fmt.Sprintf("Error fetching %s for %s: %v", field, commodity, err)
	}
	return FormatTrend(commodity, field, points)
}

// FormatLatest renders the headline positions of a report.
func FormatLatest(commodity string, rec *domain.CotRecord) string {
	if rec == nil {
		return fmt.Sprintf("No COT data for %s yet", commodity)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s COT report %s\n", commodity, rec.ReportDate)
	for _, k := range domain.KeyMetrics {
		v, ok := rec.Value(k.Field)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", k.Label, humanize.Comma(int64(v)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatTrend shows the most recent points, oldest first, with the weekly
// change.
func FormatTrend(commodity, field string, points []domain.TrendPoint) string {
	label := domain.FieldDisplayName(field)
	if len(points) == 0 {
		return fmt.Sprintf("No %s data for %s", label, commodity)
	}
	sorted := append([]domain.TrendPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ReportDate < sorted[j].ReportDate })
	if len(sorted) > trendReplyPoints {
		sorted = sorted[len(sorted)-trendReplyPoints:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - %s\n", label, commodity)
	for i, p := range sorted {
		fmt.Fprintf(&sb, "%s  %s", p.ReportDate, humanize.CommafWithDigits(p.Value, 2))
		if i > 0 {
			delta := p.Value - sorted[i-1].Value
			sign := "+"
			if delta < 0 {
				sign = ""
			}
			fmt.Fprintf(&sb, " (%s%s)", sign, humanize.CommafWithDigits(delta, 2))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
