package notifier

import (
	"context"
	"strconv"
	"strings"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/presenter"
)

// Advisor is the subset of advisor.Service the bot commands use.
type Advisor interface {
	Analyze(ctx context.Context, req advisor.AnalyzeRequest) (presenter.Analysis, error)
	SimulateDCA(ctx context.Context, req advisor.DCARequest) (presenter.DCA, error)
	History(ctx context.Context, limit int) ([]presenter.HistoryEntry, error)
}

const helpText = `Commands:
/analyze [period] - indicators and recommendations (period: 1mo 3mo 6mo 1y 2y 5y)
/dca [period] [amount] [interval] - simulate periodic buying (interval: weekly, monthly, every-N-weeks)
/history [n] - recent analyses`

// Commands maps chat commands to advisor calls.
type Commands struct {
	Advisor       Advisor
	DefaultAmount float64
}

// Handle implements CommandHandler.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	// Strip a bot mention such as /analyze@MyBot.
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]

	switch cmd {
	case "/analyze":
		req := advisor.AnalyzeRequest{}
		if len(args) > 0 {
			req.Period = args[0]
		}
		out, err := c.Advisor.Analyze(ctx, req)
		if err != nil {
			return "❌ " + err.Error()
		}
		return FormatAnalysisReport(out)

	case "/dca":
		req := advisor.DCARequest{Amount: c.DefaultAmount}
		if len(args) > 0 {
			req.Period = args[0]
		}
		if len(args) > 1 {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return "❌ amount must be a number"
			}
			req.Amount = amount
		}
		if len(args) > 2 {
			req.Interval = args[2]
		}
		out, err := c.Advisor.SimulateDCA(ctx, req)
		if err != nil {
			return "❌ " + err.Error()
		}
		return FormatDCAReport(out)

	case "/history":
		limit := 5
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return "❌ n must be a positive integer"
			}
			limit = n
		}
		entries, err := c.Advisor.History(ctx, limit)
		if err != nil {
			return "❌ " + err.Error()
		}
		return FormatHistory(entries)

	case "/start", "/help":
		return helpText
	default:
		return ""
	}
}
