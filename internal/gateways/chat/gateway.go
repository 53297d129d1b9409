package chat

import (
	"context"
	"fmt"
	"strings"

	"timeclock/internal/app/dispatcher"
	"timeclock/internal/app/report"

	"go.uber.org/zap"
)

// Reply is what a chat front-end renders back to the user: text plus an
// optional keyboard change. RemoveKeyboard wins over Keyboard.
type Reply struct {
	Text           string    `json:"text"`
	Keyboard       *Keyboard `json:"keyboard,omitempty"`
	RemoveKeyboard bool      `json:"remove_keyboard,omitempty"`
}

// Gateway translates the fixed chat vocabulary (keyboard verbs and slash
// commands) into dispatcher actions and renders the results. It owns no
// state and no transport: a bot client feeds it text and sends back the
// replies.
type Gateway struct {
	dispatcherSvc dispatcher.Service
	logger        *zap.SugaredLogger
}

func NewGateway(dispatcherSvc dispatcher.Service, logger *zap.Logger) *Gateway {
	return &Gateway{
		dispatcherSvc: dispatcherSvc,
		logger:        logger.Sugar(),
	}
}

func (g *Gateway) HandleCommand(ctx context.Context, userID int64, text string) *Reply {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return g.help()
	}

	verb := fields[0]
	args := fields[1:]
	g.logger.Infow("Chat command", "user_id", userID, "verb", verb)

	switch strings.ToUpper(verb) {
	case VerbStart:
		return g.start(ctx, userID)
	case VerbEnd:
		return g.stop(ctx, userID)
	case VerbDay:
		return g.closeDay(ctx, userID)
	case VerbSick:
		return g.absence(ctx, userID, "SICK")
	case VerbVacation:
		return g.absence(ctx, userID, "VACATION")
	}

	switch verb {
	case "/start":
		return &Reply{
			Text:     "Bot ready. Use the buttons below or the commands /km, /week, /month, /kmreport, /export.",
			Keyboard: mainKeyboard(),
		}
	case "/menu":
		return &Reply{Text: "Here is the menu:", Keyboard: mainKeyboard()}
	case "/km":
		return g.distance(ctx, userID, args)
	case "/week":
		return g.week(ctx, userID)
	case "/month":
		return g.month(ctx, userID)
	case "/kmreport":
		return g.kmReport(ctx, userID)
	case "/export":
		return g.export(ctx, userID)
	}

	return g.help()
}

func (g *Gateway) help() *Reply {
	return &Reply{
		Text:     "I did not understand that. Use the buttons or /menu.",
		Keyboard: mainKeyboard(),
	}
}

func blockedReply() *Reply {
	return &Reply{
		Text:           "❌ You are blocked until 23:59 today.",
		RemoveKeyboard: true,
	}
}

func (g *Gateway) start(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionStart, nil)
	if res.ErrorCode == dispatcher.CodeAlreadyBlocked {
		return blockedReply()
	}
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message, Keyboard: mainKeyboard()}
	}
	return &Reply{
		Text:     fmt.Sprintf("⏰ START: %s", res.Data["started_at"]),
		Keyboard: runningKeyboard(),
	}
}

func (g *Gateway) stop(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionStop, nil)
	if res.ErrorCode == dispatcher.CodeAlreadyBlocked {
		return blockedReply()
	}
	if res.ErrorCode == dispatcher.CodeNoOpenSession {
		return &Reply{Text: "❌ Press START first!", Keyboard: mainKeyboard()}
	}
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message, Keyboard: mainKeyboard()}
	}
	return &Reply{
		Text:     "⏱️ END: " + res.Message,
		Keyboard: afterStopKeyboard(),
	}
}

func (g *Gateway) closeDay(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionCloseDay, nil)
	if res.ErrorCode == dispatcher.CodeAlreadyBlocked {
		return blockedReply()
	}
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message, Keyboard: mainKeyboard()}
	}
	return &Reply{
		Text:           "📅 " + res.Message,
		RemoveKeyboard: true,
	}
}

func (g *Gateway) absence(ctx context.Context, userID int64, kind string) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionRecordAbsence, map[string]any{"kind": kind})
	if res.ErrorCode == dispatcher.CodeAlreadyBlocked {
		return blockedReply()
	}
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message, Keyboard: mainKeyboard()}
	}
	icon := "🏥"
	if kind == "VACATION" {
		icon = "🏖️"
	}
	return &Reply{
		Text:           fmt.Sprintf("%s %s\n\n⚠️ Blocked until 23:59", icon, res.Message),
		RemoveKeyboard: true,
	}
}

func (g *Gateway) distance(ctx context.Context, userID int64, args []string) *Reply {
	if len(args) < 1 {
		return &Reply{Text: "❌ Usage: /km <number> [locality]\nExample: /km 45.5 Bologna"}
	}

	data := map[string]any{"value": args[0]}
	if len(args) > 1 {
		data["locality"] = strings.Join(args[1:], " ")
	}

	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionRecordDistance, data)
	if res.ErrorCode == dispatcher.CodeAlreadyBlocked {
		return blockedReply()
	}
	if res.ErrorCode == dispatcher.CodeInvalidNumericInput {
		return &Reply{Text: "❌ That is not a valid number"}
	}
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message}
	}
	return &Reply{Text: "🚗 " + res.Message}
}

func (g *Gateway) week(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionQueryStats, nil)
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message}
	}
	return &Reply{Text: fmt.Sprintf("📊 THIS WEEK (so far)\nTotal: %vh %vm",
		res.Data["week_hours"], res.Data["week_minutes"])}
}

func (g *Gateway) month(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionQueryStats, nil)
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message}
	}
	return &Reply{Text: fmt.Sprintf("📊 THIS MONTH (so far)\nTotal: %vh %vm",
		res.Data["month_hours"], res.Data["month_minutes"])}
}

func (g *Gateway) kmReport(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionQueryKmReport, nil)
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message}
	}

	rep, ok := res.Data["report"].(*report.MonthlyReport)
	if !ok {
		return &Reply{Text: "🚗 " + res.Message}
	}

	lines := []string{
		fmt.Sprintf("🚗 KM REPORT %s\n", strings.ToUpper(rep.Month)),
		fmt.Sprintf("📊 Total: %g km", rep.TotalKm),
		fmt.Sprintf("📍 %s: %g km", rep.DefaultLocality, rep.LocalityKm),
		fmt.Sprintf("🌍 Elsewhere: %g km\n", rep.ElsewhereKm),
		"📅 DETAIL:\n",
	}
	if len(rep.Records) == 0 {
		lines = append(lines, "No records found")
	}
	for _, r := range rep.Records {
		lines = append(lines, fmt.Sprintf("%s: %g km - %s", r.Date, r.Km, r.Locality))
	}
	return &Reply{Text: strings.Join(lines, "\n")}
}

func (g *Gateway) export(ctx context.Context, userID int64) *Reply {
	res := g.dispatcherSvc.Dispatch(ctx, userID, dispatcher.ActionExportReport, nil)
	if !res.Success {
		return &Reply{Text: "❌ " + res.Message}
	}
	return &Reply{Text: fmt.Sprintf("📦 %s\n%v", res.Message, res.Data["url"])}
}
