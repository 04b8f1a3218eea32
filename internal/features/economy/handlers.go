// Package economy — handlers.go обрабатывает команды:
// !баланс (искры и резервы), !история (последние траты).
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	bot     common.Sender
	loc     *time.Location
}

// NewHandler создаёт обработчик команд экономики.
func NewHandler(service *Service, bot common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, bot: bot, loc: loc}
}

// HandleBalance обрабатывает !баланс.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	snap, err := h.service.Snapshot(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса")
		common.SendText(h.bot, chatID, "❌ Ошибка получения баланса")
		return
	}
	common.SendText(h.bot, chatID, FormatSnapshot(snap))
}

// HandleHistory обрабатывает !история.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	reqs, err := h.service.History(ctx, userID, 10)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории трат")
		common.SendText(h.bot, chatID, "❌ Ошибка получения истории")
		return
	}
	common.SendText(h.bot, chatID, FormatHistory(reqs, h.loc))
}

// FormatSnapshot форматирует баланс.
//
//	💰 Баланс: 1 500 искр
//	🔒 В резерве: 300 искр
//	🛒 Доступно для покупок: 1 200 искр
func FormatSnapshot(s *balance.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Баланс: %s", common.FormatBalance(s.Display()))
	if s.Held > 0 {
		fmt.Fprintf(&sb, "\n🔒 В резерве: %s", common.FormatBalance(s.Held))
		fmt.Fprintf(&sb, "\n🛒 Доступно для покупок: %s", common.FormatBalance(s.Affordable()))
	}
	fmt.Fprintf(&sb, "\n📱 Экранного времени: %s", common.FormatMinutes(balance.MinutesFor(s.Display())))
	return sb.String()
}

var statusIcons = map[balance.LedgerStatus]string{
	balance.StatusPending:  "⏳",
	balance.StatusApproved: "✅",
	balance.StatusRejected: "❌",
}

// FormatHistory форматирует список трат.
func FormatHistory(reqs []*SpendRequest, loc *time.Location) string {
	if len(reqs) == 0 {
		return "📋 Трат пока не было"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Последние траты (%d):\n\n", len(reqs))
	for i, r := range reqs {
		fmt.Fprintf(&sb, "%d. %s %s | %s | -%s\n",
			i+1, statusIcons[r.Status], common.FormatDateTime(r.CreatedAt, loc),
			describe(r), common.FormatBalance(r.Amount))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describe(r *SpendRequest) string {
	switch r.Kind {
	case balance.KindScreenTime:
		return "📱 " + common.FormatMinutes(r.Amount/balance.SparksPerMinute)
	default:
		return "🛒 " + r.ItemName
	}
}
