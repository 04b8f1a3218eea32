// Package marketplace — handlers.go обрабатывает команды:
// !магазин, !купить <номер>, а для родителей !ожидают, !одобрить, !отклонить,
// !товар <цена> <название> и !снять <номер>.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/features/economy"
	"stepbank.ru/sparks-bot/internal/features/members"
)

// NameResolver находит участника по Telegram ID (реализуется members.Service).
type NameResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*members.Member, error)
}

// Handler обрабатывает команды магазина.
type Handler struct {
	service *Service
	names   NameResolver
	bot     common.Sender
	loc     *time.Location
}

// NewHandler создаёт обработчик команд магазина.
func NewHandler(service *Service, names NameResolver, bot common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, names: names, bot: bot, loc: loc}
}

// HandleList обрабатывает !магазин.
func (h *Handler) HandleList(ctx context.Context, chatID int64) {
	products, err := h.service.ListProducts(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения товаров")
		common.SendText(h.bot, chatID, "❌ Ошибка получения товаров")
		return
	}
	common.SendText(h.bot, chatID, FormatProducts(products))
}

// HandleBuy обрабатывает !купить <номер>.
func (h *Handler) HandleBuy(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		common.SendText(h.bot, chatID, "❌ Формат: !купить <номер товара из !магазин>")
		return
	}
	products, err := h.service.ListProducts(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения товаров")
		common.SendText(h.bot, chatID, "❌ Ошибка получения товаров")
		return
	}
	id, ok := pick(args[0], len(products), func(i int) uuid.UUID { return products[i].ID })
	if !ok {
		common.SendText(h.bot, chatID, "❌ Нет такого товара. Список: !магазин")
		return
	}

	req, p, err := h.service.RequestPurchase(ctx, userID, id)
	if err != nil {
		h.replyError(chatID, err, "Ошибка оформления заявки")
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf(
		"🛒 Заявка на «%s» отправлена родителям\n🔒 Зарезервировано: %s\nНомер заявки: %s",
		p.Name, common.FormatBalance(req.Amount), req.ShortID()))
}

// HandlePending обрабатывает !ожидают.
func (h *Handler) HandlePending(ctx context.Context, chatID, userID int64) {
	reqs, err := h.service.Pending(ctx, userID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения заявок")
		return
	}
	common.SendText(h.bot, chatID, h.formatPending(ctx, reqs))
}

// HandleDecide обрабатывает !одобрить и !отклонить. Аргумент — номер из !ожидают или ID заявки.
func (h *Handler) HandleDecide(ctx context.Context, chatID, userID int64, args []string, approve bool) {
	if len(args) != 1 {
		common.SendText(h.bot, chatID, "❌ Формат: !одобрить <номер> или !отклонить <номер>")
		return
	}
	reqs, err := h.service.Pending(ctx, userID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения заявок")
		return
	}
	id, ok := pick(args[0], len(reqs), func(i int) uuid.UUID { return reqs[i].ID })
	if !ok {
		common.SendText(h.bot, chatID, "❌ Нет такой заявки. Список: !ожидают")
		return
	}

	var req *economy.SpendRequest
	if approve {
		req, err = h.service.Approve(ctx, userID, id)
	} else {
		req, err = h.service.Reject(ctx, userID, id)
	}
	if err != nil {
		h.replyError(chatID, err, "Ошибка обработки заявки")
		return
	}

	who := h.displayName(ctx, req.UserID)
	if approve {
		common.SendText(h.bot, chatID, fmt.Sprintf("✅ Покупка «%s» для %s одобрена (-%s)",
			req.ItemName, who, common.FormatBalance(req.Amount)))
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf("🚫 Заявка «%s» от %s отклонена, %s вернулись на баланс",
		req.ItemName, who, common.FormatBalance(req.Amount)))
}

// HandleAddProduct обрабатывает !товар <цена> <название>.
func (h *Handler) HandleAddProduct(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		common.SendText(h.bot, chatID, "❌ Формат: !товар <цена> <название>\nНапример: !товар 4.99 Набор наклеек")
		return
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		common.SendText(h.bot, chatID, "❌ Цена должна быть числом")
		return
	}
	p, err := h.service.AddProduct(ctx, userID, strings.Join(args[1:], " "), price)
	if err != nil {
		h.replyError(chatID, err, "Ошибка добавления товара")
		return
	}
	common.SendText(h.bot, chatID, fmt.Sprintf("✅ Товар «%s» добавлен: %s", p.Name, common.FormatBalance(p.Cost())))
}

// HandleRemoveProduct обрабатывает !снять <номер>.
func (h *Handler) HandleRemoveProduct(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		common.SendText(h.bot, chatID, "❌ Формат: !снять <номер товара>")
		return
	}
	products, err := h.service.ListProducts(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения товаров")
		common.SendText(h.bot, chatID, "❌ Ошибка получения товаров")
		return
	}
	id, ok := pick(args[0], len(products), func(i int) uuid.UUID { return products[i].ID })
	if !ok {
		common.SendText(h.bot, chatID, "❌ Нет такого товара")
		return
	}
	if err := h.service.RemoveProduct(ctx, userID, id); err != nil {
		h.replyError(chatID, err, "Ошибка снятия товара")
		return
	}
	common.SendText(h.bot, chatID, "✅ Товар снят с продажи")
}

// userErrors — ошибки, текст которых можно показать пользователю как есть.
var userErrors = []error{
	common.ErrNotParent,
	common.ErrAlreadyPending,
	common.ErrProductNotFound,
	common.ErrInvalidProduct,
	common.ErrRequestNotFound,
	common.ErrRequestDecided,
}

func (h *Handler) replyError(chatID int64, err error, logMsg string) {
	if errors.Is(err, common.ErrInsufficientSparks) {
		common.SendText(h.bot, chatID, "❌ Недостаточно искр с учётом заявок, ждущих решения")
		return
	}
	for _, known := range userErrors {
		if errors.Is(err, known) {
			common.SendText(h.bot, chatID, "❌ "+capitalize(known.Error()))
			return
		}
	}
	log.WithError(err).Error(logMsg)
	common.SendText(h.bot, chatID, "❌ "+logMsg)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func (h *Handler) displayName(ctx context.Context, userID int64) string {
	m, err := h.names.GetByUserID(ctx, userID)
	if err != nil {
		return strconv.FormatInt(userID, 10)
	}
	return m.DisplayName()
}

func (h *Handler) formatPending(ctx context.Context, reqs []*economy.SpendRequest) string {
	if len(reqs) == 0 {
		return "📭 Заявок, ждущих решения, нет"
	}
	var sb strings.Builder
	sb.WriteString("⏳ Ждут решения:\n\n")
	for i, r := range reqs {
		fmt.Fprintf(&sb, "%d. %s — «%s», %s (%s)\n",
			i+1, h.displayName(ctx, r.UserID), r.ItemName,
			common.FormatBalance(r.Amount), common.FormatDateTime(r.CreatedAt, h.loc))
	}
	sb.WriteString("\n!одобрить <номер> или !отклонить <номер>")
	return sb.String()
}

// FormatProducts форматирует витрину магазина.
func FormatProducts(products []*Product) string {
	if len(products) == 0 {
		return "🛍 В магазине пока пусто. Родители могут добавить товар: !товар <цена> <название>"
	}
	var sb strings.Builder
	sb.WriteString("🛍 Магазин:\n\n")
	for i, p := range products {
		fmt.Fprintf(&sb, "%d. %s — %s ($%.2f)\n", i+1, p.Name, common.FormatBalance(p.Cost()), p.DollarValue)
	}
	sb.WriteString("\nКупить: !купить <номер>")
	return sb.String()
}

// pick выбирает элемент по номеру из списка (с 1) или по полному UUID.
func pick(arg string, n int, idAt func(int) uuid.UUID) (uuid.UUID, bool) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > n {
			return uuid.Nil, false
		}
		return idAt(idx - 1), true
	}
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
