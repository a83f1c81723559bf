package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/intent"
	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultKind что произошло в ответ на сообщение
type ResultKind string

const (
	KindBooked              ResultKind = "booked"
	KindAlreadyBooked       ResultKind = "already_booked"
	KindSlotTaken           ResultKind = "slot_taken"
	KindMenuOffered         ResultKind = "menu_offered"
	KindNoSlots             ResultKind = "no_slots"
	KindInvalidSelection    ResultKind = "invalid_selection"
	KindAskNewDay           ResultKind = "ask_new_day"
	KindCancelled           ResultKind = "cancelled"
	KindNothingToCancel     ResultKind = "nothing_to_cancel"
	KindNothingToReschedule ResultKind = "nothing_to_reschedule"
	KindBookingFound        ResultKind = "booking_found"
	KindNoBooking           ResultKind = "no_booking"
	KindEmailSaved          ResultKind = "email_saved"
	KindEmailSkipped        ResultKind = "email_skipped"
	KindEmailInvalid        ResultKind = "email_invalid"
	KindGreeting            ResultKind = "greeting"
	KindNotUnderstood       ResultKind = "not_understood"
	KindUnrecognized        ResultKind = "unrecognized"
	KindStoreUnavailable    ResultKind = "store_unavailable"
)

// Result ответ автомата. Поля заполняются в зависимости от Kind.
type Result struct {
	Kind      ResultKind
	Slot      string   // забронированный, найденный или снятый слот
	Previous  string   // слот до переноса
	Suggested string   // ближайший свободный при коллизии
	Slots     []string // показанное меню
	AskEmail  bool
	Email     string
}

var (
	emailRe     = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)
	skipRe      = regexp.MustCompile(`(?i)^\s*(?:skip|no thanks|no)\s*[.!]?\s*$`)
	selectionRe = regexp.MustCompile(`(?i)^\s*(?:option\s*|number\s*|#)?(\d{1,3})\s*[.)]?\s*$`)
	firstIntRe  = regexp.MustCompile(`\b(\d{1,3})\b`)
	newDayRe    = regexp.MustCompile(`(?i)\b(?:(?:different|another|other|new)\s+day|different\s+time)\b`)
)

// ConversationService автомат состояний диалога поверх BookingService.
// HandleMessage никогда не возвращает ошибку: все сбои превращаются в Result.
type ConversationService struct {
	bookings *BookingService
	parser   *slot.Parser
	logger   *zap.Logger
}

func NewConversationService(bookings *BookingService, parser *slot.Parser, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		bookings: bookings,
		parser:   parser,
		logger:   logger,
	}
}

// HandleMessage обрабатывает одно входящее сообщение пользователя
func (s *ConversationService) HandleMessage(ctx context.Context, userID, text string) Result {
	logger := s.requestLogger(userID)
	text = strings.TrimSpace(text)

	rec, err := s.bookings.Record(ctx, userID)
	if err != nil {
		return s.storeFailure(logger, err)
	}
	state := rec.State()
	in := intent.Classify(text)

	logger.Debug("Handling message",
		zap.String("state", string(state)),
		zap.String("intent", string(in)))

	// адрес в ответ на запрос email не должен уйти в отмену по ключевому слову
	if state == model.StateAwaitingEmail {
		if email := emailRe.FindString(text); email != "" {
			return s.saveEmail(ctx, logger, userID, email)
		}
	}

	switch in {
	case intent.Cancel:
		return s.cancel(ctx, logger, userID)
	case intent.Reschedule:
		return s.reschedule(ctx, logger, userID, rec, text)
	}

	switch state {
	case model.StateAwaitingEmail:
		return s.handleEmail(ctx, logger, userID, text)
	case model.StateMenuOffered:
		if res, handled := s.handleMenu(ctx, logger, userID, rec, text, in); handled {
			return res
		}
		// посторонний текст выводит из меню и обрабатывается как обычное сообщение
		if err := s.bookings.ExitMenu(ctx, userID); err != nil {
			return s.storeFailure(logger, err)
		}
	}

	return s.handleIdle(ctx, logger, userID, text, in)
}

// Lookup ответ на команду просмотра брони, состояние диалога не меняется
func (s *ConversationService) Lookup(ctx context.Context, userID string) Result {
	return s.lookup(ctx, s.requestLogger(userID), userID)
}

// Cancel ответ на команду отмены
func (s *ConversationService) Cancel(ctx context.Context, userID string) Result {
	return s.cancel(ctx, s.requestLogger(userID), userID)
}

func (s *ConversationService) requestLogger(userID string) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("user_id", userID),
	)
}

func (s *ConversationService) lookup(ctx context.Context, logger *zap.Logger, userID string) Result {
	current, ok, err := s.bookings.Lookup(ctx, userID)
	if err != nil {
		return s.storeFailure(logger, err)
	}
	if !ok {
		return Result{Kind: KindNoBooking}
	}
	return Result{Kind: KindBookingFound, Slot: current}
}

func (s *ConversationService) handleIdle(ctx context.Context, logger *zap.Logger, userID, text string, in intent.Intent) Result {
	switch in {
	case intent.Lookup:
		return s.lookup(ctx, logger, userID)

	case intent.Book:
		if sl, ok := s.parser.Parse(ctx, text); ok {
			return s.reserve(ctx, logger, userID, sl, false)
		}
		if intent.MentionsTime(text) {
			return Result{Kind: KindNotUnderstood}
		}
		return s.offerMenu(ctx, logger, userID, text)

	case intent.CheckDay:
		return s.offerMenu(ctx, logger, userID, text)

	case intent.SmallTalk:
		return Result{Kind: KindGreeting}
	}

	return Result{Kind: KindUnrecognized}
}

// handleMenu возвращает handled=false, если текст не относится к меню
func (s *ConversationService) handleMenu(ctx context.Context, logger *zap.Logger, userID string, rec *model.Booking, text string, in intent.Intent) (Result, bool) {
	// свободный текст со временем важнее номера пункта
	if sl, ok := s.parser.Parse(ctx, text); ok {
		return s.reserve(ctx, logger, userID, sl, true), true
	}

	if m := selectionRe.FindStringSubmatch(text); m != nil {
		return s.pick(ctx, logger, userID, rec, m[1]), true
	}

	// просмотр брони только читает, меню остаётся
	if in == intent.Lookup {
		return s.lookup(ctx, logger, userID), true
	}

	if newDayRe.MatchString(text) {
		return Result{Kind: KindAskNewDay, Slots: rec.ShownSlots}, true
	}

	// "2 please": первое число в ответе
	if m := firstIntRe.FindStringSubmatch(text); m != nil {
		return s.pick(ctx, logger, userID, rec, m[1]), true
	}

	if in.IsBookingRelated() {
		return s.offerMenu(ctx, logger, userID, text), true
	}

	return Result{}, false
}

// pick бронирует пункт меню по номеру из ответа
func (s *ConversationService) pick(ctx context.Context, logger *zap.Logger, userID string, rec *model.Booking, number string) Result {
	idx, _ := strconv.Atoi(number)
	if idx < 1 || idx > len(rec.ShownSlots) {
		return Result{Kind: KindInvalidSelection, Slots: rec.ShownSlots}
	}

	chosen := rec.ShownSlots[idx-1]
	sl, ok := s.parser.Canonical(chosen)
	if !ok {
		logger.Warn("Shown slot cannot be parsed", zap.String("slot", chosen))
		return Result{Kind: KindInvalidSelection, Slots: rec.ShownSlots}
	}
	return s.reserve(ctx, logger, userID, sl, true)
}

func (s *ConversationService) handleEmail(ctx context.Context, logger *zap.Logger, userID, text string) Result {
	if skipRe.MatchString(text) {
		if err := s.bookings.SkipEmail(ctx, userID); err != nil {
			return s.storeFailure(logger, err)
		}
		return Result{Kind: KindEmailSkipped}
	}
	return Result{Kind: KindEmailInvalid}
}

func (s *ConversationService) saveEmail(ctx context.Context, logger *zap.Logger, userID, email string) Result {
	if err := s.bookings.SaveEmail(ctx, userID, email); err != nil {
		return s.storeFailure(logger, err)
	}
	return Result{Kind: KindEmailSaved, Email: email}
}

func (s *ConversationService) cancel(ctx context.Context, logger *zap.Logger, userID string) Result {
	previous, err := s.bookings.Cancel(ctx, userID)
	if err != nil {
		return s.storeFailure(logger, err)
	}
	if previous == "" {
		return Result{Kind: KindNothingToCancel}
	}
	return Result{Kind: KindCancelled, Slot: s.display(previous)}
}

// reschedule с новым временем в сообщении переносит бронь за один Update:
// при коллизии старая бронь остаётся. Без времени снимает бронь и предлагает меню.
func (s *ConversationService) reschedule(ctx context.Context, logger *zap.Logger, userID string, rec *model.Booking, text string) Result {
	if !rec.HasSlot() {
		return Result{Kind: KindNothingToReschedule}
	}
	previous := s.display(rec.Time)

	if sl, ok := s.parser.Parse(ctx, text); ok {
		res := s.reserve(ctx, logger, userID, sl, false)
		res.Previous = previous
		return res
	}

	if _, err := s.bookings.Cancel(ctx, userID); err != nil {
		return s.storeFailure(logger, err)
	}
	res := s.offerMenu(ctx, logger, userID, text)
	res.Previous = previous
	return res
}

func (s *ConversationService) reserve(ctx context.Context, logger *zap.Logger, userID string, sl slot.Slot, fromMenu bool) Result {
	r, err := s.bookings.Reserve(ctx, userID, sl, ReserveOptions{FromMenu: fromMenu})
	if err != nil && !errors.Is(err, ErrSlotTaken) {
		return s.storeFailure(logger, err)
	}

	switch r.Outcome {
	case OutcomeAlreadyBooked:
		return Result{Kind: KindAlreadyBooked, Slot: sl.String()}
	case OutcomeTaken:
		res := Result{Kind: KindSlotTaken, Slot: sl.String()}
		if r.Suggested != nil {
			res.Suggested = r.Suggested.String()
		}
		if fromMenu {
			res.Slots = slotStrings(r.Menu)
		}
		return res
	}

	return Result{Kind: KindBooked, Slot: sl.String(), AskEmail: r.AskEmail}
}

func (s *ConversationService) offerMenu(ctx context.Context, logger *zap.Logger, userID, text string) Result {
	var day *time.Weekday
	if token, ok := slot.FindDay(text, s.parser.Now()); ok {
		wd := token.Weekday
		day = &wd
	}

	menu, err := s.bookings.OfferMenu(ctx, userID, day)
	if err != nil {
		return s.storeFailure(logger, err)
	}
	if len(menu) == 0 {
		return Result{Kind: KindNoSlots}
	}
	return Result{Kind: KindMenuOffered, Slots: slotStrings(menu)}
}

func (s *ConversationService) storeFailure(logger *zap.Logger, err error) Result {
	logger.Error("Booking store unavailable", zap.Error(err))
	return Result{Kind: KindStoreUnavailable}
}

// display канонический вид сохранённого значения, если его удаётся разобрать
func (s *ConversationService) display(stored string) string {
	if sl, ok := s.parser.Canonical(stored); ok {
		return sl.String()
	}
	return stored
}
