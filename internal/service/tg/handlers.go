package tg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"field_visits/internal/domain"
	"field_visits/internal/form"
	"field_visits/pkg/tgbotapisfm"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	StateStart  = "start"
	StateFill   = "fill"
	StateReview = "review"
	StateLocate = "locate"

	msgSaving = "Saving is in progress, please wait."

	btnSave     = "💾 Save"
	btnLocation = "📍 Share location"

	opTimeout = time.Minute
)

var errLocationDeclined = errors.New("location was not shared")

type session struct {
	mu   sync.Mutex
	form *form.Form
	step int
}

func (s *session) currentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *session) setStep(step int) {
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
}

// restart очищает форму и возвращает к первому полю. Сохранение, которое ждет
// координаты, отменяется. Если запрос уже отправлен, возвращает form.ErrBusy.
func (s *session) restart() error {
	if err := s.form.AbortSave(); err != nil && !errors.Is(err, form.ErrNotSaving) {
		return err
	}
	s.form.Reset()
	s.setStep(0)
	return nil
}

// TGHandler ведет заполнение формы в чате: по одному полю за сообщение.
type TGHandler struct {
	variant   form.Variant
	uploader  domain.ImageUploader
	submitter form.Submitter
	logger    *zap.Logger
	sessions  *gocache.Cache
}

func NewTGHandler(variant form.Variant, uploader domain.ImageUploader, submitter form.Submitter, logger *zap.Logger) *TGHandler {
	return &TGHandler{
		variant:   variant,
		uploader:  uploader,
		submitter: submitter,
		logger:    logger,
		sessions:  gocache.New(24*time.Hour, time.Hour),
	}
}

// chatNotifier показывает сообщения формы в чате.
type chatNotifier struct {
	bot    *tgbotapisfm.Bot
	chatID int64
	logger *zap.Logger
}

func (n chatNotifier) Notify(_ context.Context, message string) {
	if _, err := n.bot.SendMessage(tgbotapi.NewMessage(n.chatID, message)); err != nil {
		n.logger.Error("failed to send notification", zap.Error(err), zap.Int64("chat_id", n.chatID))
	}
}

func (h *TGHandler) session(bot *tgbotapisfm.Bot, chatID int64) *session {
	key := strconv.FormatInt(chatID, 10)
	if x, found := h.sessions.Get(key); found {
		if s, ok := x.(*session); ok {
			h.sessions.Set(key, s, gocache.DefaultExpiration)
			return s
		}
	}
	s := &session{
		form: form.New(h.variant, h.uploader, h.submitter, chatNotifier{bot: bot, chatID: chatID, logger: h.logger}, h.logger),
	}
	h.sessions.Set(key, s, gocache.DefaultExpiration)
	return s
}

func (h *TGHandler) StatesMap() map[string]tgbotapisfm.State {
	return map[string]tgbotapisfm.State{
		StateStart:  h.StartState(),
		StateFill:   h.FillState(),
		StateReview: h.ReviewState(),
		StateLocate: h.LocateState(),
	}
}

// StartState глобальные команды.
func (h *TGHandler) StartState() tgbotapisfm.State {
	return tgbotapisfm.State{
		Global: true,
		MessageHandlers: map[string]tgbotapisfm.Handler{
			"/start":  h.StartHandler(),
			"/cancel": h.CancelHandler(),
		},
	}
}

func (h *TGHandler) StartHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			s := h.session(bot, chatID)
			if err := s.restart(); err != nil {
				return send(bot, chatID, msgSaving, nil)
			}

			if err := bot.SetUserState(update.Message.From.ID, StateFill); err != nil {
				return err
			}
			if err := send(bot, chatID, h.variant.Title, nil); err != nil {
				return err
			}
			return h.prompt(bot, chatID, 0)
		},
	}
}

func (h *TGHandler) CancelHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			s := h.session(bot, chatID)
			if err := s.restart(); err != nil {
				return send(bot, chatID, msgSaving, nil)
			}
			bot.ResetUserState(update.Message.From.ID)
			return send(bot, chatID, "Form cleared. Send /start to fill it again.", tgbotapi.NewRemoveKeyboard(true))
		},
	}
}

// FillState ответы на поля по порядку.
func (h *TGHandler) FillState() tgbotapisfm.State {
	return tgbotapisfm.State{
		CatchAllFunc: &tgbotapisfm.Handler{Handle: h.handleText},
		PhotoHandler: &tgbotapisfm.Handler{Handle: h.handlePhoto},
	}
}

func (h *TGHandler) handleText(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	s := h.session(bot, chatID)
	step := s.currentStep()
	if step >= len(h.variant.Fields) {
		return h.review(bot, update.Message.From.ID, chatID, s)
	}
	field := h.variant.Fields[step]

	value, problem := acceptText(field, update.Message.Text)
	if problem != "" {
		return send(bot, chatID, problem, nil)
	}
	if err := s.form.Set(field.Name, value); err != nil {
		if errors.Is(err, form.ErrBusy) {
			return send(bot, chatID, msgSaving, nil)
		}
		return err
	}
	return h.advance(bot, update.Message.From.ID, chatID, s, step)
}

// handlePhoto загружает снимок в фоне, чтобы не задерживать остальные чаты.
func (h *TGHandler) handlePhoto(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	s := h.session(bot, chatID)
	step := s.currentStep()
	if step >= len(h.variant.Fields) || h.variant.Fields[step].Kind != form.KindImage {
		return send(bot, chatID, "A photo is not expected here.", nil)
	}
	if _, uploading := s.form.Busy(); uploading {
		return send(bot, chatID, "Image is still uploading, please wait.", nil)
	}

	photo := largestPhoto(update.Message.Photo)
	if err := send(bot, chatID, "Uploading...", nil); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		body, err := bot.DownloadFile(ctx, photo.FileID)
		if err != nil {
			h.logger.Error("failed to download photo", zap.Error(err), zap.Int64("chat_id", chatID))
			_ = send(bot, chatID, form.MsgUploadFailed, nil)
			return
		}
		defer body.Close()

		err = s.form.CaptureImage(ctx, photo.FileID+".jpg", body)
		switch {
		case errors.Is(err, form.ErrBusy):
			_ = send(bot, chatID, "Image is still uploading, please wait.", nil)
		case err != nil:
			// сообщение об ошибке уже показала форма
		default:
			if err := h.advance(bot, userID, chatID, s, step); err != nil {
				h.logger.Error("failed to continue form", zap.Error(err), zap.Int64("chat_id", chatID))
			}
		}
	}()
	return nil
}

// advance переходит к следующему полю после step или к проверке формы.
func (h *TGHandler) advance(bot *tgbotapisfm.Bot, userID, chatID int64, s *session, step int) error {
	s.mu.Lock()
	if s.step != step {
		s.mu.Unlock()
		return nil
	}
	s.step = step + 1
	next := s.step
	s.mu.Unlock()

	if next >= len(h.variant.Fields) {
		return h.review(bot, userID, chatID, s)
	}
	return h.prompt(bot, chatID, next)
}

func (h *TGHandler) prompt(bot *tgbotapisfm.Bot, chatID int64, step int) error {
	field := h.variant.Fields[step]
	return send(bot, chatID, promptText(field, step, len(h.variant.Fields)), promptKeyboard(field))
}

func (h *TGHandler) review(bot *tgbotapisfm.Bot, userID, chatID int64, s *session) error {
	if err := bot.SetUserState(userID, StateReview); err != nil {
		return err
	}
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSave)))
	return send(bot, chatID, summary(h.variant, s.form.State())+"\nPress Save to submit or /cancel to start over.", kb)
}

// ReviewState ожидание кнопки сохранения.
func (h *TGHandler) ReviewState() tgbotapisfm.State {
	save := h.SaveHandler()
	return tgbotapisfm.State{
		MessageHandlers: map[string]tgbotapisfm.Handler{
			"💾 save": save,
			"save":   save,
			"/save":  save,
		},
		CatchAllFunc: &tgbotapisfm.Handler{
			Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
				return send(bot, update.Message.Chat.ID, "Press Save to submit or /cancel to start over.", nil)
			},
		},
	}
}

func (h *TGHandler) SaveHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
			chatID, userID := update.Message.Chat.ID, update.Message.From.ID
			s := h.session(bot, chatID)

			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()

			var verr *form.ValidationError
			err := s.form.BeginSave(ctx, true)
			switch {
			case err == nil:
			case errors.Is(err, form.ErrBusy):
				return send(bot, chatID, "Please wait for the image upload to finish.", nil)
			case errors.As(err, &verr):
				// форма уже показала сообщение, возвращаемся к полю
				step := fieldIndex(h.variant, verr.Field)
				s.setStep(step)
				if err := bot.SetUserState(userID, StateFill); err != nil {
					return err
				}
				return h.prompt(bot, chatID, step)
			default:
				return err
			}

			if err := bot.SetUserState(userID, StateLocate); err != nil {
				return err
			}
			btn := tgbotapi.NewKeyboardButtonLocation(btnLocation)
			kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
			kb.OneTimeKeyboard = true
			return send(bot, chatID, "Share your current location to finish saving.", kb)
		},
	}
}

// LocateState ждет геопозицию. Любой другой ответ считается отказом.
func (h *TGHandler) LocateState() tgbotapisfm.State {
	return tgbotapisfm.State{
		LocationHandler: &tgbotapisfm.Handler{
			Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
				loc := update.Message.Location
				return h.finish(bot, update, form.Position{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil)
			},
		},
		CatchAllFunc: &tgbotapisfm.Handler{
			Handle: func(bot *tgbotapisfm.Bot, update tgbotapi.Update) error {
				return h.finish(bot, update, form.Position{}, errLocationDeclined)
			},
		},
	}
}

// finish отправляет запись в фоне, чтобы не задерживать остальные чаты.
func (h *TGHandler) finish(bot *tgbotapisfm.Bot, update tgbotapi.Update, pos form.Position, posErr error) error {
	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	s := h.session(bot, chatID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		err := h.afterSave(bot, userID, chatID, s, s.form.FinishSave(ctx, pos, posErr))
		if err != nil {
			h.logger.Error("failed to continue form", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}()
	return nil
}

func (h *TGHandler) afterSave(bot *tgbotapisfm.Bot, userID, chatID int64, s *session, saveErr error) error {
	switch {
	case errors.Is(saveErr, form.ErrBusy):
		return send(bot, chatID, msgSaving, nil)
	case errors.Is(saveErr, form.ErrNotSaving):
		return nil
	case saveErr != nil:
		// поля сохраняются, пользователь может нажать Save еще раз
		h.logger.Info("save attempt failed", zap.Error(saveErr), zap.Int64("chat_id", chatID))
		return h.review(bot, userID, chatID, s)
	}

	s.setStep(0)
	if err := bot.SetUserState(userID, StateFill); err != nil {
		return err
	}
	return h.prompt(bot, chatID, 0)
}

func fieldIndex(v form.Variant, name string) int {
	for i, f := range v.Fields {
		if f.Name == name {
			return i
		}
	}
	return 0
}

func send(bot *tgbotapisfm.Bot, chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := bot.SendMessage(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
