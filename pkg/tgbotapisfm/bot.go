package tgbotapisfm

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"field_visits/pkg/zaplogger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Config структура для конфигурации бота
type Config struct {
	Token           string           // Токен бота
	Expiration      time.Duration    // Время хранения состояний пользователя
	CleanupInterval time.Duration    // Интервал очистки кеша
	States          map[string]State // Карта состояний
}

// Bot конечный автомат поверх Telegram Bot API: у каждого пользователя есть текущее состояние.
type Bot struct {
	BotAPI        *tgbotapi.BotAPI // API бота. Экспортируется для доступа к нему из вне
	expiration    time.Duration    // Время хранения состояний пользователя
	limiter       *Limiter         // Лимитер для ограничения количества запросов к API
	cache         *gocache.Cache   // Кеш для хранения состояний пользователей
	logger        *zap.Logger
	states        map[string]State
	globalStates  []State      // Состояния, в которые может перейти пользователь из любого другого
	updateHandler HandlerFunc  // Вызывается при получении любого обновления
	statesMu      sync.RWMutex // Мьютекс для безопасного обновления состояний
	running       atomic.Bool

	IgnoreList []int64 // Список ID пользователей, которые будут игнорироваться
}

// NewBot конструктор нового бота.
// logger - необязательный параметр, если не передан, то будет создан новый логгер
func NewBot(config Config, ignoreList []int64, logger ...*zap.Logger) (*Bot, error) {
	if config.Expiration < 0 {
		return nil, NewValidationError(ErrNegativeExpiration, config.Expiration)
	}
	if config.CleanupInterval < 0 {
		return nil, NewValidationError(ErrNegativeCleanup, config.CleanupInterval)
	}
	if config.Token == "" {
		return nil, ErrInvalidToken
	}

	var (
		zapLogger *zap.Logger
		err       error
	)
	if len(logger) > 0 && logger[0] != nil {
		zapLogger = logger[0]
	} else if zapLogger, err = zaplogger.New(); err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, NewValidationError(ErrTelegramInit, err)
	}

	return newBot(botAPI, config, ignoreList, zapLogger), nil
}

func newBot(api *tgbotapi.BotAPI, config Config, ignoreList []int64, logger *zap.Logger) *Bot {
	b := &Bot{
		BotAPI:     api,
		limiter:    NewLimiter(),
		cache:      gocache.New(config.Expiration, config.CleanupInterval),
		expiration: config.Expiration,
		logger:     logger,
		IgnoreList: ignoreList,
	}
	if config.States == nil {
		config.States = make(map[string]State)
	}
	b.ReplaceStates(config.States)
	return b
}

// SetUpdateHandler устанавливает обработчик всех обновлений. Должен вызываться до Start()
func (b *Bot) SetUpdateHandler(handler HandlerFunc) error {
	if b.running.Load() {
		return NewValidationError(ErrBotStarted, "update handler")
	}
	b.updateHandler = handler
	return nil
}

// Start запускает обработку обновлений в горутине и возвращает канал для ошибок.
// Обработка останавливается при отмене ctx или вызове Stop.
func (b *Bot) Start(ctx context.Context, offset, timeout int) chan error {
	errChan := make(chan error, 1)

	if !b.running.CompareAndSwap(false, true) {
		b.logger.Warn("bot is already running")
		errChan <- ErrBotStarted
		close(errChan)
		return errChan
	}

	b.logger.Info("starting bot", zap.String("username", b.BotAPI.Self.UserName))
	go func() {
		defer close(errChan)
		defer b.running.Store(false)
		if err := b.HandleUpdates(ctx, offset, timeout); err != nil {
			errChan <- err
		}
	}()

	return errChan
}

// Stop останавливает получение обновлений
func (b *Bot) Stop() {
	b.BotAPI.StopReceivingUpdates()
	b.logger.Info("bot updates stopped")
}

// HandleUpdates обрабатывает обновления, пока канал не закроется или ctx не будет отменен
func (b *Bot) HandleUpdates(ctx context.Context, offset, timeout int) error {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = timeout
	updates := b.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.BotAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.Dispatch(update); err != nil {
				return err
			}
		}
	}
}

// Dispatch направляет одно обновление: общий обработчик, глобальные состояния, состояние пользователя.
func (b *Bot) Dispatch(update tgbotapi.Update) error {
	if b.updateHandler != nil {
		if err := b.updateHandler(b, update); err != nil {
			b.logger.Error("update handler failed", zap.Error(err))
			return fmt.Errorf("update handler error: %w", err)
		}
	}

	from := update.SentFrom()
	if from == nil || slices.Contains(b.IgnoreList, from.ID) {
		return nil
	}
	if chat := update.FromChat(); chat != nil && slices.Contains(b.IgnoreList, chat.ID) {
		return nil
	}

	if b.HandleGlobalStates(update) {
		return nil
	}

	stateName, err := b.GetUserState(from.ID)
	if err != nil {
		b.logger.Debug("user has no state", zap.Int64("user_id", from.ID))
		return nil
	}

	b.statesMu.RLock()
	userState, ok := b.states[stateName]
	b.statesMu.RUnlock()
	if !ok {
		b.logger.Error("state not found in states map", zap.String("state", stateName))
		return NewValidationError(ErrStateHandlerNotFound, stateName)
	}

	if _, err := b.SelectHandler(update, &userState); err != nil {
		b.logger.Error("failed to handle user state", zap.Error(err), zap.String("state", stateName))
	}
	return nil
}

// GetUserState возвращает название состояния, в котором находится пользователь
func (b *Bot) GetUserState(userID int64) (string, error) {
	v, ok := b.cache.Get(strconv.FormatInt(userID, 10))
	if !ok {
		return "", ErrStateNotFound
	}

	state, ok := v.(string)
	if !ok {
		return "", ErrInvalidStateType
	}
	return state, nil
}

// SetUserState меняет состояние пользователя
func (b *Bot) SetUserState(userID int64, state string) error {
	b.statesMu.RLock()
	_, ok := b.states[state]
	b.statesMu.RUnlock()

	if !ok {
		return NewValidationError(ErrStateHandlerNotFound, state)
	}

	b.cache.Set(strconv.FormatInt(userID, 10), state, b.expiration)
	return nil
}

func (b *Bot) ResetUserState(userID int64) {
	b.cache.Delete(strconv.FormatInt(userID, 10))
}

// SetUserStateImmediate меняет состояние и вызывает AtEntranceFunc нового состояния с текущим обновлением
func (b *Bot) SetUserStateImmediate(userID int64, state string, update tgbotapi.Update) error {
	if err := b.SetUserState(userID, state); err != nil {
		return err
	}

	b.statesMu.RLock()
	newState := b.states[state]
	b.statesMu.RUnlock()

	if newState.AtEntranceFunc != nil {
		if err := newState.AtEntranceFunc.Handle(b, update); err != nil {
			b.logger.Error("failed to handle entrance function", zap.Error(err), zap.String("state", state))
			return err
		}
	}
	return nil
}

// HandleGlobalStates возвращает true, если обновление обработано одним из глобальных состояний.
func (b *Bot) HandleGlobalStates(update tgbotapi.Update) bool {
	b.statesMu.RLock()
	globals := b.globalStates
	b.statesMu.RUnlock()

	for i := range globals {
		found, err := b.selectStrict(update, &globals[i])
		if err != nil {
			b.logger.Error("failed to handle global state", zap.Error(err))
		}
		if found {
			return true
		}
	}
	return false
}

// selectStrict для глобальных состояний: только точные совпадения текста и callback, без CatchAllFunc.
func (b *Bot) selectStrict(update tgbotapi.Update, state *State) (bool, error) {
	switch {
	case update.Message != nil && state.MessageHandlers != nil:
		h, ok := state.MessageHandlers[messageKey(update.Message.Text)]
		if !ok {
			return false, nil
		}
		return true, h.Handle(b, update)
	case update.CallbackQuery != nil && state.CallbackHandlers != nil:
		h, ok := state.CallbackHandlers[update.CallbackQuery.Data]
		if !ok {
			return false, nil
		}
		return true, h.Handle(b, update)
	}
	return false, nil
}

// SelectHandler выбирает обработчик состояния. Возвращает true, если сработал именной обработчик.
func (b *Bot) SelectHandler(update tgbotapi.Update, state *State) (bool, error) {
	switch {
	case update.Message != nil:
		return b.handleMessage(state, update)
	case update.CallbackQuery != nil:
		return b.handleCallback(state, update)
	}
	return false, nil
}

func (b *Bot) handleMessage(state *State, update tgbotapi.Update) (bool, error) {
	msg := update.Message

	switch {
	case msg.Location != nil && state.LocationHandler != nil:
		return true, state.LocationHandler.Handle(b, update)
	case len(msg.Photo) > 0 && state.PhotoHandler != nil:
		return true, state.PhotoHandler.Handle(b, update)
	}

	if h, ok := state.MessageHandlers[messageKey(msg.Text)]; ok {
		if err := h.Handle(b, update); err != nil {
			return true, err
		}
		b.logger.Info("command handled",
			zap.String("command", msg.Text),
			zap.Int64("chat_id", msg.Chat.ID),
		)
		return true, nil
	}

	if state.CatchAllFunc != nil {
		return false, state.CatchAllFunc.Handle(b, update)
	}

	b.logger.Info("command not found",
		zap.String("command", msg.Text),
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("username", msg.Chat.UserName),
	)
	return false, nil
}

func (b *Bot) handleCallback(state *State, update tgbotapi.Update) (bool, error) {
	cq := update.CallbackQuery

	if h, ok := state.CallbackHandlers[cq.Data]; ok {
		if err := h.Handle(b, update); err != nil {
			return true, err
		}
		b.logger.Info("callback handled",
			zap.String("callback", cq.Data),
			zap.Int64("user_id", cq.From.ID),
		)
		return true, nil
	}

	if state.CatchAllFunc != nil {
		return false, state.CatchAllFunc.Handle(b, update)
	}

	b.logger.Info("callback not found",
		zap.String("callback", cq.Data),
		zap.Int64("user_id", cq.From.ID),
	)
	return false, nil
}

// ReplaceStates безопасно заменяет все состояния бота на новые
func (b *Bot) ReplaceStates(newStates map[string]State) {
	globals := make([]State, 0)
	for _, state := range newStates {
		if state.Global {
			globals = append(globals, state)
		}
	}

	b.statesMu.Lock()
	b.states = newStates
	b.globalStates = globals
	b.statesMu.Unlock()
}

func messageKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
