package tgbotapisfm

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandlerFunc обработчик одного обновления
type HandlerFunc func(bot *Bot, update tgbotapi.Update) error

type Handler struct {
	Handle HandlerFunc
}

// State описывает, как бот реагирует на обновления пользователя в этом состоянии.
//
// Порядок выбора обработчика для сообщения: LocationHandler для геопозиции,
// PhotoHandler для фото, затем MessageHandlers по тексту в нижнем регистре, затем CatchAllFunc.
type State struct {
	Global bool // Состояние проверяется для любого пользователя до его текущего состояния

	AtEntranceFunc   *Handler           // Вызывается при входе через SetUserStateImmediate
	MessageHandlers  map[string]Handler // Ключ - текст сообщения в нижнем регистре
	CallbackHandlers map[string]Handler // Ключ - data callback-кнопки
	CatchAllFunc     *Handler           // Все, для чего не нашлось обработчика
	LocationHandler  *Handler
	PhotoHandler     *Handler
}
