package tgbotapisfm

import (
	"context"
	"sync"
	"time"
)

// Лимиты Telegram: около 30 сообщений в секунду на бота и одно в секунду в чат.
const (
	defaultGlobalPause = time.Second / 30
	defaultChatPause   = time.Second
)

// Limiter выдерживает паузы между отправками: общую и отдельную для каждого чата.
type Limiter struct {
	mu          sync.Mutex
	globalPause time.Duration
	chatPause   time.Duration
	next        time.Time
	nextByChat  map[int64]time.Time
	now         func() time.Time
}

func NewLimiter() *Limiter {
	return NewLimiterWithPauses(defaultGlobalPause, defaultChatPause)
}

func NewLimiterWithPauses(global, chat time.Duration) *Limiter {
	return &Limiter{
		globalPause: global,
		chatPause:   chat,
		nextByChat:  make(map[int64]time.Time),
		now:         time.Now,
	}
}

// Reserve резервирует слот отправки в чат и возвращает, сколько нужно подождать.
func (l *Limiter) Reserve(chatID int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	at := now
	if l.next.After(at) {
		at = l.next
	}
	if chatNext, ok := l.nextByChat[chatID]; ok && chatNext.After(at) {
		at = chatNext
	}

	l.next = at.Add(l.globalPause)
	l.nextByChat[chatID] = at.Add(l.chatPause)

	l.forget(now)
	return at.Sub(now)
}

// Wait блокируется до своего слота или отмены ctx.
func (l *Limiter) Wait(ctx context.Context, chatID int64) error {
	delay := l.Reserve(chatID)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forget удаляет чаты, чьи паузы уже истекли.
func (l *Limiter) forget(now time.Time) {
	if len(l.nextByChat) < 1024 {
		return
	}
	for id, t := range l.nextByChat {
		if t.Before(now) {
			delete(l.nextByChat, id)
		}
	}
}
