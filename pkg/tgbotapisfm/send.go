package tgbotapisfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const sendTimeout = 30 * time.Second

// SendMessage отправляет сообщение с учетом лимитов Telegram
func (b *Bot) SendMessage(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := b.limiter.Wait(ctx, msg.ChatID); err != nil {
		return tgbotapi.Message{}, err
	}
	return b.BotAPI.Send(msg)
}

// DownloadFile открывает файл, присланный пользователем. Вызывающий закрывает тело.
func (b *Bot) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.BotAPI.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.BotAPI.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
