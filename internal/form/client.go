package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPSubmitter отправляет запись POST-запросом с JSON-телом.
type HTTPSubmitter struct {
	URL    string
	Client *http.Client
}

func NewHTTPSubmitter(url string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSubmitter{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSubmitter) Create(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = json.Unmarshal(data, &msg)
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, msg.Message)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
