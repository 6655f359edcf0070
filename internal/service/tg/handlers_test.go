package tg

import (
	"context"
	"errors"
	"io"
	"testing"

	"field_visits/internal/form"

	"go.uber.org/zap/zaptest"
)

type nopUploader struct{}

func (nopUploader) Upload(context.Context, string, io.Reader) (string, error) {
	return "https://img/x.jpg", nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}

type gateSubmitter struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateSubmitter) Create(context.Context, form.Payload) error {
	if g.started != nil {
		close(g.started)
		<-g.release
	}
	return nil
}

func filledSession(t *testing.T, sub form.Submitter) *session {
	t.Helper()
	f := form.New(form.RealFincorp(), nopUploader{}, sub, nopNotifier{}, zaptest.NewLogger(t))
	for _, field := range form.RealFincorp().Fields {
		if err := f.Set(field.Name, "1"); err != nil {
			t.Fatalf("не удалось заполнить %s: %v", field.Name, err)
		}
	}
	if err := f.Set("visitingDateTime", "2024-01-15T10:30"); err != nil {
		t.Fatalf("не удалось заполнить дату: %v", err)
	}
	return &session{form: f, step: len(form.RealFincorp().Fields)}
}

func TestSessionRestart_Idle(t *testing.T) {
	s := filledSession(t, &gateSubmitter{})

	if err := s.restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if s.currentStep() != 0 {
		t.Errorf("ожидался шаг 0, получен %d", s.currentStep())
	}
	if s.form.State().Get("name") != "" {
		t.Errorf("поля не очищены")
	}
}

func TestSessionRestart_AbortsSaveWaitingForLocation(t *testing.T) {
	s := filledSession(t, &gateSubmitter{})
	ctx := context.Background()

	if err := s.form.BeginSave(ctx, true); err != nil {
		t.Fatalf("BeginSave: %v", err)
	}
	// координаты так и не пришли, пользователь отправляет /cancel
	if err := s.restart(); err != nil {
		t.Fatalf("restart во время ожидания координат: %v", err)
	}
	if loading, _ := s.form.Busy(); loading {
		t.Errorf("флаг сохранения остался поднятым")
	}
	if err := s.form.Set("name", "Ravi"); err != nil {
		t.Errorf("форма осталась заблокированной: %v", err)
	}
}

func TestSessionRestart_RequestInFlight(t *testing.T) {
	sub := &gateSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	s := filledSession(t, sub)
	ctx := context.Background()

	if err := s.form.BeginSave(ctx, true); err != nil {
		t.Fatalf("BeginSave: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.form.FinishSave(ctx, form.Position{}, nil) }()
	<-sub.started

	if err := s.restart(); !errors.Is(err, form.ErrBusy) {
		t.Errorf("ожидалась form.ErrBusy, получено %v", err)
	}
	if s.form.State().Get("name") != "1" {
		t.Errorf("поля очищены во время отправки")
	}

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("FinishSave: %v", err)
	}
	if err := s.restart(); err != nil {
		t.Errorf("restart после сохранения: %v", err)
	}
}
