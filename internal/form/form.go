package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"field_visits/internal/domain"

	"go.uber.org/zap"
)

const (
	MsgUploadFailed   = "Image upload failed!"
	MsgGeoUnsupported = "Geolocation is not supported by your browser."
	MsgGeoFailed      = "Unable to fetch location. Please enable GPS."
	MsgSaved          = "Data saved successfully!"
	MsgSaveFailed     = "Failed to save data."
)

var (
	ErrBusy           = errors.New("form: operation in progress")
	ErrGeoUnsupported = errors.New("form: geolocation unavailable")
	ErrNotSaving      = errors.New("form: save was not started")
	ErrUnknownField   = errors.New("form: unknown field")
)

// Notifier показывает пользователю сообщение.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator однократно запрашивает координаты устройства.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Payload тело запроса создания: строковые поля и координаты.
type Payload map[string]any

type Submitter interface {
	Create(ctx context.Context, payload Payload) error
}

// Form одна заполняемая форма. Одновременно допускается одна загрузка снимка и одно сохранение.
type Form struct {
	variant   Variant
	uploader  domain.ImageUploader
	submitter Submitter
	notifier  Notifier
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	pending    State
	loading    bool
	uploading  bool
	submitting bool
}

func New(variant Variant, uploader domain.ImageUploader, submitter Submitter, notifier Notifier, logger *zap.Logger) *Form {
	return &Form{
		variant:   variant,
		uploader:  uploader,
		submitter: submitter,
		notifier:  notifier,
		logger:    logger,
		state:     NewState(variant),
	}
}

func (f *Form) Variant() Variant {
	return f.variant
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy состояние флагов сохранения и загрузки.
func (f *Form) Busy() (loading, uploading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading, f.uploading
}

// Set меняет одно поле. Во время сохранения форма заблокирована.
func (f *Form) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Has(name) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if f.loading {
		return ErrBusy
	}
	f.state = f.state.With(name, value)
	return nil
}

// Reset очищает все поля.
func (f *Form) Reset() {
	f.mu.Lock()
	f.state = f.state.Reset()
	f.mu.Unlock()
}

// CaptureImage загружает снимок и сохраняет его URL в customerImage.
// При ошибке поле не меняется. Флаг загрузки снимается на любом пути.
func (f *Form) CaptureImage(ctx context.Context, filename string, r io.Reader) error {
	f.mu.Lock()
	if f.uploading || f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.uploading = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.uploading = false
		f.mu.Unlock()
	}()

	url, err := f.uploader.Upload(ctx, filename, r)
	if err != nil {
		f.logger.Error("image upload failed", zap.Error(err), zap.String("file", filename))
		f.notifier.Notify(ctx, MsgUploadFailed)
		return fmt.Errorf("upload image: %w", err)
	}

	f.mu.Lock()
	f.state = f.state.With(ImageField, url)
	f.mu.Unlock()
	return nil
}

// BeginSave проверяет форму и поднимает флаг сохранения.
// Ошибка валидации или отсутствие геолокации не оставляют флаг поднятым.
func (f *Form) BeginSave(ctx context.Context, geoAvailable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading || f.uploading {
		return ErrBusy
	}

	if err := Validate(f.variant, f.state); err != nil {
		f.notifier.Notify(ctx, err.Error())
		return err
	}

	if !geoAvailable {
		f.notifier.Notify(ctx, MsgGeoUnsupported)
		return ErrGeoUnsupported
	}

	f.loading = true
	f.pending = f.state
	return nil
}

// FinishSave завершает сохранение, начатое BeginSave, с результатом запроса координат.
// Повторный вызов, пока запрос еще выполняется, возвращает ErrBusy.
func (f *Form) FinishSave(ctx context.Context, pos Position, posErr error) error {
	f.mu.Lock()
	if !f.loading {
		f.mu.Unlock()
		return ErrNotSaving
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.submitting = true
	pending := f.pending
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.loading = false
		f.submitting = false
		f.pending = State{}
		f.mu.Unlock()
	}()

	if posErr != nil {
		f.logger.Warn("location unavailable", zap.Error(posErr))
		f.notifier.Notify(ctx, MsgGeoFailed)
		return fmt.Errorf("get location: %w", posErr)
	}

	payload := make(Payload, len(f.variant.Fields)+2)
	for k, v := range pending.Values() {
		payload[k] = v
	}
	payload["latitude"] = pos.Latitude
	payload["longitude"] = pos.Longitude

	if err := f.submitter.Create(ctx, payload); err != nil {
		f.logger.Error("save failed", zap.Error(err), zap.String("variant", f.variant.Name))
		f.notifier.Notify(ctx, MsgSaveFailed)
		return fmt.Errorf("create record: %w", err)
	}

	f.mu.Lock()
	f.state = f.state.Reset()
	f.mu.Unlock()

	f.notifier.Notify(ctx, MsgSaved)
	return nil
}

// AbortSave отменяет сохранение, которое ждет координаты. Поля не меняются.
// Если запрос уже отправлен, возвращает ErrBusy.
func (f *Form) AbortSave() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loading {
		return ErrNotSaving
	}
	if f.submitting {
		return ErrBusy
	}
	f.loading = false
	f.pending = State{}
	return nil
}

// Save весь цикл сохранения. nil locator означает, что геолокация недоступна.
func (f *Form) Save(ctx context.Context, locator Locator) error {
	if err := f.BeginSave(ctx, locator != nil); err != nil {
		return err
	}
	pos, err := locator.CurrentPosition(ctx)
	return f.FinishSave(ctx, pos, err)
}
