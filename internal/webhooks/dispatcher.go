package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/metrics"
)

// dispatchTimeout бюджет на один исходящий вызов.
const dispatchTimeout = 5 * time.Second

// EventPublisher необязательный дополнительный канал доставки событий
// (шина RabbitMQ). Сбой публикации так же не влияет на результат операции.
type EventPublisher interface {
	Publish(event string, payload any) error
}

// Payload тело исходящего вызова веб-хука.
type Payload struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher рассылает события по зарегистрированным веб-хукам.
type Dispatcher struct {
	log       *slog.Logger
	registry  *Registry
	publisher EventPublisher
	client    *http.Client
}

// NewDispatcher создает диспетчер. registry может быть nil (веб-хуки
// выключены конфигом), publisher может быть nil (шина не настроена).
func NewDispatcher(log *slog.Logger, registry *Registry, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		log:       log,
		registry:  registry,
		publisher: publisher,
		client:    &http.Client{Timeout: dispatchTimeout},
	}
}

// Dispatch отправляет событие всем регистрациям с совпадающим именем
// события или подпиской "*", по одной попытке на регистрацию. Порядок
// доставки не гарантируется; ошибки логируются и не возвращаются.
//
// Вызывается строго после фиксации транзакции и не влияет на уже
// возвращённый результат операции.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, data any) {
	const op = "webhooks.Dispatch"
	log := d.log.With(slog.String("op", op), slog.String("event", event))

	payload := Payload{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(event, payload); err != nil {
			log.Warn("failed to publish event to bus", sl.Err(err))
		}
	}

	if d.registry == nil {
		return
	}

	registrations, err := d.registry.List()
	if err != nil {
		log.Error("failed to read webhook registry", sl.Err(err))
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal webhook payload", sl.Err(err))
		return
	}

	for _, registration := range registrations {
		if registration.Event != event && registration.Event != EventAll {
			continue
		}
		if err := d.post(ctx, registration.URL, body); err != nil {
			metrics.WebhookDeliveries.WithLabelValues("error").Inc()
			log.Warn("webhook delivery failed",
				slog.String("url", registration.URL),
				slog.String("id", registration.ID),
				sl.Err(err))
			continue
		}
		metrics.WebhookDeliveries.WithLabelValues("ok").Inc()
	}
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}
