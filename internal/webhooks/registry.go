// Package webhooks реализует реестр веб-хуков и рассылку событий политики.
//
// Реестр хранится в одном JSON-файле и переписывается целиком при каждом
// изменении; одновременные изменения сериализует единый мьютекс процесса.
// Рассылка — best-effort: сбой доставки логируется и никогда не влияет на
// результат операции, которая породила событие.
package webhooks

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// События изменения политики абонентов.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"

	// EventAll подписка на все события.
	EventAll = "*"
)

// Registration одна регистрация веб-хука.
type Registration struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry файловый реестр регистраций.
type Registry struct {
	mu   sync.Mutex
	path string
}

// NewRegistry создает реестр поверх файла path. Файл может не существовать —
// это пустой реестр.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// List возвращает все регистрации.
func (r *Registry) List() ([]Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Add добавляет регистрацию и переписывает файл целиком.
func (r *Registry) Add(url, event string) (Registration, error) {
	const op = "webhooks.Registry.Add"

	r.mu.Lock()
	defer r.mu.Unlock()

	registrations, err := r.load()
	if err != nil {
		return Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	registration := Registration{
		ID:        uuid.NewString(),
		URL:       url,
		Event:     event,
		CreatedAt: time.Now().UTC(),
	}
	registrations = append(registrations, registration)

	if err := r.store(registrations); err != nil {
		return Registration{}, fmt.Errorf("%s: %w", op, err)
	}
	return registration, nil
}

// Remove удаляет регистрацию по id. Возвращает false, если id не найден.
func (r *Registry) Remove(id string) (bool, error) {
	const op = "webhooks.Registry.Remove"

	r.mu.Lock()
	defer r.mu.Unlock()

	registrations, err := r.load()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	kept := registrations[:0]
	removed := false
	for _, registration := range registrations {
		if registration.ID == id {
			removed = true
			continue
		}
		kept = append(kept, registration)
	}
	if !removed {
		return false, nil
	}

	if err := r.store(kept); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (r *Registry) load() ([]Registration, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []Registration{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []Registration{}, nil
	}

	var registrations []Registration
	if err := json.Unmarshal(data, &registrations); err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *Registry) store(registrations []Registration) error {
	data, err := json.MarshalIndent(registrations, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
