// Package subscriber содержит бизнес-логику управления абонентами RADIUS:
// трансляцию канонического описания абонента в строки radcheck/radreply,
// транзакционное применение изменений и рассылку событий после фиксации.
package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/apperr"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/secret"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/sl"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/metrics"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/radius"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/storage"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/webhooks"
)

const cacheTTL = time.Hour

// PolicyStore определяет методы чтения строк политики из хранилища.
type PolicyStore interface {
	// Begin открывает транзакцию; все мутации одной операции
	// выполняются внутри неё.
	Begin(ctx context.Context) (PolicyTx, error)
	// SubjectExists сообщает, есть ли у абонента хоть одна строка.
	SubjectExists(ctx context.Context, username string) (bool, error)
	// ReadCheckValue возвращает значение check-атрибута абонента.
	ReadCheckValue(ctx context.Context, username, attribute string) (string, bool, error)
	// ListReplyRows возвращает reply-строки абонента в порядке вставки.
	ListReplyRows(ctx context.Context, username string) ([]radius.Attribute, error)
	// ListSubjects возвращает страницу логинов и общее количество.
	ListSubjects(ctx context.Context, search string, limit, offset int) ([]string, int, error)
}

// PolicyTx определяет мутации строк политики внутри транзакции.
type PolicyTx interface {
	SubjectExists(ctx context.Context, username string) (bool, error)
	InsertCheckRow(ctx context.Context, username string, row radius.Attribute) error
	InsertReplyRow(ctx context.Context, username string, row radius.Attribute) error
	UpdateCheckRow(ctx context.Context, username, attribute, value string) (int64, error)
	UpsertReplyRow(ctx context.Context, username string, row radius.Attribute) (bool, error)
	DeleteReplyRow(ctx context.Context, username, attribute string) (int64, error)
	DeleteSubject(ctx context.Context, username string) (int64, error)
	Commit() error
	Rollback() error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Notifier рассылает событие после фиксации транзакции. Ошибки доставки
// не влияют на результат операции.
type Notifier interface {
	Dispatch(ctx context.Context, event string, data any)
}

// Service реализует операции над абонентами поверх разделяемой схемы
// radcheck/radreply, включая кеширование и нотификации.
type Service struct {
	store    PolicyStore
	codec    *radius.Codec
	secret   secret.Format
	cache    Cache
	notifier Notifier
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(store PolicyStore, codec *radius.Codec, secretFormat secret.Format, cache Cache, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		codec:    codec,
		secret:   secretFormat,
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

func cacheKey(username string) string {
	return fmt.Sprintf("subscriber:%s", username)
}

// Create создает абонента: одна check-строка с секретом, reply-строки
// полосы по активному профилю и, при наличии, строка пула адресов.
// Повторное создание существующего абонента возвращает конфликт.
func (s *Service) Create(ctx context.Context, req models.CreateSubscriberRequest) (*models.Subscriber, error) {
	const op = "subscriber.Create"

	if req.Username == "" || req.Password == "" || req.Upload == "" || req.Download == "" {
		metrics.PolicyOperations.WithLabelValues("create", "validation").Inc()
		return nil, apperr.Validation("username, password and both bandwidth values are required")
	}

	secretValue, err := s.secret.Encode(req.Password)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
		return nil, apperr.Store("failed to encode secret", fmt.Errorf("%s: %w", op, err))
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
		return nil, apperr.Store("failed to open transaction", fmt.Errorf("%s: %w", op, err))
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := tx.SubjectExists(ctx, req.Username)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
		return nil, apperr.Store("failed to check subscriber", fmt.Errorf("%s: %w", op, err))
	}
	if exists {
		metrics.PolicyOperations.WithLabelValues("create", "conflict").Inc()
		return nil, apperr.Conflict("subscriber already exists")
	}

	checkRow := radius.Attribute{Name: s.secret.Attribute(), Op: radius.OpSet, Value: secretValue}
	if err := tx.InsertCheckRow(ctx, req.Username, checkRow); err != nil {
		// гонка двух создателей разрешается ограничением уникальности
		if storage.IsUniqueViolation(err) {
			metrics.PolicyOperations.WithLabelValues("create", "conflict").Inc()
			return nil, apperr.Conflict("subscriber already exists")
		}
		metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
		return nil, apperr.Store("failed to insert check row", fmt.Errorf("%s: %w", op, err))
	}

	for _, row := range s.codec.EncodeRate(req.Upload, req.Download, false) {
		if err := tx.InsertReplyRow(ctx, req.Username, row); err != nil {
			metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
			return nil, apperr.Store("failed to insert reply row", fmt.Errorf("%s: %w", op, err))
		}
	}

	if req.Plan != "" {
		poolRow := radius.Attribute{Name: radius.AttrFramedPool, Op: radius.OpEqual, Value: req.Plan}
		if err := tx.InsertReplyRow(ctx, req.Username, poolRow); err != nil {
			metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
			return nil, apperr.Store("failed to insert pool row", fmt.Errorf("%s: %w", op, err))
		}
	}

	if err := tx.Commit(); err != nil {
		if storage.IsUniqueViolation(err) {
			metrics.PolicyOperations.WithLabelValues("create", "conflict").Inc()
			return nil, apperr.Conflict("subscriber already exists")
		}
		metrics.PolicyOperations.WithLabelValues("create", "error").Inc()
		return nil, apperr.Store("failed to commit", fmt.Errorf("%s: %w", op, err))
	}

	s.log.Info("created subscriber", slog.String("username", req.Username))
	metrics.PolicyOperations.WithLabelValues("create", "ok").Inc()

	result := &models.Subscriber{
		Username: req.Username,
		Secret:   secretValue,
		Upload:   req.Upload,
		Download: req.Download,
		Plan:     req.Plan,
	}

	if err := s.cache.Set(cacheKey(req.Username), result, cacheTTL); err != nil {
		s.log.Warn("failed to cache subscriber", slog.String("username", req.Username), sl.Err(err))
	}

	go s.notifier.Dispatch(context.WithoutCancel(ctx), webhooks.EventUserCreated, result)

	return result, nil
}

// Update частично обновляет абонента. Секрет и пул меняются независимо,
// скорости — только парой. Поля со значением nil остаются нетронутыми,
// пустой Plan очищает пул. Обновление, не затронувшее ни одной строки,
// не считается ошибкой.
func (s *Service) Update(ctx context.Context, username string, req models.UpdateSubscriberRequest) (*models.Subscriber, error) {
	const op = "subscriber.Update"

	if (req.Upload == nil) != (req.Download == nil) {
		metrics.PolicyOperations.WithLabelValues("update", "validation").Inc()
		return nil, apperr.Validation("bandwidth_up and bandwidth_down must be updated together")
	}
	if req.Password != nil && *req.Password == "" {
		metrics.PolicyOperations.WithLabelValues("update", "validation").Inc()
		return nil, apperr.Validation("password must not be empty")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
		return nil, apperr.Store("failed to open transaction", fmt.Errorf("%s: %w", op, err))
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := tx.SubjectExists(ctx, username)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
		return nil, apperr.Store("failed to check subscriber", fmt.Errorf("%s: %w", op, err))
	}
	if !exists {
		metrics.PolicyOperations.WithLabelValues("update", "not_found").Inc()
		return nil, apperr.NotFound("subscriber not found")
	}

	if req.Password != nil {
		secretValue, err := s.secret.Encode(*req.Password)
		if err != nil {
			metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
			return nil, apperr.Store("failed to encode secret", fmt.Errorf("%s: %w", op, err))
		}
		affected, err := tx.UpdateCheckRow(ctx, username, s.secret.Attribute(), secretValue)
		if err != nil {
			metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
			return nil, apperr.Store("failed to update secret", fmt.Errorf("%s: %w", op, err))
		}
		if affected == 0 {
			// строка секрета могла отсутствовать или иметь другой формат
			row := radius.Attribute{Name: s.secret.Attribute(), Op: radius.OpSet, Value: secretValue}
			if err := tx.InsertCheckRow(ctx, username, row); err != nil {
				metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
				return nil, apperr.Store("failed to insert secret", fmt.Errorf("%s: %w", op, err))
			}
		}
	}

	if req.Upload != nil && req.Download != nil {
		// профили с несколькими строками на один атрибут (Cisco-AVPair)
		// нельзя обновлять по ключу (username, attribute): сперва зачистка
		// старых строк полосы, затем вставка свежих в той же транзакции
		for _, attribute := range s.codec.Profile().RateLimitAttributes() {
			if _, err := tx.DeleteReplyRow(ctx, username, attribute); err != nil {
				metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
				return nil, apperr.Store("failed to clear bandwidth rows", fmt.Errorf("%s: %w", op, err))
			}
		}
		for _, row := range s.codec.EncodeRate(*req.Upload, *req.Download, false) {
			if err := tx.InsertReplyRow(ctx, username, row); err != nil {
				metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
				return nil, apperr.Store("failed to update bandwidth", fmt.Errorf("%s: %w", op, err))
			}
		}
	}

	if req.Plan != nil {
		if *req.Plan == "" {
			if _, err := tx.DeleteReplyRow(ctx, username, radius.AttrFramedPool); err != nil {
				metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
				return nil, apperr.Store("failed to clear pool", fmt.Errorf("%s: %w", op, err))
			}
		} else {
			row := radius.Attribute{Name: radius.AttrFramedPool, Op: radius.OpEqual, Value: *req.Plan}
			if _, err := tx.UpsertReplyRow(ctx, username, row); err != nil {
				metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
				return nil, apperr.Store("failed to update pool", fmt.Errorf("%s: %w", op, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.PolicyOperations.WithLabelValues("update", "error").Inc()
		return nil, apperr.Store("failed to commit", fmt.Errorf("%s: %w", op, err))
	}

	if err := s.cache.Invalidate(cacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("username", username), sl.Err(err))
	}

	s.log.Info("updated subscriber", slog.String("username", username))
	metrics.PolicyOperations.WithLabelValues("update", "ok").Inc()

	result, err := s.read(ctx, username)
	if err != nil {
		return nil, err
	}

	go s.notifier.Dispatch(context.WithoutCancel(ctx), webhooks.EventUserUpdated, result)

	return result, nil
}

// Delete удаляет все строки абонента из radcheck, radreply и radusergroup.
// Отсутствующий абонент возвращает not found, транзакция откатывается.
func (s *Service) Delete(ctx context.Context, username string) error {
	const op = "subscriber.Delete"

	tx, err := s.store.Begin(ctx)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("delete", "error").Inc()
		return apperr.Store("failed to open transaction", fmt.Errorf("%s: %w", op, err))
	}
	defer func() { _ = tx.Rollback() }()

	total, err := tx.DeleteSubject(ctx, username)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("delete", "error").Inc()
		return apperr.Store("failed to delete subscriber", fmt.Errorf("%s: %w", op, err))
	}
	if total == 0 {
		metrics.PolicyOperations.WithLabelValues("delete", "not_found").Inc()
		return apperr.NotFound("subscriber not found")
	}

	if err := tx.Commit(); err != nil {
		metrics.PolicyOperations.WithLabelValues("delete", "error").Inc()
		return apperr.Store("failed to commit", fmt.Errorf("%s: %w", op, err))
	}

	if err := s.cache.Invalidate(cacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("username", username), sl.Err(err))
	}

	s.log.Info("deleted subscriber", slog.String("username", username), slog.Int64("rows", total))
	metrics.PolicyOperations.WithLabelValues("delete", "ok").Inc()

	go s.notifier.Dispatch(context.WithoutCancel(ctx), webhooks.EventUserDeleted,
		map[string]string{"username": username})

	return nil
}

// Get возвращает каноническое описание абонента, используя кеш или хранилище.
func (s *Service) Get(ctx context.Context, username string) (*models.Subscriber, error) {
	var cached *models.Subscriber
	found, err := s.cache.Get(cacheKey(username), &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("username", username), sl.Err(err))
	}
	if found && cached != nil {
		metrics.PolicyOperations.WithLabelValues("get", "ok").Inc()
		return cached, nil
	}

	result, err := s.read(ctx, username)
	if err != nil {
		metrics.PolicyOperations.WithLabelValues("get", string(apperr.KindOf(err))).Inc()
		return nil, err
	}

	if err := s.cache.Set(cacheKey(username), result, cacheTTL); err != nil {
		s.log.Warn("failed to cache subscriber", slog.String("username", username), sl.Err(err))
	}

	metrics.PolicyOperations.WithLabelValues("get", "ok").Inc()
	return result, nil
}

// List возвращает страницу абонентов с необязательным поиском по логину.
func (s *Service) List(ctx context.Context, search string, page, limit int) ([]models.Subscriber, models.Pagination, error) {
	const op = "subscriber.List"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	usernames, total, err := s.store.ListSubjects(ctx, search, limit, offset)
	if err != nil {
		return nil, models.Pagination{}, apperr.Store("failed to list subscribers", fmt.Errorf("%s: %w", op, err))
	}

	subscribers := make([]models.Subscriber, 0, len(usernames))
	for _, username := range usernames {
		sub, err := s.read(ctx, username)
		if err != nil {
			// абонент мог исчезнуть между выборкой логинов и чтением строк
			if apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			return nil, models.Pagination{}, err
		}
		subscribers = append(subscribers, *sub)
	}

	pages := (total + limit - 1) / limit
	pagination := models.Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}

	return subscribers, pagination, nil
}

// read восстанавливает абонента из строк хранилища, минуя кеш.
func (s *Service) read(ctx context.Context, username string) (*models.Subscriber, error) {
	const op = "subscriber.read"

	secretValue, hasSecret, err := s.store.ReadCheckValue(ctx, username, s.secret.Attribute())
	if err != nil {
		return nil, apperr.Store("failed to read check row", fmt.Errorf("%s: %w", op, err))
	}

	rows, err := s.store.ListReplyRows(ctx, username)
	if err != nil {
		return nil, apperr.Store("failed to read reply rows", fmt.Errorf("%s: %w", op, err))
	}

	if !hasSecret && len(rows) == 0 {
		return nil, apperr.NotFound("subscriber not found")
	}

	upload, download := s.codec.DecodeRate(rows)

	var plan string
	for _, row := range rows {
		if row.Name == radius.AttrFramedPool {
			plan = row.Value
			break
		}
	}

	return &models.Subscriber{
		Username: username,
		Secret:   secretValue,
		Upload:   upload,
		Download: download,
		Plan:     plan,
	}, nil
}
