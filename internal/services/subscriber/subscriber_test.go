package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/apperr"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/lib/secret"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/models"
	"github.com/SV-Com/RADIUS-Remote-Client/internal/radius"
)

type StoreMock struct{ mock.Mock }

func (m *StoreMock) Begin(ctx context.Context) (PolicyTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(PolicyTx), args.Error(1)
}
func (m *StoreMock) SubjectExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *StoreMock) ReadCheckValue(ctx context.Context, username, attribute string) (string, bool, error) {
	args := m.Called(ctx, username, attribute)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *StoreMock) ListReplyRows(ctx context.Context, username string) ([]radius.Attribute, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]radius.Attribute), args.Error(1)
}
func (m *StoreMock) ListSubjects(ctx context.Context, search string, limit, offset int) ([]string, int, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Int(1), args.Error(2)
}

type TxMock struct{ mock.Mock }

func (m *TxMock) SubjectExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *TxMock) InsertCheckRow(ctx context.Context, username string, row radius.Attribute) error {
	return m.Called(ctx, username, row).Error(0)
}
func (m *TxMock) InsertReplyRow(ctx context.Context, username string, row radius.Attribute) error {
	return m.Called(ctx, username, row).Error(0)
}
func (m *TxMock) UpdateCheckRow(ctx context.Context, username, attribute, value string) (int64, error) {
	args := m.Called(ctx, username, attribute, value)
	return args.Get(0).(int64), args.Error(1)
}
func (m *TxMock) UpsertReplyRow(ctx context.Context, username string, row radius.Attribute) (bool, error) {
	args := m.Called(ctx, username, row)
	return args.Bool(0), args.Error(1)
}
func (m *TxMock) DeleteReplyRow(ctx context.Context, username, attribute string) (int64, error) {
	args := m.Called(ctx, username, attribute)
	return args.Get(0).(int64), args.Error(1)
}
func (m *TxMock) DeleteSubject(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}
func (m *TxMock) Commit() error   { return m.Called().Error(0) }
func (m *TxMock) Rollback() error { return m.Called().Error(0) }

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

// notifierStub собирает события через канал, чтобы тест мог дождаться
// отправки из горутины.
type notifierStub struct {
	events chan string
}

func newNotifierStub() *notifierStub {
	return &notifierStub{events: make(chan string, 4)}
}

func (n *notifierStub) Dispatch(_ context.Context, event string, _ any) {
	n.events <- event
}

func (n *notifierStub) wait(t *testing.T) string {
	t.Helper()
	select {
	case event := <-n.events:
		return event
	case <-time.After(time.Second):
		t.Fatal("no event dispatched")
		return ""
	}
}

func (n *notifierStub) none(t *testing.T) {
	t.Helper()
	select {
	case event := <-n.events:
		t.Fatalf("unexpected event dispatched: %s", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(store PolicyStore, cache Cache, notifier Notifier) *Service {
	return newProfileService(radius.Mikrotik, store, cache, notifier)
}

func newProfileService(profile radius.Profile, store PolicyStore, cache Cache, notifier Notifier) *Service {
	codec := radius.NewCodec(profile)
	return New(store, codec, secret.FormatCleartext, cache, notifier, newNoopLogger())
}

var createReq = models.CreateSubscriberRequest{
	Username: "alice",
	Password: "s3cret",
	Upload:   "50M",
	Download: "20M",
	Plan:     "pool1",
}

func TestService_Create(t *testing.T) {
	checkRow := radius.Attribute{Name: "Cleartext-Password", Op: radius.OpSet, Value: "s3cret"}
	rateRow := radius.Attribute{Name: "Mikrotik-Rate-Limit", Op: radius.OpEqual, Value: "50M/20M"}
	poolRow := radius.Attribute{Name: "Framed-Pool", Op: radius.OpEqual, Value: "pool1"}

	t.Run("успешное создание", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(false, nil).Once()
		tx.On("InsertCheckRow", mock.Anything, "alice", checkRow).Return(nil).Once()
		tx.On("InsertReplyRow", mock.Anything, "alice", rateRow).Return(nil).Once()
		tx.On("InsertReplyRow", mock.Anything, "alice", poolRow).Return(nil).Once()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Set", "subscriber:alice", mock.Anything, time.Hour).Return(nil).Once()

		svc := newService(store, cache, notifier)
		got, err := svc.Create(context.Background(), createReq)

		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "50M", got.Upload)
		assert.Equal(t, "user.created", notifier.wait(t))

		store.AssertExpectations(t)
		tx.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("валидация до открытия транзакции", func(t *testing.T) {
		store, cache := new(StoreMock), new(CacheMock)
		notifier := newNotifierStub()

		svc := newService(store, cache, notifier)
		_, err := svc.Create(context.Background(), models.CreateSubscriberRequest{Username: "alice"})

		assert.True(t, apperr.Is(err, apperr.KindValidation))
		store.AssertNotCalled(t, "Begin", mock.Anything)
		notifier.none(t)
	})

	t.Run("конфликт при существующем абоненте", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(true, nil).Once()
		tx.On("Rollback").Return(nil).Once()

		svc := newService(store, cache, notifier)
		_, err := svc.Create(context.Background(), createReq)

		assert.True(t, apperr.Is(err, apperr.KindConflict))
		tx.AssertNotCalled(t, "Commit")
		notifier.none(t)
	})

	t.Run("откат при сбое вставки reply-строки", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(false, nil).Once()
		tx.On("InsertCheckRow", mock.Anything, "alice", checkRow).Return(nil).Once()
		tx.On("InsertReplyRow", mock.Anything, "alice", rateRow).Return(errors.New("connection lost")).Once()
		tx.On("Rollback").Return(nil).Once()

		svc := newService(store, cache, notifier)
		_, err := svc.Create(context.Background(), createReq)

		assert.True(t, apperr.Is(err, apperr.KindStore))
		tx.AssertNotCalled(t, "Commit")
		notifier.none(t)
	})
}

func TestService_Update(t *testing.T) {
	password := "newpass"
	upload, download := "100M", "40M"
	rateRow := radius.Attribute{Name: "Mikrotik-Rate-Limit", Op: radius.OpEqual, Value: "100M/40M"}

	t.Run("обновление секрета и полосы", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(true, nil).Once()
		tx.On("UpdateCheckRow", mock.Anything, "alice", "Cleartext-Password", "newpass").
			Return(int64(1), nil).Once()
		tx.On("DeleteReplyRow", mock.Anything, "alice", "Mikrotik-Rate-Limit").
			Return(int64(1), nil).Once()
		tx.On("InsertReplyRow", mock.Anything, "alice", rateRow).Return(nil).Once()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Invalidate", "subscriber:alice").Return(nil).Once()

		store.On("ReadCheckValue", mock.Anything, "alice", "Cleartext-Password").
			Return("newpass", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, "alice").
			Return([]radius.Attribute{rateRow}, nil).Once()

		svc := newService(store, cache, notifier)
		got, err := svc.Update(context.Background(), "alice", models.UpdateSubscriberRequest{
			Password: &password,
			Upload:   &upload,
			Download: &download,
		})

		require.NoError(t, err)
		assert.Equal(t, "100M", got.Upload)
		assert.Equal(t, "40M", got.Download)
		assert.Equal(t, "user.updated", notifier.wait(t))

		store.AssertExpectations(t)
		tx.AssertExpectations(t)
	})

	t.Run("скорости меняются только парой", func(t *testing.T) {
		store, cache := new(StoreMock), new(CacheMock)
		notifier := newNotifierStub()

		svc := newService(store, cache, notifier)
		_, err := svc.Update(context.Background(), "alice", models.UpdateSubscriberRequest{
			Upload: &upload,
		})

		assert.True(t, apperr.Is(err, apperr.KindValidation))
		store.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("отсутствующий секрет вставляется заново", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(true, nil).Once()
		tx.On("UpdateCheckRow", mock.Anything, "alice", "Cleartext-Password", "newpass").
			Return(int64(0), nil).Once()
		tx.On("InsertCheckRow", mock.Anything, "alice", radius.Attribute{
			Name: "Cleartext-Password", Op: radius.OpSet, Value: "newpass",
		}).Return(nil).Once()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Invalidate", "subscriber:alice").Return(nil).Once()

		store.On("ReadCheckValue", mock.Anything, "alice", "Cleartext-Password").
			Return("newpass", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, "alice").
			Return([]radius.Attribute{}, nil).Once()

		svc := newService(store, cache, notifier)
		_, err := svc.Update(context.Background(), "alice", models.UpdateSubscriberRequest{
			Password: &password,
		})

		require.NoError(t, err)
		tx.AssertExpectations(t)
	})

	t.Run("очистка пула пустой строкой", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()
		empty := ""

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(true, nil).Once()
		tx.On("DeleteReplyRow", mock.Anything, "alice", "Framed-Pool").
			Return(int64(1), nil).Once()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Invalidate", "subscriber:alice").Return(nil).Once()

		store.On("ReadCheckValue", mock.Anything, "alice", "Cleartext-Password").
			Return("s3cret", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, "alice").
			Return([]radius.Attribute{}, nil).Once()

		svc := newService(store, cache, notifier)
		got, err := svc.Update(context.Background(), "alice", models.UpdateSubscriberRequest{
			Plan: &empty,
		})

		require.NoError(t, err)
		assert.Empty(t, got.Plan)
		tx.AssertExpectations(t)
	})

	t.Run("cisco: полоса переписывается зачисткой и вставкой", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()
		codec := radius.NewCodec(radius.Cisco)

		// обе строки Cisco-AVPair делят одно имя атрибута, обновление по
		// ключу (username, attribute) затёрло бы их одним значением
		var inserted []radius.Attribute
		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "alice").Return(true, nil).Once()
		tx.On("DeleteReplyRow", mock.Anything, "alice", "Cisco-AVPair").
			Return(int64(2), nil).Once()
		tx.On("InsertReplyRow", mock.Anything, "alice", mock.Anything).
			Run(func(args mock.Arguments) {
				inserted = append(inserted, args.Get(2).(radius.Attribute))
			}).Return(nil).Twice()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Invalidate", "subscriber:alice").Return(nil).Once()

		store.On("ReadCheckValue", mock.Anything, "alice", "Cleartext-Password").
			Return("s3cret", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, "alice").
			Return(codec.EncodeRate("10M", "20M", false), nil).Once()

		ciscoUp, ciscoDown := "10M", "20M"
		svc := newProfileService(radius.Cisco, store, cache, notifier)
		got, err := svc.Update(context.Background(), "alice", models.UpdateSubscriberRequest{
			Upload:   &ciscoUp,
			Download: &ciscoDown,
		})

		require.NoError(t, err)
		require.Len(t, inserted, 2)
		assert.NotEqual(t, inserted[0].Value, inserted[1].Value)

		upload, download := codec.DecodeRate(inserted)
		assert.Equal(t, "10M", upload)
		assert.Equal(t, "20M", download)
		assert.Equal(t, "10M", got.Upload)
		assert.Equal(t, "20M", got.Download)

		tx.AssertExpectations(t)
		tx.AssertNotCalled(t, "UpsertReplyRow", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("неизвестный абонент", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("SubjectExists", mock.Anything, "ghost").Return(false, nil).Once()
		tx.On("Rollback").Return(nil).Once()

		svc := newService(store, cache, notifier)
		_, err := svc.Update(context.Background(), "ghost", models.UpdateSubscriberRequest{
			Password: &password,
		})

		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		tx.AssertNotCalled(t, "Commit")
		notifier.none(t)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("удаление всех строк", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("DeleteSubject", mock.Anything, "alice").Return(int64(3), nil).Once()
		tx.On("Commit").Return(nil).Once()
		tx.On("Rollback").Return(nil)
		cache.On("Invalidate", "subscriber:alice").Return(nil).Once()

		svc := newService(store, cache, notifier)
		err := svc.Delete(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "user.deleted", notifier.wait(t))
		tx.AssertExpectations(t)
	})

	t.Run("неизвестный абонент откатывает транзакцию", func(t *testing.T) {
		store, tx, cache := new(StoreMock), new(TxMock), new(CacheMock)
		notifier := newNotifierStub()

		store.On("Begin", mock.Anything).Return(tx, nil).Once()
		tx.On("DeleteSubject", mock.Anything, "ghost").Return(int64(0), nil).Once()
		tx.On("Rollback").Return(nil).Once()

		svc := newService(store, cache, notifier)
		err := svc.Delete(context.Background(), "ghost")

		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		tx.AssertNotCalled(t, "Commit")
		notifier.none(t)
	})
}

func TestService_Get(t *testing.T) {
	rateRow := radius.Attribute{Name: "Mikrotik-Rate-Limit", Op: radius.OpEqual, Value: "50M/20M"}
	poolRow := radius.Attribute{Name: "Framed-Pool", Op: radius.OpEqual, Value: "pool1"}

	t.Run("чтение из хранилища с прогревом кеша", func(t *testing.T) {
		store, cache := new(StoreMock), new(CacheMock)
		notifier := newNotifierStub()

		cache.On("Get", "subscriber:alice", mock.Anything).Return(false, nil).Once()
		store.On("ReadCheckValue", mock.Anything, "alice", "Cleartext-Password").
			Return("s3cret", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, "alice").
			Return([]radius.Attribute{rateRow, poolRow}, nil).Once()
		cache.On("Set", "subscriber:alice", mock.Anything, time.Hour).Return(nil).Once()

		svc := newService(store, cache, notifier)
		got, err := svc.Get(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "50M", got.Upload)
		assert.Equal(t, "20M", got.Download)
		assert.Equal(t, "pool1", got.Plan)

		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("неизвестный абонент", func(t *testing.T) {
		store, cache := new(StoreMock), new(CacheMock)
		notifier := newNotifierStub()

		cache.On("Get", "subscriber:ghost", mock.Anything).Return(false, nil).Once()
		store.On("ReadCheckValue", mock.Anything, "ghost", "Cleartext-Password").
			Return("", false, nil).Once()
		store.On("ListReplyRows", mock.Anything, "ghost").
			Return([]radius.Attribute{}, nil).Once()

		svc := newService(store, cache, notifier)
		_, err := svc.Get(context.Background(), "ghost")

		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestService_List(t *testing.T) {
	rateRow := radius.Attribute{Name: "Mikrotik-Rate-Limit", Op: radius.OpEqual, Value: "50M/20M"}

	store, cache := new(StoreMock), new(CacheMock)
	notifier := newNotifierStub()

	store.On("ListSubjects", mock.Anything, "", 2, 2).
		Return([]string{"carol", "dave"}, 5, nil).Once()
	for _, username := range []string{"carol", "dave"} {
		store.On("ReadCheckValue", mock.Anything, username, "Cleartext-Password").
			Return("pw", true, nil).Once()
		store.On("ListReplyRows", mock.Anything, username).
			Return([]radius.Attribute{rateRow}, nil).Once()
	}

	svc := newService(store, cache, notifier)
	subscribers, pagination, err := svc.List(context.Background(), "", 2, 2)

	require.NoError(t, err)
	require.Len(t, subscribers, 2)
	assert.Equal(t, "carol", subscribers[0].Username)
	assert.Equal(t, models.Pagination{Total: 5, Page: 2, Limit: 2, Pages: 3}, pagination)

	store.AssertExpectations(t)
}
