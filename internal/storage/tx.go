package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/radius"
)

// Tx транзакция хранилища. Все мутации строк одной операции движка
// выполняются через один Tx и фиксируются или откатываются целиком.
type Tx struct {
	tx *sql.Tx
	s  *Storage
}

// Begin открывает транзакцию.
func (s *Storage) Begin(ctx context.Context) (*Tx, error) {
	const op = "storage.Begin"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Tx{tx: tx, s: s}, nil
}

// Commit фиксирует транзакцию.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback откатывает транзакцию. Откат уже завершённой транзакции — no-op.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// SubjectExists проверяет наличие check-строк абонента внутри транзакции.
func (t *Tx) SubjectExists(ctx context.Context, username string) (bool, error) {
	const op = "storage.Tx.SubjectExists"

	query := t.s.rebind(`SELECT 1 FROM ` + t.s.table("radcheck") + ` WHERE username = ? LIMIT 1`)
	var one int
	err := t.tx.QueryRowContext(ctx, query, username).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("%s: %w", op, err)
}

// InsertCheckRow вставляет check-строку (аутентификация).
func (t *Tx) InsertCheckRow(ctx context.Context, username string, row radius.Attribute) error {
	const op = "storage.Tx.InsertCheckRow"

	query := t.s.rebind(`INSERT INTO ` + t.s.table("radcheck") +
		` (username, attribute, op, value) VALUES (?, ?, ?, ?)`)
	if _, err := t.tx.ExecContext(ctx, query, username, row.Name, string(row.Op), row.Value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InsertReplyRow вставляет reply-строку (авторизация).
func (t *Tx) InsertReplyRow(ctx context.Context, username string, row radius.Attribute) error {
	const op = "storage.Tx.InsertReplyRow"

	query := t.s.rebind(`INSERT INTO ` + t.s.table("radreply") +
		` (username, attribute, op, value) VALUES (?, ?, ?, ?)`)
	if _, err := t.tx.ExecContext(ctx, query, username, row.Name, string(row.Op), row.Value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateCheckRow обновляет значение check-атрибута и возвращает число
// затронутых строк. Ноль строк — не ошибка: обновление несуществующего
// абонента по контракту молчаливо ничего не меняет.
func (t *Tx) UpdateCheckRow(ctx context.Context, username, attribute, value string) (int64, error) {
	const op = "storage.Tx.UpdateCheckRow"

	query := t.s.rebind(`UPDATE ` + t.s.table("radcheck") +
		` SET value = ? WHERE username = ? AND attribute = ?`)
	result, err := t.tx.ExecContext(ctx, query, value, username, attribute)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpsertReplyRow обновляет reply-строку, а при её отсутствии вставляет.
// Возвращает true, если произошло обновление существующей строки.
// Порядок update-затем-insert сохраняет идентичность строки и избавляет
// от отдельной проверки существования перед записью.
func (t *Tx) UpsertReplyRow(ctx context.Context, username string, row radius.Attribute) (bool, error) {
	const op = "storage.Tx.UpsertReplyRow"

	update := t.s.rebind(`UPDATE ` + t.s.table("radreply") +
		` SET op = ?, value = ? WHERE username = ? AND attribute = ?`)
	result, err := t.tx.ExecContext(ctx, update, string(row.Op), row.Value, username, row.Name)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return true, nil
	}

	insert := t.s.rebind(`INSERT INTO ` + t.s.table("radreply") +
		` (username, attribute, op, value) VALUES (?, ?, ?, ?)`)
	if _, err := t.tx.ExecContext(ctx, insert, username, row.Name, string(row.Op), row.Value); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return false, nil
}

// DeleteReplyRow удаляет reply-строку по имени атрибута.
func (t *Tx) DeleteReplyRow(ctx context.Context, username, attribute string) (int64, error) {
	const op = "storage.Tx.DeleteReplyRow"

	query := t.s.rebind(`DELETE FROM ` + t.s.table("radreply") +
		` WHERE username = ? AND attribute = ?`)
	result, err := t.tx.ExecContext(ctx, query, username, attribute)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// DeleteSubject удаляет все строки абонента из radcheck, radreply и
// radusergroup, возвращая суммарное число удалённых строк. Вызов для
// несуществующего абонента безопасен и возвращает ноль.
func (t *Tx) DeleteSubject(ctx context.Context, username string) (int64, error) {
	const op = "storage.Tx.DeleteSubject"

	var total int64
	for _, table := range []string{"radcheck", "radreply", "radusergroup"} {
		query := t.s.rebind(`DELETE FROM ` + t.s.table(table) + ` WHERE username = ?`)
		result, err := t.tx.ExecContext(ctx, query, username)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		total += rowsAffected
	}
	return total, nil
}
