package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SV-Com/RADIUS-Remote-Client/internal/radius"
)

// SubjectExists проверяет наличие хотя бы одной check-строки абонента.
func (s *Storage) SubjectExists(ctx context.Context, username string) (bool, error) {
	const op = "storage.SubjectExists"

	query := s.rebind(`SELECT 1 FROM ` + s.table("radcheck") + ` WHERE username = ? LIMIT 1`)
	var one int
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("%s: %w", op, err)
}

// ReadCheckValue возвращает значение check-атрибута абонента.
// Второй результат false означает отсутствие строки.
func (s *Storage) ReadCheckValue(ctx context.Context, username, attribute string) (string, bool, error) {
	const op = "storage.ReadCheckValue"

	query := s.rebind(`SELECT value FROM ` + s.table("radcheck") +
		` WHERE username = ? AND attribute = ? LIMIT 1`)
	var value string
	err := s.DB.QueryRowContext(ctx, query, username, attribute).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

// ListReplyRows возвращает все reply-строки абонента в порядке вставки.
func (s *Storage) ListReplyRows(ctx context.Context, username string) ([]radius.Attribute, error) {
	const op = "storage.ListReplyRows"

	query := s.rebind(`SELECT attribute, op, value FROM ` + s.table("radreply") +
		` WHERE username = ? ORDER BY id ASC`)
	rows, err := s.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []radius.Attribute
	for rows.Next() {
		var item radius.Attribute
		var opValue string
		if err := rows.Scan(&item.Name, &opValue, &item.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.Op = radius.Operator(opValue)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListSubjects возвращает страницу логинов, опционально отфильтрованную
// подстрокой, и общее число абонентов под фильтром.
func (s *Storage) ListSubjects(ctx context.Context, search string, limit, offset int) ([]string, int, error) {
	const op = "storage.ListSubjects"

	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE username LIKE ?`
		args = append(args, "%"+search+"%")
	}

	countQuery := s.rebind(`SELECT COUNT(DISTINCT username) FROM ` + s.table("radcheck") + where)
	var total int
	if err := s.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := s.rebind(`SELECT DISTINCT username FROM ` + s.table("radcheck") + where +
		` ORDER BY username ASC LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, username)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}
