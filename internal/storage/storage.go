// Package storage реализует хранилище строк политики поверх общей
// реляционной схемы RADIUS (radcheck/radreply/radusergroup).
//
// Схема принадлежит внешнему AAA-серверу, поэтому драйвер и префикс таблиц
// задаются конфигом. Все мутации одной операции движка выполняются внутри
// одной транзакции (Tx); изоляцию обеспечивает сама база.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	// Регистрация драйверов для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DriverPgx имя драйвера PostgreSQL (pgx stdlib).
const DriverPgx = "pgx"

// DriverMySQL имя драйвера MySQL.
const DriverMySQL = "mysql"

// DriverSQLite имя драйвера SQLite.
const DriverSQLite = "sqlite3"

// Storage инкапсулирует соединение с базой RADIUS.
type Storage struct {
	DB     *sql.DB
	driver string
	prefix string
}

// New создаёт подключение к базе RADIUS выбранным драйвером.
func New(driver, connectionString, tablePrefix string) (*Storage, error) {
	const op = "storage.New"

	switch driver {
	case DriverPgx, DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:     db,
		driver: driver,
		prefix: tablePrefix,
	}, nil
}

// Driver возвращает имя активного драйвера.
func (s *Storage) Driver() string {
	return s.driver
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) table(name string) string {
	return s.prefix + name
}

// rebind переводит '?'-плейсхолдеры в '$n' для PostgreSQL.
func (s *Storage) rebind(query string) string {
	if s.driver != DriverPgx {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation сообщает, вызвана ли ошибка нарушением уникального
// ключа. Именно это и делает проигравшего в гонке одновременных create
// носителем Conflict, а не молчаливым перезаписывателем.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
