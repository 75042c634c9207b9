// Package migrations запускает миграции схемы RADIUS.
//
// В типовой инсталляции схема уже создана AAA-сервером и миграции не
// нужны; запуск включается конфигом и используется для автономных или
// тестовых развертываний.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Run применяет миграции из path к базе под выбранным драйвером.
func Run(db *sql.DB, driver, path string) error {
	const op = "migrations.Run"

	var (
		instance database.Driver
		name     string
		err      error
	)
	switch driver {
	case "pgx":
		instance, err = pgxv5.WithInstance(db, &pgxv5.Config{})
		name = "pgx_v5"
	case "mysql":
		instance, err = migratemysql.WithInstance(db, &migratemysql.Config{})
		name = "mysql"
	case "sqlite3":
		instance, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
		name = "sqlite3"
	default:
		return fmt.Errorf("%s: unsupported driver %q", op, driver)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, name, instance)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
