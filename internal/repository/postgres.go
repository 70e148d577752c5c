// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Schema определяет, какому сервису принадлежит база данных и какие миграции к ней применяются.
type Schema string

const (
	SchemaLoyalty     Schema = "loyalty"
	SchemaPayment     Schema = "payment"
	SchemaReservation Schema = "reservation"
)

var (
	// ErrLoyaltyExists возвращается при попытке повторно зарегистрировать пользователя в программе лояльности.
	ErrLoyaltyExists = errors.New("loyalty account already exists")
	// ErrLoyaltyNotFound возвращается, если счёт лояльности не найден.
	ErrLoyaltyNotFound = errors.New("loyalty account not found")
	// ErrCountConflict возвращается, если счётчик бронирований изменился с момента чтения.
	ErrCountConflict = errors.New("reservation count changed concurrently")
	// ErrReservationNotFound возвращается, если бронирование не найдено.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationCanceled возвращается при попытке изменить отменённое бронирование.
	ErrReservationCanceled = errors.New("reservation already canceled")
	// ErrHotelNotFound возвращается, если отель не найден.
	ErrHotelNotFound = errors.New("hotel not found")
	// ErrHotelInUse возвращается при удалении отеля, на который ссылаются бронирования.
	ErrHotelInUse = errors.New("hotel has reservations")
	// ErrPaymentNotFound возвращается, если оплата не найдена.
	ErrPaymentNotFound = errors.New("payment not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных одного сервиса в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	schema Schema
}

// NewPostgresRepository создаёт новый репозиторий и применяет миграции указанной схемы.
func NewPostgresRepository(dsn string, schema Schema) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, schema: schema}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	// у каждого сервиса своя таблица версий, чтобы схемы могли жить в одной базе
	goose.SetTableName(string(r.schema) + "_goose_db_version")

	if err := goose.UpContext(ctx, db, path.Join("migrations", string(r.schema))); err != nil {
		return fmt.Errorf("run %s migrations: %w", r.schema, err)
	}

	return nil
}

// withRetry повторяет локальную операцию с БД при конфликте сериализации, дедлоке или обрыве соединения.
// Вызовы в другие сервисы сюда не попадают.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
