package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// NotFoundError indica que a entidade referenciada não existe
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError indica que o estoque disponível não cobre a
// quantidade pedida. Retryable por reenvio da venda.
type InsufficientStockError struct {
	ProductoID string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductoID, e.Requested, e.Available)
}

// ValidationError indica um campo ausente ou inválido no payload,
// detectado antes de chegar à lógica de negócio
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// ConflictError indica um conflito de transação (serialização ou
// deadlock detectado pelo banco). Retryable.
type ConflictError struct {
	cause error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction conflict: %v", e.cause)
}

func (e *ConflictError) Unwrap() error { return e.cause }

// TimeoutError indica que a transação excedeu o tempo de espera por um
// lock. Retryable.
type TimeoutError struct {
	cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction timeout: %v", e.cause)
}

func (e *TimeoutError) Unwrap() error { return e.cause }

// Códigos SQLSTATE do PostgreSQL relevantes para a classificação
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classifyTxError traduz erros de infraestrutura do pgx para a
// taxonomia do serviço. Erros já classificados passam intactos.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}

	var notFound *NotFoundError
	var insufficient *InsufficientStockError
	var validation *ValidationError
	if errors.As(err, &notFound) || errors.As(err, &insufficient) || errors.As(err, &validation) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return &ConflictError{cause: err}
		case pgLockNotAvailable:
			return &TimeoutError{cause: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{cause: err}
	}

	return err
}

// IsRetryable informa se o chamador pode reenviar a requisição
func IsRetryable(err error) bool {
	var conflict *ConflictError
	var timeout *TimeoutError
	var insufficient *InsufficientStockError
	return errors.As(err, &conflict) || errors.As(err, &timeout) || errors.As(err, &insufficient)
}
