package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("video not found")
	ErrPayloadMissing      = fmt.Errorf("payload not bound: %w", ErrNotFound)
	ErrStorage             = errors.New("storage failure")
	ErrInvalidID           = errors.New("invalid video id")
	ErrAllocationExhausted = errors.New("id allocation exhausted")
	ErrNoStorage           = errors.New("no storage ready")
)

// StorageError оборачивает отказ внешнего хранилища при store/retrieve.
type StorageError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s video %d: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is позволяет сравнивать любую StorageError с ErrStorage через errors.Is.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
