package services

import "errors"

// Ошибки домена; контроллеры переводят их в HTTP-статусы
// (403, 404, 409) через errors.Is.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("conflict")
)
