package domain

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied indicates the acting user lacks the permission the
	// operation requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLayoutMismatch indicates a workbook sheet does not carry the headers
	// the configured layout expects. The whole conversion aborts.
	ErrLayoutMismatch = errors.New("sheet layout mismatch")

	// ErrUnreadableWorkbook indicates the workbook file could not be parsed.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// ErrUnparseableCarrierField indicates a combined carrier field matched
	// none of the tape-info rules. Reported, never fatal.
	ErrUnparseableCarrierField = errors.New("unparseable carrier field")
)
