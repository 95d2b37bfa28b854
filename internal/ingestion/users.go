package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"

	"github.com/xuri/excelize/v2"
)

const (
	staffSheet   = "Staff"
	editorsSheet = "Editors"
)

// UserImportResult summarizes one users import run.
type UserImportResult struct {
	Created int
	Skipped int
}

// ImportUsers creates staff accounts from a workbook: the Staff sheet lists
// username, first name, last name, and email columns; usernames appearing on
// the Editors sheet get edit permission. Existing usernames are skipped so
// the import can be re-run as the staff list grows.
func ImportUsers(ctx context.Context, users repository.UserRepository, workbookPath string) (UserImportResult, error) {
	var result UserImportResult

	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(staffSheet)
	if err != nil || len(rows) < 1 {
		return result, fmt.Errorf("%w: missing %q sheet", domain.ErrLayoutMismatch, staffSheet)
	}

	editors, err := editorUsernames(f)
	if err != nil {
		return result, err
	}

	for _, row := range rows[1:] {
		username := cell(row, 0)
		if username == "" {
			continue
		}

		if _, err := users.GetByUsername(ctx, username); err == nil {
			result.Skipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return result, fmt.Errorf("failed to check user %q: %w", username, err)
		}

		user := domain.User{
			Username:  username,
			FirstName: cell(row, 1),
			LastName:  cell(row, 2),
			Email:     cell(row, 3),
			CanEdit:   editors[strings.ToLower(username)],
		}
		if _, err := users.Create(ctx, user); err != nil {
			return result, fmt.Errorf("failed to create user %q: %w", username, err)
		}
		result.Created++
	}

	log.Printf("[ingest] users import: %d created, %d skipped", result.Created, result.Skipped)
	return result, nil
}

func editorUsernames(f *excelize.File) (map[string]bool, error) {
	editors := make(map[string]bool)
	rows, err := f.GetRows(editorsSheet)
	if err != nil {
		// The editors sheet is optional; without it nobody gets edit rights.
		return editors, nil
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if username := cell(row, 0); username != "" {
			editors[strings.ToLower(username)] = true
		}
	}
	return editors, nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
