package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// Tape ids are 6 or 7 alphanumeric characters in one of four shapes:
// 6 digits (820020), 3 letters + 3 digits (AAB952), 4 letters + 2 digits
// (CLNU04), or 1 letter + 6 digits (M258178).
const tapeIDFormat = `\d{6}|[A-Z]{3}\d{3}|[A-Z]{4}\d{2}|[A-Z]\d{6}`

// Vault locations are always 12 characters: S217-01, one letter, a space or
// hyphen, two digits, one letter. The space variant is a data entry quirk
// and is normalized to a hyphen when saving.
const vaultLocationFormat = `S217-01[A-Z][ -]\d{2}[A-Z]`

var (
	tapeIDOnlyPattern   = regexp.MustCompile(`^(` + tapeIDFormat + `)$`)
	tapeCombinedPattern = regexp.MustCompile(
		`^(` + tapeIDFormat + `)\s*(\(in vault\)|\(to vault\))\s*(` + vaultLocationFormat + `)$`)
)

// ParseTapeInfo splits a carrier field value into its tape id and optional
// vault location. Valid values are either a bare tape id, or a tape id
// followed by an "(in vault)" or "(to vault)" designator and a vault
// location. Anything else (multiple tape ids, free-text notes) fails with
// ErrUnparseableCarrierField.
func ParseTapeInfo(tapeInfo string) (tapeID, vaultLocation string, err error) {
	tapeInfo = strings.TrimSpace(tapeInfo)

	if m := tapeIDOnlyPattern.FindStringSubmatch(tapeInfo); m != nil {
		return m[1], "", nil
	}
	if m := tapeCombinedPattern.FindStringSubmatch(tapeInfo); m != nil {
		return m[1], strings.ReplaceAll(m[3], " ", "-"), nil
	}
	return "", "", fmt.Errorf("%w: %q", domain.ErrUnparseableCarrierField, tapeInfo)
}

// TapeProblem identifies one carrier value that could not be parsed.
type TapeProblem struct {
	ItemID int64
	Field  string
	Value  string
}

// TapeReport summarizes a tape cleaning run.
type TapeReport struct {
	// Updated counts records changed per carrier column.
	Updated map[string]int
	// Problems lists unparseable values, populated in report mode.
	Problems []TapeProblem
}

// TapeOptions selects the tape cleaner's mode. Exactly one of UpdateRecords
// and ReportProblems must be set.
type TapeOptions struct {
	UpdateRecords  bool
	ReportProblems bool
}

// TapeCleaner normalizes the free-text carrier fields into separate tape id
// and vault location values.
type TapeCleaner struct {
	items     repository.ItemRepository
	changedBy *int64
}

// NewTapeCleaner creates a tape cleaner.
func NewTapeCleaner(items repository.ItemRepository, changedBy *int64) *TapeCleaner {
	return &TapeCleaner{items: items, changedBy: changedBy}
}

// Clean processes carrier_a then carrier_b for every item with a non-empty
// value. In update mode parseable values are split into the carrier and
// carrier location fields; in report mode unparseable values are collected
// instead and nothing is written.
func (c *TapeCleaner) Clean(ctx context.Context, opts TapeOptions) (TapeReport, error) {
	report := TapeReport{Updated: make(map[string]int)}
	if opts.UpdateRecords == opts.ReportProblems {
		return report, errors.New("exactly one of update records or report problems must be chosen")
	}

	for _, carrierColumn := range []string{"carrier_a", "carrier_b"} {
		changed, err := c.cleanCarrier(ctx, carrierColumn, opts, &report)
		if err != nil {
			return report, err
		}
		report.Updated[carrierColumn] = changed
		log.Printf("[cleanup] carrier info updated for %s: %d", carrierColumn, changed)
	}
	return report, nil
}

func (c *TapeCleaner) cleanCarrier(ctx context.Context, carrierColumn string, opts TapeOptions, report *TapeReport) (int, error) {
	locationColumn := carrierColumn + "_location"
	items, err := c.items.ListCarrierCandidates(ctx, carrierColumn)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range items {
		item := &items[i]
		tapeInfo := item.FieldValue(carrierColumn)
		tapeID, vaultLocation, err := ParseTapeInfo(tapeInfo)
		if err != nil {
			if opts.ReportProblems {
				report.Problems = append(report.Problems, TapeProblem{
					ItemID: item.ID,
					Field:  carrierColumn,
					Value:  tapeInfo,
				})
				log.Printf("[cleanup] %s unsupported format: #%d: %s", carrierColumn, item.ID, tapeInfo)
			}
			continue
		}
		if !opts.UpdateRecords {
			continue
		}

		fields := map[string]string{carrierColumn: tapeID}
		if vaultLocation != "" {
			fields[locationColumn] = vaultLocation
		}
		if err := c.items.UpdateFields(ctx, item.ID, fields, c.changedBy); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
