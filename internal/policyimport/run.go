package policyimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config drives one import run. Exactly one school's policies are replaced
// per run, mirroring how registrars publish their sheets.
type Config struct {
	DatabaseURL string
	CSVPath     string
	SchoolID    uint
	// Replace wipes the school's existing policies first. Without it the
	// importer refuses to run against a school that already has policies.
	Replace bool
}

func Run(cfg Config) error {
	if cfg.SchoolID == 0 {
		return errors.New("a school id is required")
	}

	rows, err := ParseCSV(cfg.CSVPath)
	if err != nil {
		return err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var school schools.School
		if err := tx.Take(&school, "id = ?", cfg.SchoolID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("school %d not found", cfg.SchoolID)
			}
			return err
		}

		var existing int64
		if err := tx.Model(&schools.SchoolPolicy{}).
			Where("school_id = ?", cfg.SchoolID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			if !cfg.Replace {
				return fmt.Errorf("school %d already has %d policies: pass Replace to overwrite", cfg.SchoolID, existing)
			}
			if err := tx.Where("school_id = ?", cfg.SchoolID).
				Delete(&schools.SchoolPolicy{}).Error; err != nil {
				return err
			}
		}

		examIDs, err := resolveExams(tx, rows)
		if err != nil {
			return err
		}

		stamp := time.Now().Format("2006-01-02")
		policies := make([]schools.SchoolPolicy, 0, len(rows))
		for _, r := range rows {
			var notes *string
			if r.Notes != "" {
				n := r.Notes
				notes = &n
			}
			policies = append(policies, schools.SchoolPolicy{
				SchoolID:        cfg.SchoolID,
				ExamID:          examIDs[r.ExamName],
				MinScore:        r.MinScore,
				CourseCode:      r.CourseCode,
				CourseName:      r.CourseName,
				Credits:         r.Credits,
				IsGeneralCredit: r.IsGeneralCredit,
				Notes:           notes,
				IsUpdated:       true,
				UpdatedAt:       stamp,
			})
		}

		if err := tx.Create(&policies).Error; err != nil {
			return fmt.Errorf("insert policies: %w", err)
		}
		return nil
	})
}

// resolveExams maps each spreadsheet exam name to its id, matching
// case-insensitively against the exam catalog.
func resolveExams(tx *gorm.DB, rows []Row) (map[string]uint, error) {
	var exams []schools.CLEPExam
	if err := tx.Find(&exams).Error; err != nil {
		return nil, err
	}

	byName := map[string]uint{}
	for _, e := range exams {
		byName[strings.ToLower(e.Name)] = e.ID
	}

	out := map[string]uint{}
	for _, r := range rows {
		id, ok := byName[strings.ToLower(r.ExamName)]
		if !ok {
			return nil, fmt.Errorf("unknown exam %q: not in the exam catalog", r.ExamName)
		}
		out[r.ExamName] = id
	}
	return out, nil
}
