package policyimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Row is one credit policy from a registrar spreadsheet.
type Row struct {
	ExamName        string
	MinScore        int
	CourseCode      string
	CourseName      string
	Credits         int
	IsGeneralCredit bool
	Notes           string
}

// ParseCSV reads a registrar policy spreadsheet. The first line is a header;
// column order does not matter.
func ParseCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("csv has no data rows")
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}

	req := []string{"exam", "min_score", "course_code", "course_name", "credits"}
	for _, k := range req {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	seenExams := map[string]bool{}
	var out []Row

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		exam := get("exam")
		if exam == "" {
			return nil, fmt.Errorf("row %d: exam is required", rowIdx+1)
		}
		if seenExams[exam] {
			return nil, fmt.Errorf("row %d: duplicate exam %q", rowIdx+1, exam)
		}
		seenExams[exam] = true

		minScore, err := strconv.Atoi(get("min_score"))
		if err != nil {
			return nil, fmt.Errorf("row %d: min_score must be a number (got %q)", rowIdx+1, get("min_score"))
		}
		if minScore < 20 || minScore > 80 {
			return nil, fmt.Errorf("row %d: min_score %d outside the 20-80 scale", rowIdx+1, minScore)
		}

		credits, err := strconv.Atoi(get("credits"))
		if err != nil {
			return nil, fmt.Errorf("row %d: credits must be a number (got %q)", rowIdx+1, get("credits"))
		}
		if credits < 0 {
			return nil, fmt.Errorf("row %d: credits cannot be negative", rowIdx+1)
		}

		general := false
		if raw := get("general_credit"); raw != "" {
			general, err = strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: general_credit must be true/false (got %q)", rowIdx+1, raw)
			}
		}

		code := get("course_code")
		if code == "" && !general {
			return nil, fmt.Errorf("row %d: course_code is required unless general_credit is true", rowIdx+1)
		}

		out = append(out, Row{
			ExamName:        exam,
			MinScore:        minScore,
			CourseCode:      code,
			CourseName:      get("course_name"),
			Credits:         credits,
			IsGeneralCredit: general,
			Notes:           get("notes"),
		})
	}

	return out, nil
}
