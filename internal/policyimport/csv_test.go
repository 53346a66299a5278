package policyimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

const validSheet = `exam,min_score,course_code,course_name,credits,general_credit,notes
American Government,50,GOVT 101,Introduction to American Government,3,,
College Algebra,55,,General math elective,3,true,Counts toward the quantitative requirement
Biology,50,BIOL 103,Introductory Biology,4,false,
`

func TestParseCSV_Valid(t *testing.T) {
	rows, err := ParseCSV(writeCSV(t, validSheet))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.ExamName != "American Government" || first.MinScore != 50 ||
		first.CourseCode != "GOVT 101" || first.Credits != 3 || first.IsGeneralCredit {
		t.Errorf("unexpected first row: %+v", first)
	}

	general := rows[1]
	if !general.IsGeneralCredit || general.CourseCode != "" {
		t.Errorf("expected general-credit row without course code, got %+v", general)
	}
	if general.Notes != "Counts toward the quantitative requirement" {
		t.Errorf("notes not carried through: %q", general.Notes)
	}
}

func TestParseCSV_ColumnOrderIrrelevant(t *testing.T) {
	sheet := `credits,exam,course_name,course_code,min_score
3,Chemistry,General Chemistry,CHEM 111,55
`
	rows, err := ParseCSV(writeCSV(t, sheet))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if rows[0].ExamName != "Chemistry" || rows[0].MinScore != 55 || rows[0].Credits != 3 {
		t.Errorf("columns mismapped: %+v", rows[0])
	}
}

func TestParseCSV_BOMHeader(t *testing.T) {
	sheet := "\ufeff" + validSheet
	if _, err := ParseCSV(writeCSV(t, sheet)); err != nil {
		t.Errorf("BOM header should parse, got %v", err)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sheet   string
		wantErr string
	}{
		{
			"missing column",
			"exam,min_score,course_code,course_name\nBiology,50,BIOL 103,Intro Bio\n",
			"missing required column: credits",
		},
		{
			"no data rows",
			"exam,min_score,course_code,course_name,credits\n",
			"no data rows",
		},
		{
			"blank exam",
			"exam,min_score,course_code,course_name,credits\n,50,BIOL 103,Intro Bio,4\n",
			"row 2: exam is required",
		},
		{
			"duplicate exam",
			"exam,min_score,course_code,course_name,credits\nBiology,50,BIOL 103,Intro Bio,4\nBiology,55,BIOL 105,Other Bio,4\n",
			"row 3: duplicate exam",
		},
		{
			"non-numeric score",
			"exam,min_score,course_code,course_name,credits\nBiology,fifty,BIOL 103,Intro Bio,4\n",
			"min_score must be a number",
		},
		{
			"score off the scale",
			"exam,min_score,course_code,course_name,credits\nBiology,95,BIOL 103,Intro Bio,4\n",
			"outside the 20-80 scale",
		},
		{
			"negative credits",
			"exam,min_score,course_code,course_name,credits\nBiology,50,BIOL 103,Intro Bio,-1\n",
			"credits cannot be negative",
		},
		{
			"course code required without general credit",
			"exam,min_score,course_code,course_name,credits\nBiology,50,,Intro Bio,4\n",
			"course_code is required",
		},
		{
			"bad general_credit flag",
			"exam,min_score,course_code,course_name,credits,general_credit\nBiology,50,BIOL 103,Intro Bio,4,maybe\n",
			"general_credit must be true/false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(writeCSV(t, tt.sheet))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
