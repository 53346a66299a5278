package seeds

import (
	"embed"
	"fmt"
	"log"

	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed data/*.yml
var dataFS embed.FS

// seedSchool mirrors a schools.School in the YAML seed file, with nested
// policies and the initial vote tallies to synthesize.
type seedSchool struct {
	ID             uint    `yaml:"id"`
	Name           string  `yaml:"name"`
	Address        string  `yaml:"address"`
	City           string  `yaml:"city"`
	State          string  `yaml:"state"`
	Zip            string  `yaml:"zip"`
	Latitude       float64 `yaml:"latitude"`
	Longitude      float64 `yaml:"longitude"`
	WebsiteURL     string  `yaml:"websiteUrl"`
	RegistrarEmail string  `yaml:"registrarEmail"`
	Votes          struct {
		Upvotes   int `yaml:"upvotes"`
		Downvotes int `yaml:"downvotes"`
	} `yaml:"votes"`
	Policies []seedPolicy `yaml:"policies"`
}

type seedPolicy struct {
	ID              uint    `yaml:"id"`
	ExamID          uint    `yaml:"examId"`
	MinScore        int     `yaml:"minScore"`
	CourseCode      string  `yaml:"courseCode"`
	CourseName      string  `yaml:"courseName"`
	Credits         int     `yaml:"credits"`
	IsGeneralCredit bool    `yaml:"isGeneralCredit"`
	Notes           *string `yaml:"notes"`
}

type seedExam struct {
	ID       uint   `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// SeedAll loads the embedded YAML seed data. Schools, policies and exams are
// upserted by primary key; vote rows are only synthesized for schools that
// have none yet. Statements run sequentially; a failure aborts mid-seed with
// partial rows in place.
func SeedAll(conn *gorm.DB) error {
	if err := SeedExams(conn); err != nil {
		return err
	}
	return SeedSchools(conn)
}

func SeedExams(conn *gorm.DB) error {
	raw, err := dataFS.ReadFile("data/clep_exams.yml")
	if err != nil {
		return fmt.Errorf("could not read clep_exams.yml: %w", err)
	}

	var doc struct {
		Exams []seedExam `yaml:"exams"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse clep_exams.yml: %w", err)
	}

	for _, e := range doc.Exams {
		exam := schools.CLEPExam{ID: e.ID, Name: e.Name, Category: e.Category}
		if err := conn.Clauses(clause.OnConflict{UpdateAll: true}).Create(&exam).Error; err != nil {
			return fmt.Errorf("failed to seed exam %q: %w", e.Name, err)
		}
	}

	log.Printf("Seeded %d CLEP exams", len(doc.Exams))
	return nil
}

func SeedSchools(conn *gorm.DB) error {
	raw, err := dataFS.ReadFile("data/schools.yml")
	if err != nil {
		return fmt.Errorf("could not read schools.yml: %w", err)
	}

	var doc struct {
		Schools []seedSchool `yaml:"schools"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse schools.yml: %w", err)
	}

	for _, s := range doc.Schools {
		school := schools.School{
			ID:             s.ID,
			Name:           s.Name,
			Address:        s.Address,
			City:           s.City,
			State:          s.State,
			Zip:            s.Zip,
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			WebsiteURL:     s.WebsiteURL,
			RegistrarEmail: s.RegistrarEmail,
		}
		if err := conn.Clauses(clause.OnConflict{UpdateAll: true}).Create(&school).Error; err != nil {
			return fmt.Errorf("failed to seed school %q: %w", s.Name, err)
		}

		for _, p := range s.Policies {
			policy := schools.SchoolPolicy{
				ID:              p.ID,
				SchoolID:        s.ID,
				ExamID:          p.ExamID,
				MinScore:        p.MinScore,
				CourseCode:      p.CourseCode,
				CourseName:      p.CourseName,
				Credits:         p.Credits,
				IsGeneralCredit: p.IsGeneralCredit,
				Notes:           p.Notes,
				IsUpdated:       false,
				UpdatedAt:       "2025-01-01",
			}
			if err := conn.Clauses(clause.OnConflict{UpdateAll: true}).Create(&policy).Error; err != nil {
				return fmt.Errorf("failed to seed policy %d for %q: %w", p.ID, s.Name, err)
			}
		}

		if err := seedVotes(conn, s); err != nil {
			return err
		}

		log.Printf("Seeded %s with %d policies", s.Name, len(s.Policies))
	}

	return nil
}

// seedVotes inserts synthetic vote rows to match a school's initial tallies.
// Skipped when the school already has votes, so re-running the seeder does
// not inflate counts.
func seedVotes(conn *gorm.DB, s seedSchool) error {
	var count int64
	if err := conn.Model(&schools.Vote{}).Where("school_id = ?", s.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count votes for %q: %w", s.Name, err)
	}
	if count > 0 {
		return nil
	}

	for i := 0; i < s.Votes.Upvotes; i++ {
		vote := schools.Vote{SchoolID: s.ID, VoteType: schools.VoteTypeUp, UserIP: fmt.Sprintf("seed-ip-%d", i)}
		if err := conn.Create(&vote).Error; err != nil {
			return fmt.Errorf("failed to seed upvotes for %q: %w", s.Name, err)
		}
	}
	for i := 0; i < s.Votes.Downvotes; i++ {
		vote := schools.Vote{SchoolID: s.ID, VoteType: schools.VoteTypeDown, UserIP: fmt.Sprintf("seed-ip-down-%d", i)}
		if err := conn.Create(&vote).Error; err != nil {
			return fmt.Errorf("failed to seed downvotes for %q: %w", s.Name, err)
		}
	}
	return nil
}
