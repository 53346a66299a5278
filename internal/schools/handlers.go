package schools

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Handler owns the public directory endpoints. The database handle is
// injected by the process entry point.
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// ListSchoolsHandler returns the directory, optionally narrowed by state, city
// and accepted exam. An absent filter excludes nothing.
func (h *Handler) ListSchoolsHandler(w http.ResponseWriter, r *http.Request) {
	query := h.DB.Model(&School{}).Preload("Policies").Order("name")

	if state := r.URL.Query().Get("state"); state != "" {
		query = query.Where("state = ?", state)
	}
	if city := r.URL.Query().Get("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if examStr := r.URL.Query().Get("examId"); examStr != "" {
		examID, err := strconv.Atoi(examStr)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid exam ID")
			return
		}
		query = query.Where("id IN (?)",
			h.DB.Model(&SchoolPolicy{}).Select("school_id").Where("exam_id = ?", examID))
	}

	var results []School
	if err := query.Find(&results).Error; err != nil {
		log.Printf("[schools] list error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch schools")
		return
	}

	if err := h.attachVotes(results); err != nil {
		log.Printf("[schools] vote counts error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch schools")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"schools": results})
}

// SearchSchoolsHandler does a case-insensitive substring match over name,
// city and state, capped at 20 results.
func (h *Handler) SearchSchoolsHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	pattern := "%" + strings.ToLower(q) + "%"

	var results []School
	err := h.DB.Model(&School{}).Preload("Policies").
		Where("LOWER(name) LIKE ? OR LOWER(city) LIKE ? OR LOWER(state) LIKE ?", pattern, pattern, pattern).
		Order("name").
		Limit(20).
		Find(&results).Error
	if err != nil {
		log.Printf("[schools] search error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to search schools")
		return
	}

	if err := h.attachVotes(results); err != nil {
		log.Printf("[schools] vote counts error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to search schools")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"schools": results})
}

func (h *Handler) GetSchoolHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	var school School
	if err := h.DB.Preload("Policies").Take(&school, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "School not found")
			return
		}
		log.Printf("[schools] get error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch school")
		return
	}

	counts, err := countVotes(h.DB, school.ID)
	if err != nil {
		log.Printf("[schools] vote counts error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch school")
		return
	}
	school.Votes = &counts

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"school": school})
}

func (h *Handler) ListExamsHandler(w http.ResponseWriter, r *http.Request) {
	var exams []CLEPExam
	if err := h.DB.Order("id").Find(&exams).Error; err != nil {
		log.Printf("[schools] exams error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch exams")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"exams": exams})
}

// attachVotes fills in aggregated tallies for a result set with one grouped
// query instead of a query per school.
func (h *Handler) attachVotes(results []School) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(results))
	for i := range results {
		ids = append(ids, results[i].ID)
	}

	var rows []struct {
		SchoolID uint
		VoteType string
		Count    int64
	}
	err := h.DB.Model(&Vote{}).
		Select("school_id, vote_type, COUNT(*) AS count").
		Where("school_id IN ?", ids).
		Group("school_id, vote_type").
		Find(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]*VoteCounts, len(results))
	for _, row := range rows {
		c, ok := counts[row.SchoolID]
		if !ok {
			c = &VoteCounts{}
			counts[row.SchoolID] = c
		}
		switch row.VoteType {
		case VoteTypeUp:
			c.Upvotes = row.Count
		case VoteTypeDown:
			c.Downvotes = row.Count
		}
	}

	for i := range results {
		if c, ok := counts[results[i].ID]; ok {
			results[i].Votes = c
		} else {
			results[i].Votes = &VoteCounts{}
		}
	}
	return nil
}
