package policies

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/auth"
	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"github.com/CLEPPathfinder/CP-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// Handler owns the school-scoped policy administration endpoints. Every
// operation requires the authenticated user's school to match the policy's.
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

const msgWrongSchool = "You can only manage policies for your own school"

// requireSchool resolves the authenticated user's school binding. Users with
// no school on file cannot administer any policies.
func (h *Handler) requireSchool(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}

	var user auth.User
	if err := h.DB.Take(&user, "user_id = ?", userID).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	if user.SchoolID == nil {
		httputil.WriteError(w, http.StatusForbidden, msgWrongSchool)
		return 0, false
	}
	return *user.SchoolID, true
}

func (h *Handler) ListPoliciesHandler(w http.ResponseWriter, r *http.Request) {
	schoolStr := r.URL.Query().Get("schoolId")
	if schoolStr == "" {
		httputil.WriteError(w, http.StatusBadRequest, "School ID is required")
		return
	}
	schoolID, err := strconv.Atoi(schoolStr)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid school ID")
		return
	}

	userSchool, ok := h.requireSchool(w, r)
	if !ok {
		return
	}
	if userSchool != uint(schoolID) {
		httputil.WriteError(w, http.StatusForbidden, msgWrongSchool)
		return
	}

	var list []schools.SchoolPolicy
	if err := h.DB.Where("school_id = ?", schoolID).Order("id").Find(&list).Error; err != nil {
		log.Printf("[policies] list error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch policies")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"policies": list})
}

type createPolicyRequest struct {
	SchoolID        *uint   `json:"schoolId" validate:"required"`
	ExamID          *uint   `json:"examId" validate:"required"`
	MinScore        *int    `json:"minScore" validate:"required"`
	CourseCode      string  `json:"courseCode" validate:"required"`
	CourseName      string  `json:"courseName" validate:"required"`
	Credits         *int    `json:"credits" validate:"required"`
	IsGeneralCredit bool    `json:"isGeneralCredit"`
	Notes           *string `json:"notes"`
}

func (h *Handler) CreatePolicyHandler(w http.ResponseWriter, r *http.Request) {
	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	userSchool, ok := h.requireSchool(w, r)
	if !ok {
		return
	}
	if userSchool != *req.SchoolID {
		httputil.WriteError(w, http.StatusForbidden, msgWrongSchool)
		return
	}

	var exists bool
	err := h.DB.Model(&schools.School{}).Select("COUNT(*) > 0").Where("id = ?", *req.SchoolID).Find(&exists).Error
	if err != nil {
		log.Printf("[policies] school lookup error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to create policy")
		return
	}
	if !exists {
		httputil.WriteError(w, http.StatusNotFound, "School not found")
		return
	}

	policy := schools.SchoolPolicy{
		SchoolID:        *req.SchoolID,
		ExamID:          *req.ExamID,
		MinScore:        *req.MinScore,
		CourseCode:      req.CourseCode,
		CourseName:      req.CourseName,
		Credits:         *req.Credits,
		IsGeneralCredit: req.IsGeneralCredit,
		Notes:           req.Notes,
		IsUpdated:       true,
		UpdatedAt:       today(),
	}
	if err := h.DB.Create(&policy).Error; err != nil {
		log.Printf("[policies] create error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to create policy")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"policy": policy})
}

type updatePolicyRequest struct {
	ExamID          *uint   `json:"examId"`
	MinScore        *int    `json:"minScore"`
	CourseCode      *string `json:"courseCode"`
	CourseName      *string `json:"courseName"`
	Credits         *int    `json:"credits"`
	IsGeneralCredit *bool   `json:"isGeneralCredit"`
	Notes           *string `json:"notes"`
}

// UpdatePolicyHandler mutates an existing policy in place. The owning school
// never changes.
func (h *Handler) UpdatePolicyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid policy ID")
		return
	}

	var req updatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	policy, ok := h.fetchOwnedPolicy(w, r, id)
	if !ok {
		return
	}

	if req.ExamID != nil {
		policy.ExamID = *req.ExamID
	}
	if req.MinScore != nil {
		policy.MinScore = *req.MinScore
	}
	if req.CourseCode != nil {
		policy.CourseCode = *req.CourseCode
	}
	if req.CourseName != nil {
		policy.CourseName = *req.CourseName
	}
	if req.Credits != nil {
		policy.Credits = *req.Credits
	}
	if req.IsGeneralCredit != nil {
		policy.IsGeneralCredit = *req.IsGeneralCredit
	}
	if req.Notes != nil {
		policy.Notes = req.Notes
	}
	policy.IsUpdated = true
	policy.UpdatedAt = today()

	if err := h.DB.Save(&policy).Error; err != nil {
		log.Printf("[policies] update error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to update policy")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"policy": policy})
}

func (h *Handler) DeletePolicyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid policy ID")
		return
	}

	policy, ok := h.fetchOwnedPolicy(w, r, id)
	if !ok {
		return
	}

	if err := h.DB.Delete(&policy).Error; err != nil {
		log.Printf("[policies] delete error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to delete policy")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// fetchOwnedPolicy loads the policy and enforces the school-scope check,
// writing the response itself on failure.
func (h *Handler) fetchOwnedPolicy(w http.ResponseWriter, r *http.Request, id int) (schools.SchoolPolicy, bool) {
	var policy schools.SchoolPolicy
	if err := h.DB.Take(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "Policy not found")
		} else {
			log.Printf("[policies] fetch error: %v", err)
			httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch policy")
		}
		return schools.SchoolPolicy{}, false
	}

	userSchool, ok := h.requireSchool(w, r)
	if !ok {
		return schools.SchoolPolicy{}, false
	}
	if userSchool != policy.SchoolID {
		httputil.WriteError(w, http.StatusForbidden, msgWrongSchool)
		return schools.SchoolPolicy{}, false
	}
	return policy, true
}

func today() string {
	return time.Now().Format("2006-01-02")
}
