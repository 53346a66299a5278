package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/httputil"
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/CLEPPathfinder/CP-Backend/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Handler owns the auth endpoints. The database handle is injected by the
// process entry point.
type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// schoolRef is the slice of directory.schools the auth package needs for
// binding a registrant to their institution by email domain.
type schoolRef struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	WebsiteURL     string `json:"-"`
	RegistrarEmail string `json:"-"`
}

func (schoolRef) TableName() string { return "directory.schools" }

type userOut struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	SchoolID  *uint     `json:"school_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserOut(u User) userOut {
	return userOut{
		ID:        u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		SchoolID:  u.SchoolID,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := validateRegistration(req); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var existing User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).Take(&existing).Error
	if err == nil {
		httputil.WriteError(w, http.StatusConflict, "Username or email already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[auth] register lookup error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Server error hashing password")
		return
	}

	user := User{
		UserID:         uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hashed),
	}

	// Bind the registrant to their school when the email domain matches the
	// registrar address or website on file.
	school, ok := h.resolveSchoolByDomain(req.Email)
	if ok {
		user.SchoolID = &school.ID
	}

	if err := h.DB.Create(&user).Error; err != nil {
		// The pre-check above races with concurrent registrations; the unique
		// indexes are the real guard.
		if isUniqueViolation(err) {
			httputil.WriteError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		log.Printf("[auth] register insert error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	token, err := h.createSession(user.UserID)
	if err != nil {
		log.Printf("[auth] session create error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	resp := map[string]any{
		"message":      "User registered successfully!",
		"sessionToken": token,
		"user":         toUserOut(user),
	}
	if ok {
		resp["school"] = school
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	// Unknown username and wrong password produce the same response, so the
	// endpoint can't be used to enumerate accounts.
	var user User
	if err := h.DB.Take(&user, "username = ?", req.Username).Error; err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.createSession(user.UserID)
	if err != nil {
		log.Printf("[auth] session create error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful!",
		"sessionToken": token,
		"user":         toUserOut(user),
	})
}

// LogoutHandler deletes the presented session row. Deleting a token that is
// already gone still reports success.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		httputil.WriteError(w, http.StatusBadRequest, "No session token provided")
		return
	}

	if err := h.DB.Where("token = ?", token).Delete(&Session{}).Error; err != nil {
		log.Printf("[auth] logout error: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during logout")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user User
	if err := h.DB.Take(&user, "user_id = ?", userID).Error; err != nil {
		httputil.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserOut(user)})
}

// CleanupSessionsHandler sweeps every expired session. Expiry is otherwise
// handled lazily on first use of a stale token.
func (h *Handler) CleanupSessionsHandler(w http.ResponseWriter, r *http.Request) {
	result := h.DB.Where("expires_at < ?", time.Now()).Delete(&Session{})
	if result.Error != nil {
		log.Printf("[auth] cleanup error: %v", result.Error)
		httputil.WriteError(w, http.StatusInternalServerError, "Server error during cleanup")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleaned up %d expired sessions", result.RowsAffected),
	})
}

func (h *Handler) createSession(userID string) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", err
	}
	session := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		return "", err
	}
	return token, nil
}

// resolveSchoolByDomain matches the domain of a .edu address against the
// registrar email and website on file for each school.
func (h *Handler) resolveSchoolByDomain(email string) (schoolRef, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return schoolRef{}, false
	}
	domain := strings.ToLower(email[at+1:])

	var school schoolRef
	err := h.DB.
		Where("LOWER(registrar_email) LIKE ? OR LOWER(website_url) LIKE ?", "%@"+domain, "%"+domain+"%").
		Take(&school).Error
	if err != nil {
		return schoolRef{}, false
	}
	return school, true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
