package policies_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/auth"
	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"github.com/CLEPPathfinder/CP-Backend/internal/policies"
	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"github.com/CLEPPathfinder/CP-Backend/internal/utils"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var dbAvailable bool

var testConn *gorm.DB

var testServer *httptest.Server

// stubFetcher resolves tokens from a fixed map, standing in for the session
// store so tests control exactly which user each request runs as.
type stubFetcher struct {
	sessions map[string]utils.SessionData
}

func (s *stubFetcher) FindSessionByToken(token string) (utils.SessionData, error) {
	data, ok := s.sessions[token]
	if !ok {
		return utils.SessionData{}, errors.New("session not found")
	}
	return data, nil
}

var fetcher = &stubFetcher{sessions: map[string]utils.SessionData{}}

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		os.Exit(m.Run())
	}

	conn, err := db.Connect(databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	testConn = conn
	dbAvailable = true

	if err := auth.Init(conn); err != nil {
		fmt.Fprintf(os.Stderr, "auth.Init: %v\n", err)
		os.Exit(1)
	}
	if err := schools.Init(conn); err != nil {
		fmt.Fprintf(os.Stderr, "schools.Init: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(policies.SetupRoutes(policies.NewHandler(conn), fetcher))
	defer testServer.Close()

	os.Exit(m.Run())
}

func skipWithoutDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

func createTestSchool(t *testing.T, name string) schools.School {
	t.Helper()
	school := schools.School{Name: name, City: "Fairfax", State: "VA", Zip: "22030"}
	if err := testConn.Create(&school).Error; err != nil {
		t.Fatalf("failed to create test school: %v", err)
	}
	t.Cleanup(func() {
		testConn.Where("school_id = ?", school.ID).Delete(&schools.SchoolPolicy{})
		testConn.Delete(&schools.School{}, school.ID)
	})
	return school
}

// createAdmin makes a user bound to schoolID (nil for an unaffiliated user)
// and registers a token for it with the stub fetcher.
func createAdmin(t *testing.T, schoolID *uint) (token string) {
	t.Helper()
	username := fmt.Sprintf("admin_%s", uuid.New().String()[:8])
	user := auth.User{
		UserID:         uuid.New().String(),
		Username:       username,
		Email:          username + "@example.edu",
		HashedPassword: "x",
		SchoolID:       schoolID,
	}
	if err := testConn.Create(&user).Error; err != nil {
		t.Fatalf("failed to create admin user: %v", err)
	}
	t.Cleanup(func() {
		testConn.Where("user_id = ?", user.UserID).Delete(&auth.User{})
	})

	token = "tok-" + uuid.New().String()
	fetcher.sessions[token] = utils.SessionData{
		UserID:    user.UserID,
		Username:  username,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	t.Cleanup(func() { delete(fetcher.sessions, token) })
	return token
}

func doJSON(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, testServer.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func policyPayload(schoolID uint) map[string]any {
	return map[string]any{
		"schoolId":   schoolID,
		"examId":     1,
		"minScore":   50,
		"courseCode": "HIST 101",
		"courseName": "History of the United States I",
		"credits":    3,
	}
}

func TestPolicies_RequireSession(t *testing.T) {
	skipWithoutDB(t)

	resp, _ := doJSON(t, http.MethodGet, "/policies?schoolId=1", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

// TestPolicies_CRUDLifecycle creates, lists, updates and deletes a policy as
// an admin of the owning school.
func TestPolicies_CRUDLifecycle(t *testing.T) {
	skipWithoutDB(t)

	school := createTestSchool(t, "Policy CRUD University")
	token := createAdmin(t, &school.ID)

	resp, body := doJSON(t, http.MethodPost, "/policies", policyPayload(school.ID), token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%v)", resp.StatusCode, body)
	}
	created, _ := body["policy"].(map[string]any)
	if created["isUpdated"] != true {
		t.Error("expected created policy stamped isUpdated")
	}
	if created["updatedAt"] != time.Now().Format("2006-01-02") {
		t.Errorf("expected today's date stamp, got %v", created["updatedAt"])
	}
	policyID := int(created["id"].(float64))

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("/policies?schoolId=%d", school.ID), nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	if listed, _ := body["policies"].([]any); len(listed) != 1 {
		t.Errorf("expected 1 policy listed, got %d", len(listed))
	}

	resp, body = doJSON(t, http.MethodPut, fmt.Sprintf("/policies/%d", policyID),
		map[string]any{"minScore": 60}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated, _ := body["policy"].(map[string]any)
	if updated["minScore"] != float64(60) {
		t.Errorf("expected minScore 60 after update, got %v", updated["minScore"])
	}
	if updated["courseCode"] != "HIST 101" {
		t.Errorf("partial update clobbered courseCode: %v", updated["courseCode"])
	}

	resp, body = doJSON(t, http.MethodDelete, fmt.Sprintf("/policies/%d", policyID), nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Errorf("expected success flag, got %v", body)
	}

	var count int64
	testConn.Model(&schools.SchoolPolicy{}).Where("id = ?", policyID).Count(&count)
	if count != 0 {
		t.Error("expected policy row removed")
	}
}

// TestPolicies_WrongSchool verifies an admin of one school cannot touch
// another school's policies.
func TestPolicies_WrongSchool(t *testing.T) {
	skipWithoutDB(t)

	mine := createTestSchool(t, "My Policy School")
	theirs := createTestSchool(t, "Their Policy School")
	token := createAdmin(t, &mine.ID)

	ownerToken := createAdmin(t, &theirs.ID)
	resp, body := doJSON(t, http.MethodPost, "/policies", policyPayload(theirs.ID), ownerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("setup create: expected 201, got %d", resp.StatusCode)
	}
	theirPolicy := int(body["policy"].(map[string]any)["id"].(float64))

	const wantMsg = "You can only manage policies for your own school"

	cases := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"create for other school", http.MethodPost, "/policies", policyPayload(theirs.ID)},
		{"list other school", http.MethodGet, fmt.Sprintf("/policies?schoolId=%d", theirs.ID), nil},
		{"update other school's policy", http.MethodPut, fmt.Sprintf("/policies/%d", theirPolicy), map[string]any{"minScore": 1}},
		{"delete other school's policy", http.MethodDelete, fmt.Sprintf("/policies/%d", theirPolicy), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, tc.method, tc.path, tc.body, token)
			if resp.StatusCode != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", resp.StatusCode)
			}
			if body["error"] != wantMsg {
				t.Errorf("expected %q, got %v", wantMsg, body["error"])
			}
		})
	}
}

// TestPolicies_NoSchoolBinding verifies a user with no school on file is
// refused outright.
func TestPolicies_NoSchoolBinding(t *testing.T) {
	skipWithoutDB(t)

	school := createTestSchool(t, "Unaffiliated Target School")
	token := createAdmin(t, nil)

	resp, _ := doJSON(t, http.MethodPost, "/policies", policyPayload(school.ID), token)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for unaffiliated user, got %d", resp.StatusCode)
	}
}

func TestPolicies_MissingFields(t *testing.T) {
	skipWithoutDB(t)

	school := createTestSchool(t, "Validation School")
	token := createAdmin(t, &school.ID)

	resp, body := doJSON(t, http.MethodPost, "/policies",
		map[string]any{"schoolId": school.ID, "examId": 1}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "Missing required fields" {
		t.Errorf("unexpected message: %v", body["error"])
	}
}
