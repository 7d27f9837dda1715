package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ems/internal/app/server"
	"ems/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func TestEvaluationJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:         dbURL,
		JWTSecret:           "test-secret",
		Environment:         "test",
		SeedAdminEmail:      "admin@test.local",
		SeedAdminPassword:   "ChangeMe123!",
		RunMigrations:       true,
		RunSeed:             true,
		MaxBodyBytes:        1048576,
		RateLimitPerMinute:  1000,
		PhaseSweepInterval:  time.Hour,
		MaintenanceLockWait: 5 * time.Second,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token, employeeID := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	periodID := createPeriod(t, client, ts.URL, token)
	startPeriod(t, client, ts.URL, token, periodID)

	projectID := createProject(t, client, ts.URL, token)
	wbsItemID := addWbsItem(t, client, ts.URL, token, projectID)
	assignmentID := assignProject(t, client, ts.URL, token, projectID, employeeID, periodID)
	assignWbs(t, client, ts.URL, token, wbsItemID, employeeID, periodID)
	mapEvaluator(t, client, ts.URL, token, periodID, employeeID, employeeID)

	evaluationID := saveSelfEvaluation(t, client, ts.URL, token, periodID, wbsItemID)
	submitSelfEvaluation(t, client, ts.URL, token, evaluationID)

	approval := getApproval(t, client, ts.URL, token, periodID, employeeID)
	if approval["primaryStatus"] != "none" {
		t.Fatalf("expected primary step untouched after self submission, got %v", approval["primaryStatus"])
	}

	requestRevision(t, client, ts.URL, token, periodID, employeeID)

	summary := getSummary(t, client, ts.URL, token)
	if _, ok := summary["periodsInProgress"]; !ok {
		t.Fatal("expected summary to include periodsInProgress")
	}

	cancelled := cancelAssignment(t, client, ts.URL, token, assignmentID)
	if cancelled["selfEvaluations"].(float64) < 1 {
		t.Fatalf("expected cancel cascade to cover the self evaluation, got %v", cancelled)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) (string, string) {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	var out struct {
		Token string `json:"token"`
		User  struct {
			EmployeeID string `json:"employeeId"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if out.Token == "" || out.User.EmployeeID == "" {
		t.Fatalf("expected token and employee id, got %s / %s", out.Token, out.User.EmployeeID)
	}
	return out.Token, out.User.EmployeeID
}

func createPeriod(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	nextMonth := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	data := postJSON(t, client, baseURL+"/api/v1/admin/periods", token, map[string]any{
		"name":                  fmt.Sprintf("journey-%d", time.Now().UnixNano()),
		"startDate":             yesterday,
		"endDate":               nextMonth,
		"maxSelfEvaluationRate": 100,
		"gradeRanges": []map[string]any{
			{"grade": "B", "minRange": 0, "maxRange": 49},
			{"grade": "A", "minRange": 50, "maxRange": 100},
		},
	}, http.StatusCreated)
	return fieldString(t, data, "id")
}

func startPeriod(t *testing.T, client *http.Client, baseURL, token, periodID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/admin/periods/"+periodID+"/start", token, map[string]any{}, http.StatusOK)
}

func createProject(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/admin/projects", token, map[string]any{
		"code": fmt.Sprintf("PRJ-%d", time.Now().UnixNano()),
		"name": "Journey Project",
	}, http.StatusCreated)
	return fieldString(t, data, "id")
}

func addWbsItem(t *testing.T, client *http.Client, baseURL, token, projectID string) string {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/admin/projects/"+projectID+"/wbs-items", token, map[string]any{
		"code": "WBS-1",
		"name": "Design",
	}, http.StatusCreated)
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("failed to decode wbs items: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected at least one wbs item")
	}
	return items[0]["id"].(string)
}

func assignProject(t *testing.T, client *http.Client, baseURL, token, projectID, employeeID, periodID string) string {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/admin/projects/"+projectID+"/assignments", token, map[string]any{
		"employeeId": employeeID,
		"periodId":   periodID,
	}, http.StatusCreated)
	return fieldString(t, data, "id")
}

func assignWbs(t *testing.T, client *http.Client, baseURL, token, wbsItemID, employeeID, periodID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/admin/wbs-items/"+wbsItemID+"/assignments", token, map[string]any{
		"employeeId": employeeID,
		"periodId":   periodID,
	}, http.StatusCreated)
}

func mapEvaluator(t *testing.T, client *http.Client, baseURL, token, periodID, employeeID, evaluatorID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/admin/line-mappings", token, map[string]any{
		"periodId":       periodID,
		"employeeId":     employeeID,
		"evaluatorId":    evaluatorID,
		"evaluationType": "primary",
	}, http.StatusCreated)
}

func saveSelfEvaluation(t *testing.T, client *http.Client, baseURL, token, periodID, wbsItemID string) string {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/user/self-evaluations", token, map[string]any{
		"periodId":  periodID,
		"wbsItemId": wbsItemID,
		"content":   "Delivered the design milestones.",
		"score":     80,
	}, http.StatusCreated)
	return fieldString(t, data, "id")
}

func submitSelfEvaluation(t *testing.T, client *http.Client, baseURL, token, evaluationID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/user/self-evaluations/"+evaluationID+"/submit", token, map[string]any{
		"target": "evaluator",
	}, http.StatusOK)
}

func getApproval(t *testing.T, client *http.Client, baseURL, token, periodID, employeeID string) map[string]any {
	t.Helper()
	data := getJSON(t, client, baseURL+"/api/v1/evaluator/approvals/"+periodID+"/"+employeeID, token)
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode approval: %v", err)
	}
	return out
}

func requestRevision(t *testing.T, client *http.Client, baseURL, token, periodID, employeeID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/evaluator/revision-requests", token, map[string]any{
		"periodId":   periodID,
		"employeeId": employeeID,
		"step":       "self",
		"comment":    "Please expand the summary.",
	}, http.StatusCreated)
}

func getSummary(t *testing.T, client *http.Client, baseURL, token string) map[string]any {
	t.Helper()
	data := getJSON(t, client, baseURL+"/api/v1/admin/reports/summary", token)
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	return out
}

func cancelAssignment(t *testing.T, client *http.Client, baseURL, token, assignmentID string) map[string]any {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/admin/assignments/"+assignmentID+"/cancel", token, map[string]any{}, http.StatusOK)
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode cancel summary: %v", err)
	}
	return out
}

func postJSON(t *testing.T, client *http.Client, url, token string, payload any, wantStatus int) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected status %d, got %d: %s", url, wantStatus, resp.StatusCode, raw)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope from %s: %v", url, err)
	}
	return env.Data
}

func getJSON(t *testing.T, client *http.Client, url, token string) json.RawMessage {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected status 200, got %d: %s", url, resp.StatusCode, raw)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope from %s: %v", url, err)
	}
	return env.Data
}

func fieldString(t *testing.T, data json.RawMessage, field string) string {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode object: %v", err)
	}
	value, _ := out[field].(string)
	if value == "" {
		t.Fatalf("expected %s in response, got %s", field, data)
	}
	return value
}
