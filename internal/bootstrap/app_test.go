package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Moniqchege/resume-builder/internal/shared/auth"
	"github.com/Moniqchege/resume-builder/internal/shared/config"
)

const sampleResumeText = "Senior engineer with eight years building Go services on Postgres, Docker and AWS infrastructure."

func buildTestApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(config.Config{
		Env:           "dev",
		LocalStoreDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected in-memory repositories without DATABASE_URL")
	}
	return app
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: userID})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRequiresNoAuth(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/health", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestResumesRequireAuth(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/resumes", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestResumeLifecycleOverHTTP(t *testing.T) {
	app := buildTestApp(t)
	token := bearerToken(t, "user-1")

	create := doJSON(t, app, http.MethodPost, "/api/v1/resumes", token, map[string]string{
		"title":   "Backend Resume",
		"rawText": sampleResumeText,
	})
	if create.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", create.Code, create.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(create.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" || created.Status != "DRAFT" {
		t.Fatalf("unexpected created resume: %+v", created)
	}

	list := doJSON(t, app, http.MethodGet, "/api/v1/resumes", token, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", list.Code)
	}
	if !strings.Contains(list.Body.String(), created.ID) {
		t.Fatalf("list missing created resume: %s", list.Body.String())
	}

	// Another user's token must not see the resume.
	other := doJSON(t, app, http.MethodGet, "/api/v1/resumes/"+created.ID, bearerToken(t, "user-2"), nil)
	if other.Code != http.StatusNotFound {
		t.Fatalf("foreign access expected 404, got %d", other.Code)
	}

	del := doJSON(t, app, http.MethodDelete, "/api/v1/resumes/"+created.ID, token, nil)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", del.Code)
	}
}

func TestAnalyzeWithoutProviderRollsBackStatus(t *testing.T) {
	app := buildTestApp(t)
	token := bearerToken(t, "user-1")

	create := doJSON(t, app, http.MethodPost, "/api/v1/resumes", token, map[string]string{
		"rawText": sampleResumeText,
	})
	if create.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", create.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(create.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	jd := strings.Repeat("Looking for a Go engineer with Kubernetes experience. ", 4)
	analyze := doJSON(t, app, http.MethodPost, "/api/v1/ats/analyze", token, map[string]string{
		"resumeId":       created.ID,
		"jobDescription": jd,
	})
	if analyze.Code != http.StatusInternalServerError {
		t.Fatalf("analyze without a provider expected 500, got %d: %s", analyze.Code, analyze.Body.String())
	}

	// The failed run must leave the resume back in DRAFT.
	get := doJSON(t, app, http.MethodGet, "/api/v1/resumes/"+created.ID, token, nil)
	if get.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d", get.Code)
	}
	var detail struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(get.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Status != "DRAFT" {
		t.Fatalf("expected DRAFT after failed analysis, got %q", detail.Status)
	}
}
