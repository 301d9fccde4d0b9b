package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/config"
	"github.com/gingerhealthcare/profilegen/data"
	"github.com/gingerhealthcare/profilegen/document"
	"github.com/gingerhealthcare/profilegen/health"
	"github.com/gingerhealthcare/profilegen/matcher"
	"github.com/gingerhealthcare/profilegen/scraper"
	"github.com/gingerhealthcare/profilegen/session"
	"github.com/gingerhealthcare/profilegen/validation"
)

const doctorPageHTML = `<html><body>
<h1>Dr. Anil Mehta</h1>
<p>Dr. Anil Mehta is a cardiologist with 18 years of experience performing coronary angioplasty.</p>
</body></html>`

// stubFetcher serves canned HTML or a canned error.
type stubFetcher struct {
	body string
	err  error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.body, nil
}

// stubGenerator returns canned model output.
type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func testDeps(t *testing.T) *Deps {
	t.Helper()

	container := data.NewCatalogContainer()
	entries := []catalog.ProcedureEntry{
		{Name: "Coronary Angioplasty", Specialty: "Cardiology"},
		{Name: "Dental Cleaning", Specialty: "Dentistry"},
	}
	container.UpdateCatalog(entries, catalog.SpecialtyIndex(entries))

	sessions := session.NewStore(time.Hour)
	t.Cleanup(sessions.Close)

	return &Deps{
		Store:     container,
		Health:    health.NewHealthChecker(container),
		Sessions:  sessions,
		Fetcher:   &stubFetcher{body: doctorPageHTML},
		Matcher:   matcher.New(nil, 15),
		Builder:   document.NewBuilder(),
		Validator: validation.NewDataValidator(),
		Config: &config.Config{
			Env:           "test",
			AdminUsername: "admin",
			AdminPassword: "secret",
		},
	}
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request, deps *Deps) session.Session {
	sess := deps.Sessions.Create("admin")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.Token})
	return sess
}

func TestLoginSuccess(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/login", map[string]string{
		"username": "admin",
		"password": "secret",
	})
	Login(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "/dashboard", body["redirect"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLoginWrongPassword(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	Login(deps)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginEmptyCredentials(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/login", map[string]string{})
	Login(deps)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFormEncoded(t *testing.T) {
	deps := testDeps(t)

	form := strings.NewReader("username=admin&password=secret")
	req := httptest.NewRequest(http.MethodPost, "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	Login(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	deps := testDeps(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	sess := withSession(req, deps)

	rec := httptest.NewRecorder()
	Logout(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := deps.Sessions.Get(sess.Token)
	assert.False(t, ok, "session should be destroyed")
}

func TestRequireSession(t *testing.T) {
	deps := testDeps(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireSession(deps)(next)

	// No cookie
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/procedures", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Bogus token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/procedures", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "bogus"})
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Live session
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/procedures", nil)
	withSession(req, deps)
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateProfileManualMode(t *testing.T) {
	deps := testDeps(t)

	req := jsonRequest(http.MethodPost, "/generate", map[string]string{
		"doctor_url": "https://hospital.example/doctors/dr-anil-mehta",
	})
	sess := withSession(req, deps)

	rec := httptest.NewRecorder()
	GenerateProfile(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.False(t, resp.Automated)
	assert.Empty(t, resp.GeneratedText)
	assert.Equal(t, "Anil Mehta", resp.Profile.Name)

	require.NotEmpty(t, resp.Matches)
	assert.Equal(t, "Coronary Angioplasty", resp.Matches[0].Entry.Name)

	assert.Contains(t, resp.Prompt, "- Name: Anil Mehta")
	assert.Contains(t, resp.Prompt, "- Coronary Angioplasty (Cardiology)")

	got, ok := deps.Sessions.Get(sess.Token)
	require.True(t, ok)
	assert.Equal(t, resp.Prompt, got.LastPrompt, "prompt should be cached on the session")
}

func TestGenerateProfileAutomatedMode(t *testing.T) {
	deps := testDeps(t)
	deps.Generator = &stubGenerator{text: "**PROFESSIONAL SUMMARY**\nA fine cardiologist."}

	req := jsonRequest(http.MethodPost, "/generate", map[string]string{
		"doctor_url": "https://hospital.example/doctors/dr-anil-mehta",
	})
	withSession(req, deps)

	rec := httptest.NewRecorder()
	GenerateProfile(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Automated)
	assert.Contains(t, resp.GeneratedText, "A fine cardiologist")
	assert.Empty(t, resp.APIError)
}

func TestGenerateProfileModelFailureFallsBack(t *testing.T) {
	deps := testDeps(t)
	deps.Generator = &stubGenerator{err: fmt.Errorf("api quota exceeded")}

	req := jsonRequest(http.MethodPost, "/generate", map[string]string{
		"doctor_url": "https://hospital.example/doctors/dr-anil-mehta",
	})
	withSession(req, deps)

	rec := httptest.NewRecorder()
	GenerateProfile(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "model failure must not fail the request")

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Automated)
	assert.NotEmpty(t, resp.APIError)
	assert.NotEmpty(t, resp.Prompt, "manual prompt must still be returned")
}

func TestGenerateProfileRejectsBadURL(t *testing.T) {
	deps := testDeps(t)

	for _, url := range []string{"", "ftp://x", "http://localhost/x"} {
		req := jsonRequest(http.MethodPost, "/generate", map[string]string{"doctor_url": url})
		withSession(req, deps)

		rec := httptest.NewRecorder()
		GenerateProfile(deps)(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %q", url)
	}
}

func TestGenerateProfileFetchFailure(t *testing.T) {
	deps := testDeps(t)
	deps.Fetcher = &stubFetcher{err: &scraper.FetchError{
		URL:        "https://hospital.example/doctors/x",
		StatusCode: http.StatusNotFound,
	}}

	req := jsonRequest(http.MethodPost, "/generate", map[string]string{
		"doctor_url": "https://hospital.example/doctors/x",
	})
	withSession(req, deps)

	rec := httptest.NewRecorder()
	GenerateProfile(deps)(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")
}

func TestCreateDocument(t *testing.T) {
	deps := testDeps(t)

	req := jsonRequest(http.MethodPost, "/create-document", map[string]string{
		"doctor_name":   "Dr. Anil Mehta",
		"response_text": "**PROFESSIONAL SUMMARY**\nA fine cardiologist.",
	})
	withSession(req, deps)

	rec := httptest.NewRecorder()
	CreateDocument(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		rec.Header().Get("Content-Type"))

	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "doctor_profile_")
	assert.Contains(t, disposition, ".docx")

	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "body should be a zip archive")
}

func TestCreateDocumentRejectsOversizedText(t *testing.T) {
	deps := testDeps(t)

	req := jsonRequest(http.MethodPost, "/create-document", map[string]string{
		"doctor_name":   "Dr. X",
		"response_text": strings.Repeat("x", validation.MaxResponseTextLen+1),
	})
	withSession(req, deps)

	rec := httptest.NewRecorder()
	CreateDocument(deps)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLastPrompt(t *testing.T) {
	deps := testDeps(t)

	req := httptest.NewRequest(http.MethodGet, "/api/prompt", nil)
	sess := withSession(req, deps)
	deps.Sessions.SetLastPrompt(sess.Token, "cached prompt")

	rec := httptest.NewRecorder()
	LastPrompt(deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cached prompt", body["prompt"])
}

func TestServeProcedures(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Page       int                      `json:"page"`
		MaxPage    int                      `json:"max_page"`
		Total      int                      `json:"total"`
		Procedures []catalog.ProcedureEntry `json:"procedures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 1, body.MaxPage)
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Procedures, 2)
}

func TestServeProceduresSpecialtyFilter(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?specialty=Cardiology", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total      int                      `json:"total"`
		Procedures []catalog.ProcedureEntry `json:"procedures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Procedures, 1)
	assert.Equal(t, "Coronary Angioplasty", body.Procedures[0].Name)

	// Lookup is case-insensitive
	rec = httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?specialty=dentistry", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown specialty
	rec = httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?specialty=astrology", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeProceduresPaging(t *testing.T) {
	deps := testDeps(t)

	var entries []catalog.ProcedureEntry
	for i := 0; i < 250; i++ {
		entries = append(entries, catalog.ProcedureEntry{
			Name:      fmt.Sprintf("Procedure %d", i),
			Specialty: "Cardiology",
		})
	}
	deps.Store.UpdateCatalog(entries, catalog.SpecialtyIndex(entries))

	rec := httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?page=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Page       int                      `json:"page"`
		MaxPage    int                      `json:"max_page"`
		Procedures []catalog.ProcedureEntry `json:"procedures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Page)
	assert.Equal(t, 3, body.MaxPage)
	assert.Len(t, body.Procedures, 50)

	// Past the last page
	rec = httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?page=4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Not a number
	rec = httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeProceduresEmptyCatalogue(t *testing.T) {
	deps := testDeps(t)
	deps.Store = data.NewCatalogContainer()

	rec := httptest.NewRecorder()
	ServeProcedures(deps)(rec, httptest.NewRequest(http.MethodGet, "/api/procedures", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheckHealthy(t *testing.T) {
	deps := testDeps(t)

	rec := httptest.NewRecorder()
	HealthCheck(deps)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthCheckEmptyCatalogue(t *testing.T) {
	deps := testDeps(t)
	empty := data.NewCatalogContainer()
	deps.Store = empty
	deps.Health = health.NewHealthChecker(empty)

	rec := httptest.NewRecorder()
	HealthCheck(deps)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
