// Package handlers contains the HTTP handlers of the profile generator.
// Handlers are closures over a Deps value so that tests can wire stub
// dependencies without global state.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gingerhealthcare/profilegen/config"
	"github.com/gingerhealthcare/profilegen/document"
	"github.com/gingerhealthcare/profilegen/interfaces"
	"github.com/gingerhealthcare/profilegen/llm"
	"github.com/gingerhealthcare/profilegen/logging"
	"github.com/gingerhealthcare/profilegen/matcher"
	"github.com/gingerhealthcare/profilegen/metrics"
	"github.com/gingerhealthcare/profilegen/prompt"
	"github.com/gingerhealthcare/profilegen/scraper"
	"github.com/gingerhealthcare/profilegen/session"
	"github.com/gingerhealthcare/profilegen/validation"
)

// PageFetcher retrieves the raw HTML of a doctor's page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

var _ PageFetcher = (*scraper.Fetcher)(nil)

// Deps bundles everything the handlers need. Generator is nil when no API
// key is configured; the generate flow then returns the prompt for manual
// copy-paste instead of calling the model.
type Deps struct {
	Store     interfaces.CatalogStore
	Health    interfaces.HealthChecker
	Sessions  *session.Store
	Fetcher   PageFetcher
	Matcher   *matcher.Matcher
	Builder   *document.Builder
	Generator llm.Generator
	Validator *validation.DataValidator
	Config    *config.Config
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type generateRequest struct {
	DoctorURL string `json:"doctor_url"`
}

type createDocumentRequest struct {
	DoctorName   string `json:"doctor_name"`
	ResponseText string `json:"response_text"`
}

// decodeBody decodes a JSON request body, falling back to form values for
// the named fields so that plain HTML forms keep working.
func decodeBody(r *http.Request, dst interface{}) error {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		return dec.Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	switch v := dst.(type) {
	case *loginRequest:
		v.Username = r.PostFormValue("username")
		v.Password = r.PostFormValue("password")
	case *generateRequest:
		v.DoctorURL = r.PostFormValue("doctor_url")
	case *createDocumentRequest:
		v.DoctorName = r.PostFormValue("doctor_name")
		v.ResponseText = r.PostFormValue("response_text")
	default:
		return fmt.Errorf("unsupported form target %T", dst)
	}
	return nil
}

// Login checks the operator credentials and starts a session.
func Login(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := deps.Validator.ValidateCredentialInput(req.Username, req.Password); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !session.CredentialsMatch(req.Username, req.Password, deps.Config.AdminUsername, deps.Config.AdminPassword) {
			logging.Warn("Failed login attempt", "username", req.Username, "remote_addr", r.RemoteAddr)
			RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		sess := deps.Sessions.Create(req.Username)
		session.WriteCookie(w, sess, deps.Config.Env == "prod")
		logging.Info("Operator logged in", "username", req.Username)
		RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
			"success":  true,
			"redirect": "/dashboard",
		})
	}
}

// Logout destroys the current session and clears the cookie.
func Logout(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := session.TokenFromRequest(r); token != "" {
			deps.Sessions.Destroy(token)
		}
		session.ClearCookie(w)
		RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
			"success":  true,
			"redirect": "/",
		})
	}
}

// RequireSession guards the dashboard API. Requests without a live session
// get 401 so the frontend can send the operator back to the login page.
func RequireSession(deps *Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if _, ok := deps.Sessions.Get(token); !ok {
				session.ClearCookie(w)
				RespondWithError(w, http.StatusUnauthorized, "Session expired")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type generateResponse struct {
	Success       bool            `json:"success"`
	Automated     bool            `json:"automated"`
	Profile       *scraper.Profile `json:"profile"`
	Matches       []matcher.Match `json:"matches"`
	Prompt        string          `json:"prompt"`
	GeneratedText string          `json:"generated_text,omitempty"`
	APIError      string          `json:"api_error,omitempty"`
}

// GenerateProfile runs the full pipeline: fetch the doctor's page, extract
// a profile, rank the catalogue against it and build the prompt. When a
// generator is configured it also calls the model; an API failure degrades
// to the manual flow instead of failing the request.
func GenerateProfile(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := decodeBody(r, &req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := deps.Validator.ValidateDoctorURL(req.DoctorURL); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		pageHTML, err := deps.Fetcher.Fetch(r.Context(), req.DoctorURL)
		if err != nil {
			metrics.FetchFailuresTotal.Inc()
			var fetchErr *scraper.FetchError
			if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
				logging.Warn("Doctor page returned error status", "url", req.DoctorURL, "status", fetchErr.StatusCode)
				RespondWithError(w, http.StatusBadGateway,
					fmt.Sprintf("The doctor page returned HTTP %d", fetchErr.StatusCode))
				return
			}
			logging.Warn("Failed to fetch doctor page", "url", req.DoctorURL, "error", err)
			RespondWithError(w, http.StatusBadGateway, "Could not fetch the doctor page")
			return
		}

		profile := scraper.Extract(req.DoctorURL, pageHTML)
		matches := deps.Matcher.Rank(profile, deps.Store.GetProcedures())
		builtPrompt := prompt.Build(profile, matches)

		if token := session.TokenFromRequest(r); token != "" {
			deps.Sessions.SetLastPrompt(token, builtPrompt)
		}

		resp := generateResponse{
			Success: true,
			Profile: profile,
			Matches: matches,
			Prompt:  builtPrompt,
		}

		mode := "manual"
		if deps.Generator != nil {
			text, genErr := deps.Generator.Generate(r.Context(), builtPrompt)
			if genErr != nil {
				logging.Warn("Model call failed, falling back to manual flow", "error", genErr)
				resp.APIError = "Automated generation failed; use the prompt manually"
			} else {
				resp.Automated = true
				resp.GeneratedText = text
				mode = "automated"
			}
		}
		metrics.ProfilesGeneratedTotal.WithLabelValues(mode).Inc()

		logging.Info("Profile generated",
			"url", req.DoctorURL,
			"doctor", profile.Name,
			"matches", len(matches),
			"mode", mode)
		RespondWithJSON(w, r, http.StatusOK, resp)
	}
}

// CreateDocument turns the (edited) model response into a .docx download.
func CreateDocument(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDocumentRequest
		if err := decodeBody(r, &req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := deps.Validator.ValidateResponseText(req.ResponseText); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		data, err := deps.Builder.Build(req.DoctorName, req.ResponseText)
		if err != nil {
			logging.Error("Failed to build document", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to build the document")
			return
		}
		metrics.DocumentsBuiltTotal.Inc()

		filename := document.Filename(time.Now())
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logging.Warn("Failed to write document response", "error", err)
		}
		logging.Info("Document built", "doctor", req.DoctorName, "filename", filename, "bytes", len(data))
	}
}

// LastPrompt returns the prompt built by the most recent generation in this
// session, so the dashboard can re-show it after a reload.
func LastPrompt(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r)
		sess, ok := deps.Sessions.Get(token)
		if !ok {
			RespondWithError(w, http.StatusUnauthorized, "Session expired")
			return
		}
		RespondWithJSON(w, r, http.StatusOK, map[string]string{
			"prompt": sess.LastPrompt,
		})
	}
}

// ServeProcedures serves the procedure catalogue one page at a time. A
// specialty query parameter narrows the listing to one specialty via the
// prebuilt index.
func ServeProcedures(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		procedures := deps.Store.GetProcedures()
		if len(procedures) == 0 {
			RespondWithError(w, http.StatusServiceUnavailable, "Catalogue not loaded yet")
			return
		}

		specialty := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("specialty")))
		if specialty != "" {
			filtered, ok := deps.Store.GetSpecialtyIndex()[specialty]
			if !ok {
				RespondWithError(w, http.StatusNotFound,
					fmt.Sprintf("No procedures found for specialty %q", specialty))
				return
			}
			procedures = filtered
		}

		pageNumber := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				RespondWithError(w, http.StatusBadRequest, "Invalid page number")
				return
			}
			pageNumber = parsed
		}

		const pageSize = 100
		maxPage := (len(procedures) + pageSize - 1) / pageSize
		if pageNumber > maxPage {
			RespondWithError(w, http.StatusNotFound,
				fmt.Sprintf("Page %d does not exist, last page is %d", pageNumber, maxPage))
			return
		}

		start := (pageNumber - 1) * pageSize
		end := start + pageSize
		if end > len(procedures) {
			end = len(procedures)
		}

		RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
			"page":       pageNumber,
			"max_page":   maxPage,
			"total":      len(procedures),
			"procedures": procedures[start:end],
		})
	}
}

// HealthCheck reports catalogue freshness and service status.
func HealthCheck(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := deps.Health.HealthCheck()
		payload := map[string]interface{}{
			"status": status,
		}
		for k, v := range data {
			payload[k] = v
		}
		RespondWithJSON(w, r, httpStatus, payload)
	}
}
