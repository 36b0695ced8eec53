// HTTP handlers for the board service.
//
// All routes expect x-user-id and x-user-role headers forwarded by the
// Gateway after session verification.
//
// Routes:
//
//	POST   /jobs                        → create job (employer)
//	GET    /jobs                        → list jobs, scoped by role (?status=)
//	GET    /jobs/{id}                   → job detail
//	PUT    /jobs/{id}                   → edit fields / transition status (owner)
//	DELETE /jobs/{id}                   → delete job + cascade (owner)
//	POST   /jobs/{id}/apply             → apply to job (job_seeker)
//	GET    /applications/{id}           → application detail
//	PUT    /applications/{id}/status    → accept/reject (owning employer)
//	GET    /dashboard/employer          → employer dashboard (?limit=)
//	GET    /dashboard/jobseeker         → job seeker dashboard
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Handler adapts the Service to HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts all board-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJobAction)
	mux.HandleFunc("/applications/", h.handleApplicationAction)
	mux.HandleFunc("/dashboard/employer", h.employerDashboard)
	mux.HandleFunc("/dashboard/jobseeker", h.jobSeekerDashboard)
}

// ─── Request types ────────────────────────────────────────────────────────────

type createJobRequest struct {
	JobTitle         string  `json:"jobTitle" validate:"required,max=255"`
	JobDescription   string  `json:"jobDescription" validate:"required"`
	Qualifications   *string `json:"qualifications"`
	Responsibilities *string `json:"responsibilities"`
	JobType          string  `json:"jobType" validate:"required,oneof=Full-time Part-time Internship Contract"`
	Location         string  `json:"location" validate:"required,max=200"`
	SalaryRange      *string `json:"salaryRange" validate:"omitempty,max=120"`
	Status           *string `json:"status"`
}

type updateJobRequest struct {
	JobTitle         *string `json:"jobTitle" validate:"omitempty,min=1,max=255"`
	JobDescription   *string `json:"jobDescription" validate:"omitempty,min=1"`
	Qualifications   *string `json:"qualifications"`
	Responsibilities *string `json:"responsibilities"`
	JobType          *string `json:"jobType" validate:"omitempty,oneof=Full-time Part-time Internship Contract"`
	Location         *string `json:"location" validate:"omitempty,min=1,max=200"`
	SalaryRange      *string `json:"salaryRange" validate:"omitempty,max=120"`
	Status           *string `json:"status"`
}

type applicationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createJob(w, r)
	case http.MethodGet:
		h.listJobs(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobAction handles /jobs/{id} and /jobs/{id}/apply.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2:
		jobID := parts[1]
		switch r.Method {
		case http.MethodGet:
			h.getJob(w, r, jobID)
		case http.MethodPut:
			h.updateJob(w, r, jobID)
		case http.MethodDelete:
			h.deleteJob(w, r, jobID)
		default:
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 3 && parts[2] == "apply":
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.applyToJob(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// handleApplicationAction handles /applications/{id} and /applications/{id}/status.
func (h *Handler) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2:
		if r.Method != http.MethodGet {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getApplication(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "status":
		if r.Method != http.MethodPut {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.updateApplicationStatus(w, r, parts[1])
	default:
		jsonError(w, "invalid path", http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var body createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		jsonError(w, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}

	in := CreateJobInput{
		JobTitle:         body.JobTitle,
		JobDescription:   body.JobDescription,
		Qualifications:   body.Qualifications,
		Responsibilities: body.Responsibilities,
		JobType:          body.JobType,
		Location:         body.Location,
		SalaryRange:      body.SalaryRange,
	}
	if body.Status != nil {
		st, err := ParseJobStatus(*body.Status)
		if err != nil {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		in.Status = &st
	}

	job, err := h.svc.CreateJob(r.Context(), caller, in)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonWith(w, http.StatusCreated, job)
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var status *JobStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := ParseJobStatus(s)
		if err != nil {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		status = &st
	}

	switch caller.Role {
	case RoleEmployer:
		items, err := h.svc.ListEmployerJobs(r.Context(), caller, status)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonOK(w, items)
	case RoleJobSeeker:
		items, err := h.svc.BrowseJobs(r.Context(), caller, status)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonOK(w, items)
	}
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetJob(r.Context(), caller, jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, detail)
}

func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request, jobID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var body updateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		jsonError(w, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}

	patch := JobPatch{
		JobTitle:         body.JobTitle,
		JobDescription:   body.JobDescription,
		Qualifications:   body.Qualifications,
		Responsibilities: body.Responsibilities,
		JobType:          body.JobType,
		Location:         body.Location,
		SalaryRange:      body.SalaryRange,
	}
	if body.Status != nil {
		st, err := ParseJobStatus(*body.Status)
		if err != nil {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		patch.Status = &st
	}

	job, err := h.svc.UpdateJob(r.Context(), caller, jobID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, job)
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request, jobID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteJob(r.Context(), caller, jobID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyToJob(w http.ResponseWriter, r *http.Request, jobID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	app, err := h.svc.ApplyToJob(r.Context(), caller, jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonWith(w, http.StatusCreated, app)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request, appID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetApplication(r.Context(), caller, appID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, detail)
}

func (h *Handler) updateApplicationStatus(w http.ResponseWriter, r *http.Request, appID string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var body applicationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		jsonError(w, validationMessage(err), http.StatusUnprocessableEntity)
		return
	}

	to, err := ParseApplicationStatus(body.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	detail, err := h.svc.UpdateApplicationStatus(r.Context(), caller, appID, to)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, detail)
}

func (h *Handler) employerDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 50 {
			jsonError(w, "limit must be between 1 and 50", http.StatusUnprocessableEntity)
			return
		}
		limit = v
	}

	dash, err := h.svc.GetEmployerDashboard(r.Context(), caller, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, dash)
}

func (h *Handler) jobSeekerDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	dash, err := h.svc.GetJobSeekerDashboard(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonOK(w, dash)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// caller extracts the gateway-forwarded identity. Writes the error response
// itself and returns ok=false when the headers are missing or malformed.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (Caller, bool) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return Caller{}, false
	}
	role, err := ParseRole(r.Header.Get("x-user-role"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return Caller{}, false
	}
	return Caller{ID: userID, Role: role}, true
}

// writeError maps core error kinds to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotAuthorized):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrJobNotOpen),
		errors.Is(err, ErrDuplicateApplication):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrStoreUnavailable):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

// validationMessage flattens a validator error into one message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag())
	}
	return err.Error()
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonWith(w, http.StatusOK, v)
}

func jsonWith(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
