// -----------------------------------------------------------------------
// Job handler - submission, duplicate guards, status polling
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/planner"
	"github.com/ternarybob/odyssey/internal/scheduler"
)

// Cooldown applied to duplicate documentary/video submissions whose prior
// plan terminated moments ago.
const duplicateCooldown = 30 * time.Second

// Minutes estimated per documentary segment, surfaced on video submission
const minutesPerSegment = 2

// GenerateRequest is the job submission payload
type GenerateRequest struct {
	SourceKind    string `json:"source_kind" validate:"required,oneof=url resume"`
	URL           string `json:"url" validate:"omitempty,url"`
	ResumeFileURL string `json:"resume_file_url"`
	GuestUserID   string `json:"guest_user_id" validate:"required"`
	IncludeGitHub bool   `json:"include_github"`
}

// VideoRequest is the video-only submission payload
type VideoRequest struct {
	FirstSegmentOnly bool   `json:"first_segment_only"`
	ExportFormat     string `json:"export_format"`
	AspectRatio      string `json:"aspect_ratio"`
}

// JobHandler owns job submission and status for the profile pipeline
type JobHandler struct {
	logger    arbor.ILogger
	registry  *scheduler.Registry
	scheduler *scheduler.Scheduler
	history   interfaces.HistoryStorage
	config    *common.Config
	validate  *validator.Validate

	mu          sync.Mutex
	historyJobs map[string]string // history_id -> most recent job_id, duplicate guard
}

// NewJobHandler creates the job handler
func NewJobHandler(registry *scheduler.Registry, sched *scheduler.Scheduler, history interfaces.HistoryStorage, config *common.Config, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		logger:      logger,
		registry:    registry,
		scheduler:   sched,
		history:     history,
		config:      config,
		validate:    validator.New(),
		historyJobs: make(map[string]string),
	}
}

// GenerateHandler handles POST /profile/generate
func (h *JobHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var source models.SourceRef
	switch req.SourceKind {
	case "url":
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required when source_kind is url")
			return
		}
		source = models.SourceRef{Kind: models.SourceKindURL, URL: req.URL}
	case "resume":
		if req.ResumeFileURL == "" {
			WriteError(w, http.StatusBadRequest, "resume_file_url is required when source_kind is resume")
			return
		}
		source = models.SourceRef{Kind: models.SourceKindResume, Blob: blobKeyFromURL(req.ResumeFileURL, h.config.Storage.Blobs.BaseURL)}
	}

	historyID, err := h.history.CreateRow(r.Context(), req.GuestUserID, source)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create history row")
		WriteError(w, http.StatusInternalServerError, "failed to create job record")
		return
	}

	jobID := common.NewJobID()
	plan := planner.BuildPlan(jobID, source, models.PlanOptions{
		GuestID:       req.GuestUserID,
		HistoryID:     historyID,
		IncludeGitHub: req.IncludeGitHub,
	})
	h.launch(plan, historyID)

	h.logger.Info().
		Str("job_id", jobID).
		Str("history_id", historyID).
		Str("source_kind", req.SourceKind).
		Msg("Job submitted")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":     jobID,
		"history_id": historyID,
		"status":     "PROCESSING",
	})
}

// ComputeDocumentaryHandler handles POST /profile/{history_id}/compute-documentary
func (h *JobHandler) ComputeDocumentaryHandler(w http.ResponseWriter, r *http.Request, historyID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	row, err := h.history.GetRow(r.Context(), historyID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown history id")
		return
	}

	if existing := h.duplicateJob(historyID); existing != "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"job_id": existing,
			"status": "already_processing",
		})
		return
	}

	jobID := common.NewJobID()
	plan := planner.BuildPlan(jobID, row.SourceRef, models.PlanOptions{
		GuestID:         row.OwnerRef,
		HistoryID:       historyID,
		DocumentaryOnly: true,
	})
	h.launch(plan, historyID)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"status": "processing",
	})
}

// GenerateVideoHandler handles POST /profile/{history_id}/generate-video
func (h *JobHandler) GenerateVideoHandler(w http.ResponseWriter, r *http.Request, historyID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	row, err := h.history.GetRow(r.Context(), historyID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown history id")
		return
	}

	var req VideoRequest
	if r.Body != nil {
		// An empty body selects the defaults
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	totalSegments := h.storedSegmentCount(r.Context(), historyID)
	if totalSegments == 0 {
		WriteError(w, http.StatusBadRequest, "no documentary available for this history; run compute-documentary first")
		return
	}
	if req.FirstSegmentOnly {
		totalSegments = 1
	}

	if existing := h.duplicateJob(historyID); existing != "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"job_id":           existing,
			"status":           "already_processing",
			"total_segments":   totalSegments,
			"estimate_minutes": totalSegments * minutesPerSegment,
		})
		return
	}

	jobID := common.NewJobID()
	plan := planner.BuildPlan(jobID, row.SourceRef, models.PlanOptions{
		GuestID:          row.OwnerRef,
		HistoryID:        historyID,
		VideoOnly:        true,
		FirstSegmentOnly: req.FirstSegmentOnly,
		AspectRatio:      req.AspectRatio,
	})
	h.launch(plan, historyID)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":           jobID,
		"status":           "processing",
		"total_segments":   totalSegments,
		"estimate_minutes": totalSegments * minutesPerSegment,
	})
}

// StatusHandler handles GET /profile/status/{job_id}
func (h *JobHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/profile/status/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "job id is required")
		return
	}

	plan := h.registry.Get(jobID)
	if plan == nil {
		WriteError(w, http.StatusNotFound, "unknown job id")
		return
	}

	WriteJSON(w, http.StatusOK, StatusResponse(plan))
}

// HistoryHandler handles GET /api/profile/history?guest_id=
func (h *JobHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	guestID := r.URL.Query().Get("guest_id")
	if guestID == "" {
		WriteError(w, http.StatusBadRequest, "guest_id is required")
		return
	}

	rows, err := h.history.ListByOwner(r.Context(), guestID)
	if err != nil {
		h.logger.Error().Str("guest_id", guestID).Err(err).Msg("Failed to list history")
		WriteError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	items := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		items = append(items, map[string]interface{}{
			"history_id": row.ID,
			"source_ref": row.SourceRef,
			"is_default": row.IsDefault,
			"created_at": row.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"history": items})
}

// SweepHandler handles POST /api/admin/sweep
func (h *JobHandler) SweepHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	evicted := h.registry.Sweep(h.config.Registry.MaxAge)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"evicted": evicted})
}

// StatusResponse builds the polling view of a plan, including whatever
// stage outputs exist so far.
func StatusResponse(plan *models.Plan) map[string]interface{} {
	snap := plan.Snapshot()
	results := plan.Results()

	resp := map[string]interface{}{
		"job_id":       snap.JobID,
		"status":       snap.Status,
		"progress":     snap.Progress,
		"current_task": snap.CurrentTaskID,
		"tasks":        snap.Tasks,
	}
	if snap.Error != "" {
		resp["error"] = snap.Error
	}

	data := firstResult(results, models.TaskAggregateHistory, models.TaskEnrichProfile, models.TaskFetchProfile)
	if data != nil {
		resp["data"] = data
	}
	resp["journey"] = results[models.TaskStructureJourney]
	resp["timeline"] = results[models.TaskGenerateTimeline]
	resp["documentary"] = results[models.TaskGenerateDocumentary]
	if video, ok := results[models.TaskGenerateVideo]; ok {
		resp["video"] = video
	}
	return resp
}

func firstResult(results map[models.TaskKind]models.Document, kinds ...models.TaskKind) models.Document {
	for _, kind := range kinds {
		if doc, ok := results[kind]; ok && len(doc) > 0 {
			return doc
		}
	}
	return nil
}

// launch registers the plan and starts asynchronous execution
func (h *JobHandler) launch(plan *models.Plan, historyID string) {
	h.registry.Put(plan)

	h.mu.Lock()
	h.historyJobs[historyID] = plan.JobID
	h.mu.Unlock()

	go func() {
		if err := h.scheduler.Execute(context.Background(), plan.JobID); err != nil {
			h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Plan execution failed to start")
		}
	}()
}

// duplicateJob returns the job id of a still-running plan for the same
// history, or of one that terminated within the cooldown window.
func (h *JobHandler) duplicateJob(historyID string) string {
	h.mu.Lock()
	jobID := h.historyJobs[historyID]
	h.mu.Unlock()
	if jobID == "" {
		return ""
	}

	plan := h.registry.Get(jobID)
	if plan == nil {
		return ""
	}

	snap := plan.Snapshot()
	switch snap.Status {
	case models.PlanStatusCompleted, models.PlanStatusFailed:
		if snap.CompletedAt != nil && time.Since(*snap.CompletedAt) < duplicateCooldown {
			return jobID
		}
		return ""
	default:
		return jobID
	}
}

// storedSegmentCount reads how many segments the persisted documentary has
func (h *JobHandler) storedSegmentCount(ctx context.Context, historyID string) int {
	stored, err := h.history.ReadStructured(ctx, historyID)
	if err != nil {
		return 0
	}
	doc, ok := stored[models.FieldDocumentary].(models.Document)
	if !ok {
		return 0
	}
	segments, ok := doc["segments"].([]interface{})
	if ok {
		return len(segments)
	}
	// Stored documents written by typed code keep their concrete slice type
	data, err := json.Marshal(doc)
	if err != nil {
		return 0
	}
	var script models.Documentary
	if err := json.Unmarshal(data, &script); err != nil {
		return 0
	}
	return len(script.Segments)
}

// blobKeyFromURL maps a public file URL back to its blob key
func blobKeyFromURL(fileURL, baseURL string) string {
	key := fileURL
	if idx := strings.Index(key, baseURL+"/"); baseURL != "" && idx >= 0 {
		key = key[idx+len(baseURL)+1:]
	}
	return strings.TrimPrefix(key, "/")
}
