// -----------------------------------------------------------------------
// GENERATE_VIDEO - synthesize documentary segments with continuity
// -----------------------------------------------------------------------

package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/services/ai"
)

// VideoHandler renders documentary segments into video, chaining each call
// to the previous segment's continuity reference so the subject stays
// visually coherent. Partial success is success; only all-fail fails.
type VideoHandler struct {
	ai      interfaces.AIService
	history interfaces.HistoryStorage
	blobs   interfaces.BlobStorage
	video   *common.VideoConfig
	logger  arbor.ILogger
}

// NewVideoHandler creates the video synthesis stage
func NewVideoHandler(deps Deps) *VideoHandler {
	return &VideoHandler{
		ai:      deps.AI,
		history: deps.History,
		blobs:   deps.Blobs,
		video:   deps.Video,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *VideoHandler) Kind() models.TaskKind { return models.TaskGenerateVideo }

// Execute renders the segments in order and uploads the results
func (h *VideoHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	script, profile, err := h.resolveInputs(ctx, plan)
	if err != nil {
		return nil, err
	}

	segments := script.Segments
	if plan.Options.FirstSegmentOnly && len(segments) > 1 {
		segments = segments[:1]
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("documentary script has no segments to render")
	}

	bible := BuildCharacterBible(profile)
	resolution, aspectRatio, durationSecs := h.settings(plan)

	var (
		segmentBytes  [][]byte
		segmentURLs   []string
		continuityRef string
		failures      []string
	)

	for i, seg := range segments {
		report(i*90/len(segments), fmt.Sprintf("Rendering segment %d of %d", i+1, len(segments)))

		if !seg.Renderable() {
			failures = append(failures, fmt.Sprintf("segment %s: missing narration or visual description", seg.ID))
			continue
		}

		result, err := h.ai.GenerateVideoSegment(ctx, interfaces.VideoRequest{
			Prompt:        ai.VideoSegmentPrompt(bible, seg.VisualDescription, seg.Mood),
			DurationSecs:  durationSecs,
			Resolution:    resolution,
			AspectRatio:   aspectRatio,
			ContinuityRef: continuityRef,
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("segment %s: %v", seg.ID, err))
			h.logger.Warn().
				Str("job_id", plan.JobID).
				Str("segment", seg.ID).
				Err(err).
				Msg("Segment synthesis failed, continuing")
			continue
		}
		continuityRef = result.Handle

		key := fmt.Sprintf("videos/%s/segment_%03d.mp4", plan.Options.HistoryID, len(segmentURLs)+1)
		url, err := h.blobs.Put(ctx, key, result.Bytes)
		if err != nil {
			failures = append(failures, fmt.Sprintf("segment %s: upload failed: %v", seg.ID, err))
			continue
		}

		segmentBytes = append(segmentBytes, result.Bytes)
		segmentURLs = append(segmentURLs, url)
		h.appendSegmentURL(ctx, plan, url)

		report((i+1)*90/len(segments), fmt.Sprintf("Segment %d of %d rendered", i+1, len(segments)))
	}

	if len(segmentURLs) == 0 {
		return nil, fmt.Errorf("all video segments failed: %s", strings.Join(failures, "; "))
	}

	report(95, "Assembling full video")

	introURL := segmentURLs[0]
	fullURL := segmentURLs[0]
	if len(segmentBytes) > 1 {
		merged, err := h.ai.ConcatVideos(ctx, segmentBytes)
		if err != nil {
			h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Video concatenation failed, keeping segments only")
		} else {
			key := fmt.Sprintf("videos/%s/full.mp4", plan.Options.HistoryID)
			if url, err := h.blobs.Put(ctx, key, merged); err == nil {
				fullURL = url
			} else {
				h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Full video upload failed")
			}
		}
	}
	h.persistVideoURLs(ctx, plan, introURL, fullURL)

	h.logger.Info().
		Str("job_id", plan.JobID).
		Int("rendered", len(segmentURLs)).
		Int("failed", len(failures)).
		Msg("Video generation complete")

	out := models.Document{
		"segment_video_urls": segmentURLs,
		"intro_video_url":    introURL,
		"full_video_url":     fullURL,
		"segments_total":     len(segments),
		"segments_rendered":  len(segmentURLs),
	}
	if len(failures) > 0 {
		out["segment_errors"] = failures
	}
	return out, nil
}

// resolveInputs loads the documentary script and the profile used for the
// character bible, from the plan or from the store for video-only plans.
func (h *VideoHandler) resolveInputs(ctx context.Context, plan *models.Plan) (*models.Documentary, models.Document, error) {
	scriptDoc, ok := plan.Result(models.TaskGenerateDocumentary)
	profile, haveProfile := profileFromPlan(plan)

	if (!ok || !haveProfile) && h.history != nil && plan.Options.HistoryID != "" {
		stored, err := h.history.ReadStructured(ctx, plan.Options.HistoryID)
		if err != nil && !ok {
			return nil, nil, fmt.Errorf("failed to read stored documentary: %w", err)
		}
		if !ok {
			if doc, found := stored[models.FieldDocumentary].(models.Document); found {
				scriptDoc, ok = doc, true
			}
		}
		if !haveProfile {
			if doc, found := stored[models.FieldMerged].(models.Document); found {
				profile, haveProfile = doc, true
			}
		}
	}
	if !ok {
		return nil, nil, fmt.Errorf("no documentary script available for video generation")
	}
	if !haveProfile {
		profile = models.Document{}
	}

	var script models.Documentary
	if err := decodeDoc(scriptDoc, &script); err != nil {
		return nil, nil, fmt.Errorf("documentary script unusable: %w", err)
	}
	return &script, profile, nil
}

func (h *VideoHandler) settings(plan *models.Plan) (resolution, aspectRatio string, durationSecs int) {
	resolution = plan.Options.Resolution
	aspectRatio = plan.Options.AspectRatio
	durationSecs = 8
	if h.video != nil {
		if resolution == "" {
			resolution = h.video.Resolution
		}
		if aspectRatio == "" {
			aspectRatio = h.video.AspectRatio
		}
		if h.video.SegmentSeconds > 0 {
			durationSecs = h.video.SegmentSeconds
		}
	}
	return resolution, aspectRatio, durationSecs
}

func (h *VideoHandler) appendSegmentURL(ctx context.Context, plan *models.Plan, url string) {
	if h.history == nil || plan.Options.HistoryID == "" {
		return
	}
	if err := h.history.AppendSegmentVideo(ctx, plan.Options.HistoryID, url); err != nil {
		h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist segment video URL")
	}
}

func (h *VideoHandler) persistVideoURLs(ctx context.Context, plan *models.Plan, introURL, fullURL string) {
	if h.history == nil || plan.Options.HistoryID == "" {
		return
	}
	if err := h.history.WriteVideoURL(ctx, plan.Options.HistoryID, models.FieldIntroVideo, introURL); err != nil {
		h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist intro video URL")
	}
	if err := h.history.WriteVideoURL(ctx, plan.Options.HistoryID, models.FieldFullVideo, fullURL); err != nil {
		h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist full video URL")
	}
}

var _ interfaces.StageHandler = (*VideoHandler)(nil)
