// -----------------------------------------------------------------------
// FETCH_PROFILE - extract the canonical profile from the submitted source
// -----------------------------------------------------------------------

package stages

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/services/ai"
)

// Extraction methods stamped on the profile document
const (
	methodPDF         = "pdf_extraction"
	methodOAuthSearch = "oauth_anchored_search"
	methodWebSearch   = "web_search"
	methodURLContext  = "url_context_with_search"
)

// Walled platforms map to the OAuth provider whose credential can anchor
// the search when a direct fetch is impossible.
var hostProviders = map[string]string{
	"linkedin.com":  "linkedin",
	"github.com":    "github",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"glassdoor.com": "glassdoor",
}

// FetchHandler extracts the profile from a resume PDF or a profile URL.
// This is the only critical stage: an unusable source fails the plan.
type FetchHandler struct {
	ai      interfaces.AIService
	scraper interfaces.ScraperService
	auth    interfaces.AuthStorage
	blobs   interfaces.BlobStorage
	logger  arbor.ILogger
}

// NewFetchHandler creates the profile fetch stage
func NewFetchHandler(deps Deps) *FetchHandler {
	return &FetchHandler{
		ai:      deps.AI,
		scraper: deps.Scraper,
		auth:    deps.Auth,
		blobs:   deps.Blobs,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *FetchHandler) Kind() models.TaskKind { return models.TaskFetchProfile }

// Execute extracts and validates the profile for the plan's source
func (h *FetchHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	var (
		doc    models.Document
		method string
		err    error
	)

	switch plan.Source.Kind {
	case models.SourceKindResume:
		report(10, "Reading resume document")
		doc, err = h.fetchFromResume(ctx, plan)
		method = methodPDF
	case models.SourceKindURL:
		report(10, "Extracting profile from URL")
		doc, method, err = h.fetchFromURL(ctx, plan)
	default:
		return nil, fmt.Errorf("unknown source kind: %s", plan.Source.Kind)
	}
	if err != nil {
		return nil, err
	}

	report(80, "Validating extracted profile")

	var profile models.Profile
	if err := decodeDoc(doc, &profile); err != nil {
		return nil, fmt.Errorf("extraction returned an unusable document: %w", err)
	}
	if !profile.IsValid() {
		if plan.Source.Kind == models.SourceKindResume {
			return nil, fmt.Errorf("the uploaded document does not look like a resume: no name or professional details found")
		}
		return nil, fmt.Errorf("the submitted URL does not look like a professional profile: no name or professional details found")
	}

	if plan.Source.Kind == models.SourceKindURL {
		doc["source_ref"] = plan.Source.URL
	} else {
		doc["source_ref"] = plan.Source.Blob
	}
	doc["extraction_timestamp"] = time.Now().UTC().Format(time.RFC3339)
	doc["extraction_method"] = method

	h.logger.Info().
		Str("job_id", plan.JobID).
		Str("method", method).
		Str("name", profile.Name).
		Msg("Profile extracted")
	return doc, nil
}

// fetchFromResume extracts the profile from an uploaded PDF. The blob is
// deleted once extraction succeeds.
func (h *FetchHandler) fetchFromResume(ctx context.Context, plan *models.Plan) (models.Document, error) {
	if plan.Source.Blob == "" {
		return nil, fmt.Errorf("resume source has no document reference")
	}

	pdf, err := h.blobs.Get(ctx, plan.Source.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume document: %w", err)
	}

	// Pre-flight before the expensive AI call: a PDF we cannot page-count
	// is one the model cannot read either.
	pages, err := pdfapi.PageCount(bytes.NewReader(pdf), nil)
	if err != nil || pages == 0 {
		return nil, fmt.Errorf("the uploaded PDF is unreadable or empty")
	}

	doc, err := h.ai.GenerateFromPDF(ctx, pdf, ai.ProfilePDFPrompt(), ai.ProfileSchema)
	if err != nil {
		return nil, fmt.Errorf("resume extraction failed: %w", err)
	}

	// A resume carries no source URL to anchor enrichment on; discover
	// external profile pages from the extracted name. Best effort.
	if name := stringAt(doc, "name"); len(strings.TrimSpace(name)) >= 2 && len(relatedLinks(doc)) == 0 {
		links, err := h.ai.GenerateStructured(ctx, ai.RelatedLinksPrompt(name, stringAt(doc, "title")), ai.RelatedLinksSchema, interfaces.ToolWebSearch)
		if err != nil {
			h.logger.Warn().Str("job_id", plan.JobID).Err(err).Msg("Related link discovery failed, continuing without")
		} else if found, ok := links["related_links"]; ok {
			doc["related_links"] = found
		}
	}

	if err := h.blobs.Delete(ctx, plan.Source.Blob); err != nil {
		h.logger.Warn().Str("blob", plan.Source.Blob).Err(err).Msg("Failed to delete resume blob after extraction")
	}
	return doc, nil
}

// fetchFromURL extracts the profile from a public page. Walled platforms
// are never fetched directly; the model reconstructs the profile from web
// search, anchored on OAuth profile fields when a credential exists.
func (h *FetchHandler) fetchFromURL(ctx context.Context, plan *models.Plan) (models.Document, string, error) {
	source := plan.Source.URL

	if !h.scraper.IsBlockedHost(source) {
		doc, err := h.ai.GenerateStructured(ctx, ai.ProfileURLPrompt(source), ai.ProfileSchema,
			interfaces.ToolURLContext, interfaces.ToolWebSearch)
		if err != nil {
			return nil, "", fmt.Errorf("profile extraction failed: %w", err)
		}
		return doc, methodURLContext, nil
	}

	prompt := ai.ProfileSearchPrompt(source)
	method := methodWebSearch

	if provider := providerForURL(source); provider != "" && h.auth != nil {
		cred, err := h.auth.GetCredential(ctx, plan.Options.GuestID, provider)
		if err == nil && !cred.Expired() && cred.Username != "" {
			prompt = fmt.Sprintf("%s\n\nAnchors from the person's linked %s account: username %q.", prompt, provider, cred.Username)
			method = methodOAuthSearch
		}
	}

	doc, err := h.ai.GenerateStructured(ctx, prompt, ai.ProfileSchema, interfaces.ToolWebSearch)
	if err != nil {
		return nil, "", fmt.Errorf("profile reconstruction failed: %w", err)
	}
	return doc, method, nil
}

func providerForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return hostProviders[host]
}

// relatedLinks reads the related_links array out of a profile document
func relatedLinks(doc models.Document) []string {
	raw, ok := doc["related_links"].([]interface{})
	if !ok {
		// Already a string slice when the document came from typed code
		if typed, ok := doc["related_links"].([]string); ok {
			return typed
		}
		return nil
	}
	links := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			links = append(links, s)
		}
	}
	return links
}

var _ interfaces.StageHandler = (*FetchHandler)(nil)
