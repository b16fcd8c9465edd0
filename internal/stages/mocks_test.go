package stages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/planner"
)

// fakeAI scripts the gateway's replies per call kind
type fakeAI struct {
	mu sync.Mutex

	structuredDoc models.Document
	structuredErr error
	structured    func(prompt string) (models.Document, error)
	prompts       []string
	tools         [][]interfaces.AITool

	videoResults []*interfaces.VideoResult
	videoErrs    []error
	videoReqs    []interfaces.VideoRequest

	concatOut   []byte
	concatErr   error
	concatCalls [][][]byte

	pdfDoc models.Document
	pdfErr error
}

func (f *fakeAI) GenerateStructured(ctx context.Context, prompt string, schema interface{}, tools ...interfaces.AITool) (models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.tools = append(f.tools, tools)
	if f.structured != nil {
		return f.structured(prompt)
	}
	return f.structuredDoc, f.structuredErr
}

func (f *fakeAI) GenerateFromPDF(ctx context.Context, pdf []byte, prompt string, schema interface{}) (models.Document, error) {
	return f.pdfDoc, f.pdfErr
}

func (f *fakeAI) GenerateVideoSegment(ctx context.Context, req interfaces.VideoRequest) (*interfaces.VideoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.videoReqs)
	f.videoReqs = append(f.videoReqs, req)
	if idx < len(f.videoErrs) && f.videoErrs[idx] != nil {
		return nil, f.videoErrs[idx]
	}
	if idx < len(f.videoResults) {
		return f.videoResults[idx], nil
	}
	return &interfaces.VideoResult{Handle: fmt.Sprintf("handle_%d", idx+1), Bytes: []byte(fmt.Sprintf("video%d", idx+1))}, nil
}

func (f *fakeAI) ConcatVideos(ctx context.Context, segments [][]byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concatCalls = append(f.concatCalls, segments)
	if f.concatErr != nil {
		return nil, f.concatErr
	}
	if f.concatOut != nil {
		return f.concatOut, nil
	}
	return []byte("merged"), nil
}

func (f *fakeAI) Provider() string { return "fake" }
func (f *fakeAI) Close() error     { return nil }

// fakeScraper returns canned documents keyed by URL
type fakeScraper struct {
	mu           sync.Mutex
	docs         map[string]*models.ScrapedDoc
	scraped      [][]string
	blockedHosts []string
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) *models.ScrapedDoc {
	if d, ok := f.docs[url]; ok {
		return d
	}
	return &models.ScrapedDoc{URL: url, Success: true, Content: "content"}
}

func (f *fakeScraper) ScrapeMany(ctx context.Context, urls []string, maxConcurrent int) []*models.ScrapedDoc {
	f.mu.Lock()
	f.scraped = append(f.scraped, urls)
	f.mu.Unlock()
	out := make([]*models.ScrapedDoc, len(urls))
	for i, u := range urls {
		out[i] = f.Scrape(ctx, u)
	}
	return out
}

func (f *fakeScraper) IsBlockedHost(url string) bool {
	for _, h := range f.blockedHosts {
		if strings.Contains(url, h) {
			return true
		}
	}
	return false
}

// fakeGitHub returns one canned stats payload
type fakeGitHub struct {
	data  *models.GitHubData
	err   error
	calls int
}

func (f *fakeGitHub) FetchStats(ctx context.Context, token, username string) (*models.GitHubData, error) {
	f.calls++
	return f.data, f.err
}

// fakeHistory is an in-memory HistoryStorage
type fakeHistory struct {
	mu       sync.Mutex
	rows     map[string]*models.HistoryRow
	writeErr error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{rows: make(map[string]*models.HistoryRow)}
}

func (f *fakeHistory) addRow(id, owner string, fields map[string]models.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fields == nil {
		fields = make(map[string]models.Document)
	}
	f.rows[id] = &models.HistoryRow{ID: id, OwnerRef: owner, Fields: fields}
}

func (f *fakeHistory) CreateRow(ctx context.Context, ownerRef string, source models.SourceRef) (string, error) {
	id := fmt.Sprintf("hist_%d", len(f.rows)+1)
	f.addRow(id, ownerRef, nil)
	return id, nil
}

func (f *fakeHistory) GetRow(ctx context.Context, historyID string) (*models.HistoryRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[historyID]
	if !ok {
		return nil, fmt.Errorf("history row %s not found", historyID)
	}
	return row, nil
}

func (f *fakeHistory) WriteField(ctx context.Context, historyID, key string, doc models.Document) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[historyID]
	if !ok {
		return fmt.Errorf("history row %s not found", historyID)
	}
	row.Fields[key] = doc
	return nil
}

func (f *fakeHistory) AppendSegmentVideo(ctx context.Context, historyID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[historyID]
	if !ok {
		return fmt.Errorf("history row %s not found", historyID)
	}
	row.SegmentVideoURLs = append(row.SegmentVideoURLs, url)
	return nil
}

func (f *fakeHistory) WriteVideoURL(ctx context.Context, historyID, key, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[historyID]
	if !ok {
		return fmt.Errorf("history row %s not found", historyID)
	}
	switch key {
	case models.FieldIntroVideo:
		row.IntroVideoURL = url
	case models.FieldFullVideo:
		row.FullVideoURL = url
	}
	return nil
}

func (f *fakeHistory) ReadStructured(ctx context.Context, historyID string) (models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[historyID]
	if !ok {
		return nil, fmt.Errorf("history row %s not found", historyID)
	}
	out := make(models.Document, len(row.Fields))
	for k, v := range row.Fields {
		out[k] = v
	}
	return out, nil
}

func (f *fakeHistory) ListByOwner(ctx context.Context, ownerRef string) ([]*models.HistoryRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.HistoryRow
	for _, row := range f.rows {
		if row.OwnerRef == ownerRef {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeHistory) field(historyID, key string) models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[historyID]; ok {
		return row.Fields[key]
	}
	return nil
}

// fakeAuth serves one credential per owner:provider
type fakeAuth struct {
	creds map[string]*models.OAuthCredential
}

func (f *fakeAuth) SaveCredential(ctx context.Context, cred *models.OAuthCredential) error {
	if f.creds == nil {
		f.creds = make(map[string]*models.OAuthCredential)
	}
	f.creds[cred.OwnerRef+":"+cred.Provider] = cred
	return nil
}

func (f *fakeAuth) GetCredential(ctx context.Context, ownerRef, provider string) (*models.OAuthCredential, error) {
	if cred, ok := f.creds[ownerRef+":"+provider]; ok {
		return cred, nil
	}
	return nil, fmt.Errorf("no credential for %s:%s", ownerRef, provider)
}

func (f *fakeAuth) DeleteCredential(ctx context.Context, ownerRef, provider string) error {
	delete(f.creds, ownerRef+":"+provider)
	return nil
}

// fakeBlobs is an in-memory BlobStorage
type fakeBlobs struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(ctx context.Context, key string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = data
	return "/files/" + key, nil
}

func (f *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.data[key]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("blob %s not found", key)
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func noProgress(progress int, message string) {}

// planWith builds a standard plan and seeds stage results
func planWith(jobID string, options models.PlanOptions, results map[models.TaskKind]models.Document) *models.Plan {
	plan := planner.BuildPlan(jobID, models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"}, options)
	for kind, doc := range results {
		plan.SetResult(kind, doc)
	}
	return plan
}

func testDeps(ai *fakeAI, scraper *fakeScraper, github *fakeGitHub, history *fakeHistory, auth *fakeAuth, blobs *fakeBlobs) Deps {
	deps := Deps{
		Logger: common.GetLogger(),
		Video:  &common.VideoConfig{Resolution: "720p", AspectRatio: "16:9", SegmentSeconds: 8},
	}
	if ai != nil {
		deps.AI = ai
	}
	if scraper != nil {
		deps.Scraper = scraper
	}
	if github != nil {
		deps.GitHub = github
	}
	if history != nil {
		deps.History = history
	}
	if auth != nil {
		deps.Auth = auth
	}
	if blobs != nil {
		deps.Blobs = blobs
	}
	return deps
}
