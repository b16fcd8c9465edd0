package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Job submission and polling
	mux.HandleFunc("/profile/generate", s.app.JobHandler.GenerateHandler)
	mux.HandleFunc("/profile/status/", s.app.JobHandler.StatusHandler)
	mux.HandleFunc("/profile/", s.handleProfileRoutes) // /{history_id}/compute-documentary, /{history_id}/generate-video

	// Live updates
	mux.HandleFunc("/ws/tasks/", s.app.WSHandler.HandleTasks)

	// History and admin
	mux.HandleFunc("/api/profile/history", s.app.JobHandler.HistoryHandler)
	mux.HandleFunc("/api/admin/sweep", s.app.JobHandler.SweepHandler)

	// System
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	// Stored blobs: uploaded resumes and generated videos
	mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(s.app.BlobStore.Dir()))))

	return mux
}

// handleProfileRoutes dispatches /profile/{history_id}/<action>
func (s *Server) handleProfileRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/profile/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	historyID, action := parts[0], parts[1]
	switch action {
	case "compute-documentary":
		s.app.JobHandler.ComputeDocumentaryHandler(w, r, historyID)
	case "generate-video":
		s.app.JobHandler.GenerateVideoHandler(w, r, historyID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}
