// -----------------------------------------------------------------------
// Code-hosting enrichment connector
// -----------------------------------------------------------------------

package github

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"golang.org/x/oauth2"
)

// A repository counts as significant above this combined star+fork weight
const significanceThreshold = 3

// Service collects bounded aggregate statistics from the GitHub API for
// enrichment. All windows are capped by configuration; a profile with
// thousands of repositories still costs a fixed number of API calls.
type Service struct {
	config *common.GitHubConfig
	logger arbor.ILogger
}

// NewService creates the GitHub enrichment connector
func NewService(config *common.GitHubConfig, logger arbor.ILogger) *Service {
	return &Service{config: config, logger: logger}
}

// FetchStats gathers the language histogram, significant projects and event
// counts for the given user. An empty token degrades to unauthenticated
// access with lower rate limits.
func (s *Service) FetchStats(ctx context.Context, token, username string) (*models.GitHubData, error) {
	if username == "" {
		return nil, fmt.Errorf("github username is required")
	}

	client := s.newClient(ctx, token)

	user, _, err := client.Users.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github user %s: %w", username, err)
	}

	data := &models.GitHubData{
		Username:    username,
		Languages:   make(map[string]int),
		EventCounts: make(map[string]int),
		PublicRepos: user.GetPublicRepos(),
	}

	repos, _, err := client.Repositories.ListByUser(ctx, username, &github.RepositoryListByUserOptions{
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: s.config.MaxRepos},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", username, err)
	}

	for _, repo := range repos {
		if repo.GetFork() {
			continue
		}
		if lang := repo.GetLanguage(); lang != "" {
			data.Languages[lang]++
		}
		weight := repo.GetStargazersCount() + repo.GetForksCount()
		if weight >= significanceThreshold {
			data.SignificantProjects = append(data.SignificantProjects, models.GitHubProject{
				Name:        repo.GetName(),
				Description: repo.GetDescription(),
				Stars:       repo.GetStargazersCount(),
				Forks:       repo.GetForksCount(),
				Language:    repo.GetLanguage(),
				Topics:      repo.Topics,
				URL:         repo.GetHTMLURL(),
			})
		}
	}

	sort.Slice(data.SignificantProjects, func(i, j int) bool {
		wi := data.SignificantProjects[i].Stars + data.SignificantProjects[i].Forks
		wj := data.SignificantProjects[j].Stars + data.SignificantProjects[j].Forks
		return wi > wj
	})

	// Event fetch failures degrade the histogram, not the whole enrichment
	events, _, err := client.Activity.ListEventsPerformedByUser(ctx, username, true, &github.ListOptions{
		PerPage: s.config.MaxEvents,
	})
	if err != nil {
		s.logger.Warn().
			Str("username", username).
			Err(err).
			Msg("Failed to fetch recent events, continuing without activity counts")
	} else {
		for _, event := range events {
			data.EventCounts[event.GetType()]++
		}
	}

	s.logger.Debug().
		Str("username", username).
		Int("repos", len(repos)).
		Int("significant", len(data.SignificantProjects)).
		Int("languages", len(data.Languages)).
		Msg("GitHub enrichment collected")

	return data, nil
}

func (s *Service) newClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

var _ interfaces.GitHubService = (*Service)(nil)
