package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
)

const recentPreviewSize = 5

type DashboardService struct {
	api ports.CorpusAPI
}

func NewDashboardService(api ports.CorpusAPI) *DashboardService {
	return &DashboardService{api: api}
}

// LoadDashboard fetches documents and probes readiness concurrently. The two calls fail
// independently: a failed fetch yields an empty set, a failed probe yields "unavailable".
func (s *DashboardService) LoadDashboard(ctx context.Context) domain.Dashboard {
	var (
		wg       sync.WaitGroup
		docs     []domain.Document
		fetchErr error
		status   domain.ServerStatus
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, fetchErr = s.api.ListDocuments(ctx)
	}()
	go func() {
		defer wg.Done()
		status = s.api.CheckReady(ctx)
	}()
	wg.Wait()

	if fetchErr != nil {
		slog.Warn("dashboard_fetch_failed", "error", fetchErr)
		docs = nil
	}

	view := Summarize(docs)
	view.Status = domain.StatusUnavailable
	if status.Status == domain.StatusReady {
		view.Status = domain.StatusReady
	}
	if fetchErr != nil {
		view.FetchError = domain.UserMessage(fetchErr)
	}
	return view
}

// Summarize derives the dashboard counters from one document snapshot.
// Status is left empty for the caller to fill in.
func Summarize(docs []domain.Document) domain.Dashboard {
	view := domain.Dashboard{
		Total:      len(docs),
		TypeCounts: []domain.TypeCount{},
		Recent:     []domain.Document{},
	}

	counts := make(map[domain.SourceType]int)
	for _, doc := range docs {
		if !doc.Verified() {
			view.UserCount++
			continue
		}
		view.VerifiedCount++
		counts[doc.SourceType]++
		if len(view.Recent) < recentPreviewSize {
			view.Recent = append(view.Recent, doc)
		}
	}

	maxCount := 0
	for sourceType, count := range counts {
		info, _ := domain.LookupSourceType(sourceType)
		view.TypeCounts = append(view.TypeCounts, domain.TypeCount{Type: info, Count: count})
		maxCount = max(maxCount, count)
	}
	slices.SortFunc(view.TypeCounts, func(a, b domain.TypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return domain.CompareSourceTypes(a.Type.Value, b.Type.Value)
	})
	for i := range view.TypeCounts {
		view.TypeCounts[i].BarWidth = float64(view.TypeCounts[i].Count) / float64(maxCount) * 100
	}
	return view
}
