package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"chalet_booking/internal/adapters/observability"
	"chalet_booking/internal/domain"
)

type ImportService struct {
	inventory domain.PropertyRepository
	bookings  domain.BookingRepository
	cache     domain.Cache
}

func NewImportService(p domain.PropertyRepository, b domain.BookingRepository, c domain.Cache) *ImportService {
	return &ImportService{inventory: p, bookings: b, cache: c}
}

type ImportSummary struct {
	Imported     int      // blocked ranges persisted
	DroppedNodes []string // sheet nodes with no matching property
}

// Import resolves the sheet's nodes to properties and replaces their
// import-derived blocked ranges with the new batch in one transaction.
// Every node present in the sheet is replaced, including nodes that parsed
// to zero blocks, so a fully reopened calendar clears its old ranges.
// Unmapped nodes are dropped with a warning rather than failing the batch.
func (s *ImportService) Import(ctx context.Context, nodes []string, ranges []domain.BlockedRange) (ImportSummary, error) {
	nodeMap, err := s.inventory.MapNodes(ctx, nodes)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("resolve sheet nodes: %w", err)
	}

	var (
		summary  ImportSummary
		affected []int64
		seen     = map[int64]struct{}{}
	)
	for _, node := range nodes {
		id, ok := nodeMap[node]
		if !ok {
			summary.DroppedNodes = append(summary.DroppedNodes, node)
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			affected = append(affected, id)
		}
	}
	if len(summary.DroppedNodes) > 0 {
		log.Warn().Strs("nodes", summary.DroppedNodes).Msg("sheet nodes without a property were dropped")
	}
	if len(affected) == 0 {
		return summary, nil
	}

	batch := make([]domain.ImportRange, 0, len(ranges))
	for _, r := range ranges {
		id, ok := nodeMap[r.NodeID]
		if !ok {
			continue
		}
		batch = append(batch, domain.ImportRange{PropertyID: id, Start: r.Start, End: r.End})
	}

	if err := s.bookings.ReplaceImportRanges(ctx, affected, batch); err != nil {
		return ImportSummary{}, fmt.Errorf("replace import ranges: %w", err)
	}
	summary.Imported = len(batch)
	observability.ObserveImport(len(batch), len(summary.DroppedNodes))

	if s.cache != nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		for _, id := range affected {
			_ = s.cache.Del(ctx, calendarKey(id, today))
		}
	}
	return summary, nil
}
