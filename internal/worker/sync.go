package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"unostat-app/internal/config"
	"unostat-app/internal/model"
	"unostat-app/internal/scoring"
	"unostat-app/internal/store"

	"golang.org/x/sync/errgroup"
)

// Source is the remote side of a sync.
type Source interface {
	ListSeasons(ctx context.Context) ([]scoring.Season, error)
	ListGames(ctx context.Context, season string) ([]scoring.Game, error)
}

// Publisher is told which seasons changed after a sync.
type Publisher interface {
	Publish(seasonID string)
}

// Report summarizes one sync cycle.
type Report struct {
	Seasons int
	Games   int
	Skipped int
	Failed  int
}

// SyncWorker periodically imports seasons and games from the scoring API
type SyncWorker struct {
	source    Source
	store     store.Store
	publisher Publisher
	config    *config.SyncConfig
	logger    *slog.Logger
	now       func() time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	source Source,
	st store.Store,
	publisher Publisher,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		source:    source,
		store:     st,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx, stopCh, doneCh)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

func (w *SyncWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	w.syncCycle(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.syncCycle(ctx)
		}
	}
}

func (w *SyncWorker) syncCycle(ctx context.Context) {
	start := time.Now()
	report, err := w.SyncOnce(ctx)
	if err != nil {
		w.logger.Error("sync cycle failed", "error", err)
		return
	}
	w.logger.Info("sync cycle completed",
		"seasons", report.Seasons,
		"games", report.Games,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
}

type seasonGames struct {
	name  string
	games []scoring.Game
	err   error
}

// SyncOnce imports every remote season and its games. Games are fetched concurrently and
// written sequentially; a season whose games cannot be fetched is counted as failed.
func (w *SyncWorker) SyncOnce(ctx context.Context) (Report, error) {
	seasons, err := w.source.ListSeasons(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing remote seasons: %w", err)
	}

	fetched := make([]seasonGames, len(seasons))
	g, gctx := errgroup.WithContext(ctx)
	if w.config.Concurrency > 0 {
		g.SetLimit(w.config.Concurrency)
	}
	for i, season := range seasons {
		i, season := i, season
		fetched[i].name = season.SeasonName
		g.Go(func() error {
			games, err := w.source.ListGames(gctx, season.SeasonName)
			fetched[i].games, fetched[i].err = games, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	var report Report
	for _, sg := range fetched {
		if sg.err != nil {
			w.logger.Warn("fetching remote games failed", "season", sg.name, "error", sg.err)
			report.Failed++
			continue
		}
		season, err := w.ensureSeason(sg.name)
		if err != nil {
			w.logger.Warn("skipping remote season", "season", sg.name, "error", err)
			report.Failed++
			continue
		}
		report.Seasons++
		for _, game := range sg.games {
			if err := w.importGame(season.ID, game); err != nil {
				w.logger.Warn("skipping remote game", "season", sg.name, "game", game.GameName, "error", err)
				report.Skipped++
				continue
			}
			report.Games++
		}
		if w.publisher != nil {
			w.publisher.Publish(season.ID)
		}
	}
	return report, nil
}

func (w *SyncWorker) ensureSeason(name string) (model.Season, error) {
	if season, ok := w.store.GetSeason(name); ok {
		return season, nil
	}
	if season, ok := w.store.GetSeasonByName(name); ok {
		return season, nil
	}
	return w.store.CreateSeason(model.Season{ID: name, Name: name})
}

// importGame keys the match by the local season ID, which survives season renames. A game
// without a date in its name keeps the play date of its first import.
func (w *SyncWorker) importGame(seasonID string, game scoring.Game) error {
	results, err := game.Results()
	if err != nil {
		return err
	}
	id := scoring.MatchID(seasonID, game.GameName)
	playedAt, dated := game.Date()
	if !dated {
		playedAt = w.now()
		if existing, ok := w.store.GetMatch(id); ok {
			playedAt = existing.PlayedAt
		}
	}
	match := model.Match{
		ID:           id,
		Name:         game.GameName,
		SeasonID:     seasonID,
		PlayedAt:     playedAt,
		Participants: make([]model.Participation, 0, len(results)),
	}
	for _, r := range results {
		player, err := w.store.FindOrCreatePlayerByName(r.Name)
		if err != nil {
			return fmt.Errorf("resolving player %q: %w", r.Name, err)
		}
		match.Participants = append(match.Participants, model.Participation{
			PlayerID: player.ID,
			Rank:     r.Rank,
			Points:   r.Points,
		})
	}
	if _, err := w.store.UpsertMatch(match); err != nil {
		return fmt.Errorf("storing match: %w", err)
	}
	return nil
}
