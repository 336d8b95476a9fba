package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/double-elimination/brackets"
	"github.com/Dosada05/double-elimination/metrics"
	"github.com/Dosada05/double-elimination/models"
	"github.com/Dosada05/double-elimination/repositories"
	"github.com/Dosada05/double-elimination/storage"
)

const archiveKeyPrefix = "archives/tournament-"

// Broadcaster pushes tournament updates to connected viewers.
type Broadcaster interface {
	BroadcastToRoom(roomID string, messageType string, payload interface{})
}

// TournamentSnapshot is the public view of the active tournament.
type TournamentSnapshot struct {
	Config              models.TournamentConfig `json:"config"`
	CurrentRound        int                     `json:"currentRound"`
	Stage               models.TournamentStage  `json:"stage"`
	IsLowerFinalPlaying bool                    `json:"isLowerFinalPlaying"`
	Participants        []models.Participant    `json:"participants"`
	Matches             []*models.Match         `json:"matches"`
	FinalMatch          *models.Match           `json:"finalMatch"`
	Standings           []models.Standing       `json:"standings"`
	Winner              *models.Participant     `json:"winner"`
	ArchiveURL          string                  `json:"archiveUrl,omitempty"`
}

// MatchUpdate is broadcast after a result was recorded.
type MatchUpdate struct {
	Match        *models.Match          `json:"match"`
	CurrentRound int                    `json:"currentRound"`
	Stage        models.TournamentStage `json:"stage"`
}

type TournamentService interface {
	SaveConfig(ctx context.Context, cfg models.TournamentConfig) (models.TournamentConfig, error)
	GetConfig(ctx context.Context) (models.TournamentConfig, error)
	SaveRoster(ctx context.Context, roster []models.Participant) ([]models.Participant, error)
	GetRoster(ctx context.Context) ([]models.Participant, error)

	Start(ctx context.Context) (*TournamentSnapshot, error)
	SubmitResult(ctx context.Context, matchID string, games []models.GameOutcome) (*TournamentSnapshot, error)
	AdvanceRound(ctx context.Context) (*TournamentSnapshot, error)

	Snapshot(ctx context.Context) (*TournamentSnapshot, error)
	Standings(ctx context.Context) ([]models.Standing, error)
	Matches(ctx context.Context) ([]*models.Match, error)
	Restore(ctx context.Context) error
}

type tournamentService struct {
	repo     repositories.StateRepository
	engine   *brackets.Engine
	hub      Broadcaster
	uploader storage.FileUploader
	metrics  *metrics.TournamentMetrics
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	state      *brackets.State
	archiveURL string
}

// NewTournamentService wires the engine to its store. hub, uploader and m may be nil.
func NewTournamentService(
	repo repositories.StateRepository,
	engine *brackets.Engine,
	hub Broadcaster,
	uploader storage.FileUploader,
	m *metrics.TournamentMetrics,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		repo:     repo,
		engine:   engine,
		hub:      hub,
		uploader: uploader,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *tournamentService) SaveConfig(ctx context.Context, cfg models.TournamentConfig) (models.TournamentConfig, error) {
	if err := cfg.Validate(); err != nil {
		return models.TournamentConfig{}, err
	}
	if err := s.repo.Put(ctx, repositories.KeyTournamentConfig, cfg); err != nil {
		return models.TournamentConfig{}, fmt.Errorf("failed to save tournament config: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament config saved",
		slog.Int("participants", cfg.ParticipantsCount),
		slog.String("bracket_type", string(cfg.BracketType)),
		slog.String("tiebreaker", string(cfg.TiebreakerType)),
		slog.Int("matches_in_round", cfg.MatchesInRound),
	)
	return cfg, nil
}

// GetConfig returns the saved config, or the defaults when nothing was saved yet.
func (s *tournamentService) GetConfig(ctx context.Context) (models.TournamentConfig, error) {
	var cfg models.TournamentConfig
	err := s.repo.Get(ctx, repositories.KeyTournamentConfig, &cfg)
	if errors.Is(err, repositories.ErrStateNotFound) {
		return models.DefaultTournamentConfig(), nil
	}
	if err != nil {
		return models.TournamentConfig{}, fmt.Errorf("failed to load tournament config: %w", err)
	}
	return cfg, nil
}

func (s *tournamentService) SaveRoster(ctx context.Context, roster []models.Participant) ([]models.Participant, error) {
	normalized, err := normalizeRoster(roster)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, repositories.KeyTournamentParticipants, normalized); err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}
	s.logger.InfoContext(ctx, "roster saved", slog.Int("participants", countReal(normalized)))
	return normalized, nil
}

func (s *tournamentService) GetRoster(ctx context.Context) ([]models.Participant, error) {
	var roster []models.Participant
	err := s.repo.Get(ctx, repositories.KeyTournamentParticipants, &roster)
	if errors.Is(err, repositories.ErrStateNotFound) {
		return []models.Participant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if roster == nil {
		roster = []models.Participant{}
	}
	return roster, nil
}

// Start discards any previous run and seeds a new tournament from the saved
// config and roster.
func (s *tournamentService) Start(ctx context.Context) (*TournamentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg models.TournamentConfig
	if err := s.repo.Get(ctx, repositories.KeyTournamentConfig, &cfg); err != nil {
		if errors.Is(err, repositories.ErrStateNotFound) {
			return nil, ErrConfigMissing
		}
		return nil, fmt.Errorf("failed to load tournament config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var stored []models.Participant
	if err := s.repo.Get(ctx, repositories.KeyTournamentParticipants, &stored); err != nil {
		if errors.Is(err, repositories.ErrStateNotFound) {
			return nil, ErrRosterMissing
		}
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	roster := make([]models.Participant, 0, len(stored))
	for _, p := range stored {
		if !p.IsEmpty {
			roster = append(roster, p)
		}
	}
	if len(roster) > cfg.ParticipantsCount {
		return nil, fmt.Errorf("%w: %d participants, field of %d", ErrRosterTooLarge, len(roster), cfg.ParticipantsCount)
	}

	state, err := s.engine.Initialize(cfg, roster)
	if err != nil {
		s.metrics.TransitionFailed("start")
		return nil, err
	}

	if err := s.persist(ctx, state, true); err != nil {
		return nil, err
	}
	s.state = state
	s.archiveURL = ""

	s.logger.InfoContext(ctx, "tournament started",
		slog.Int("participants", len(roster)),
		slog.Int("field", len(state.Participants)),
		slog.String("bracket_type", string(cfg.BracketType)),
	)
	s.metrics.TournamentStarted()

	snapshot := s.snapshotLocked()
	s.broadcast(brackets.MessageTournamentStarted, snapshot)
	return snapshot, nil
}

func (s *tournamentService) SubmitResult(ctx context.Context, matchID string, games []models.GameOutcome) (*TournamentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNoActiveTournament
	}

	next, err := s.engine.SubmitResult(s.state, matchID, games)
	if err != nil {
		s.metrics.TransitionFailed("submit_result")
		s.logger.WarnContext(ctx, "result rejected", slog.String("match_id", matchID), slog.Any("error", err))
		return nil, err
	}

	if err := s.persist(ctx, next, false); err != nil {
		return nil, err
	}
	s.state = next

	match := findMatch(next, matchID)
	s.logger.InfoContext(ctx, "result recorded",
		slog.String("match_id", matchID),
		slog.String("winner", match.WinnerID()),
		slog.Int("round", next.Round),
	)
	s.metrics.ResultSubmitted(string(match.Bracket))

	snapshot := s.snapshotLocked()
	s.broadcast(brackets.MessageMatchUpdated, MatchUpdate{Match: match, CurrentRound: next.Round, Stage: next.Stage()})
	s.broadcast(brackets.MessageStandingsUpdated, snapshot.Standings)
	s.finishIfCompleted(ctx, snapshot)
	return snapshot, nil
}

func (s *tournamentService) AdvanceRound(ctx context.Context) (*TournamentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNoActiveTournament
	}

	next, err := s.engine.AdvanceRound(s.state)
	if err != nil {
		s.metrics.TransitionFailed("advance_round")
		s.logger.WarnContext(ctx, "advance rejected", slog.Int("round", s.state.Round), slog.Any("error", err))
		return nil, err
	}

	if err := s.persist(ctx, next, false); err != nil {
		return nil, err
	}
	s.state = next

	s.logger.InfoContext(ctx, "round advanced",
		slog.Int("round", next.Round),
		slog.String("stage", string(next.Stage())),
	)
	s.metrics.RoundAdvanced(next.Round)

	snapshot := s.snapshotLocked()
	s.broadcast(brackets.MessageRoundAdvanced, snapshot)
	s.finishIfCompleted(ctx, snapshot)
	return snapshot, nil
}

func (s *tournamentService) Snapshot(ctx context.Context) (*TournamentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoActiveTournament
	}
	return s.snapshotLocked(), nil
}

func (s *tournamentService) Standings(ctx context.Context) ([]models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoActiveTournament
	}
	return append([]models.Standing(nil), s.state.Standings...), nil
}

func (s *tournamentService) Matches(ctx context.Context) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNoActiveTournament
	}
	return s.state.Clone().VisibleMatches(), nil
}

// Restore reloads the run state written by the last successful transition.
// A store without a run state leaves the service idle.
func (s *tournamentService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state brackets.State
	err := s.repo.Get(ctx, repositories.KeyTournamentRunState, &state)
	if errors.Is(err, repositories.ErrStateNotFound) {
		s.logger.InfoContext(ctx, "no tournament to restore")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore tournament: %w", err)
	}

	s.state = &state
	s.metrics.RoundRestored(state.Round)
	s.logger.InfoContext(ctx, "tournament restored",
		slog.Int("round", state.Round),
		slog.String("stage", string(state.Stage())),
	)
	return nil
}

// persist writes every public key of the state as one batch. The participants
// key is only rewritten on start, when the field is padded with byes. An absent
// final or winner deletes the stale key of a previous run.
func (s *tournamentService) persist(ctx context.Context, state *brackets.State, withParticipants bool) error {
	batch := repositories.StateBatch{
		Puts: map[string]interface{}{
			repositories.KeyTournamentMatches:   state.VisibleMatches(),
			repositories.KeyTournamentStandings: state.Standings,
			repositories.KeyTournamentRunState:  state,
		},
	}
	if withParticipants {
		batch.Puts[repositories.KeyTournamentParticipants] = state.Participants
	}
	if state.Final != nil {
		batch.Puts[repositories.KeyTournamentFinal] = state.Final
	} else {
		batch.Deletes = append(batch.Deletes, repositories.KeyTournamentFinal)
	}
	if champion, ok := state.Champion(); ok {
		batch.Puts[repositories.KeyTournamentWinner] = champion
	} else {
		batch.Deletes = append(batch.Deletes, repositories.KeyTournamentWinner)
	}

	if err := s.repo.Apply(ctx, batch); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist tournament state", slog.Any("error", err))
		return fmt.Errorf("failed to persist tournament state: %w", err)
	}
	return nil
}

func (s *tournamentService) snapshotLocked() *TournamentSnapshot {
	state := s.state.Clone()
	snapshot := &TournamentSnapshot{
		Config:              state.Config,
		CurrentRound:        state.Round,
		Stage:               state.Stage(),
		IsLowerFinalPlaying: state.LowerFinalPlaying,
		Participants:        state.Participants,
		Matches:             state.VisibleMatches(),
		FinalMatch:          state.Final,
		Standings:           state.Standings,
		ArchiveURL:          s.archiveURL,
	}
	if champion, ok := state.Champion(); ok {
		snapshot.Winner = &champion
	}
	return snapshot
}

func (s *tournamentService) broadcast(messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(brackets.CurrentTournamentRoom, messageType, payload)
}

// finishIfCompleted announces the champion and archives the finished
// tournament. Archive failures are logged only.
func (s *tournamentService) finishIfCompleted(ctx context.Context, snapshot *TournamentSnapshot) {
	if snapshot.Stage != models.StageCompleted {
		return
	}
	s.logger.InfoContext(ctx, "tournament completed", slog.String("winner", snapshot.Winner.ID))
	s.metrics.TournamentCompleted()

	if url, err := s.archive(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "failed to archive tournament", slog.Any("error", err))
	} else if url != "" {
		s.archiveURL = url
		snapshot.ArchiveURL = url
		s.logger.InfoContext(ctx, "tournament archived", slog.String("url", url))
	}
	s.broadcast(brackets.MessageTournamentCompleted, snapshot)
}

func (s *tournamentService) archive(ctx context.Context, snapshot *TournamentSnapshot) (string, error) {
	if s.uploader == nil {
		return "", nil
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode archive: %w", err)
	}
	key := fmt.Sprintf("%s%d.json", archiveKeyPrefix, s.now().Unix())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Location, nil
}

func findMatch(state *brackets.State, id string) *models.Match {
	if state.Final != nil && state.Final.ID == id {
		return state.Final
	}
	for _, m := range state.VisibleMatches() {
		if m.ID == id {
			return m
		}
	}
	return nil
}
