package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"unostat-app/internal/model"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db *sql.DB
}

type PostgresOptions struct {
	MigrationsDir string
}

func NewPostgresStore(dsn string, opts PostgresOptions) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	migrationsDir := strings.TrimSpace(opts.MigrationsDir)
	if migrationsDir == "" {
		migrationsDir = "migrations/postgres"
	}
	if err := applyMigrations(db, migrationsDir, dialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListPlayers() []model.Player {
	rows, err := s.db.Query(`SELECT id, name, email, avatar_url, role FROM players`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayerRow(rows)
		if err != nil {
			continue
		}
		players = append(players, p)
	}
	sortPlayers(players)
	return players
}

func (s *PostgresStore) GetPlayer(id string) (model.Player, bool) {
	p, err := scanPlayerRow(s.db.QueryRow(`SELECT id, name, email, avatar_url, role FROM players WHERE id = $1`, id))
	if err != nil {
		return model.Player{}, false
	}
	return p, true
}

func (s *PostgresStore) GetPlayerByName(name string) (model.Player, bool) {
	p, err := scanPlayerRow(s.db.QueryRow(`SELECT id, name, email, avatar_url, role FROM players WHERE lower(trim(name)) = lower($1) LIMIT 1`, strings.TrimSpace(name)))
	if err != nil {
		return model.Player{}, false
	}
	return p, true
}

func (s *PostgresStore) CreatePlayer(player model.Player) (model.Player, error) {
	if strings.TrimSpace(player.Name) == "" {
		return model.Player{}, model.ErrPlayerNameRequired
	}
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.Role == "" {
		player.Role = model.RolePlayer
	}
	_, err := s.db.Exec(`INSERT INTO players (id, name, email, avatar_url, role) VALUES ($1,$2,$3,$4,$5)`,
		player.ID, player.Name, player.Email, player.AvatarURL, string(player.Role),
	)
	if err != nil {
		return model.Player{}, err
	}
	return player, nil
}

func (s *PostgresStore) FindOrCreatePlayerByName(name string) (model.Player, error) {
	if p, ok := s.GetPlayerByName(name); ok {
		return p, nil
	}
	return s.CreatePlayer(newPlayerFromName(name))
}

func (s *PostgresStore) ListSeasons() []model.Season {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM seasons`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	seasons := []model.Season{}
	for rows.Next() {
		season, err := scanSeasonRow(rows)
		if err != nil {
			continue
		}
		seasons = append(seasons, season)
	}
	sortSeasons(seasons)
	return seasons
}

func (s *PostgresStore) GetSeason(id string) (model.Season, bool) {
	season, err := scanSeasonRow(s.db.QueryRow(`SELECT id, name, created_at FROM seasons WHERE id = $1`, id))
	if err != nil {
		return model.Season{}, false
	}
	return season, true
}

func (s *PostgresStore) GetSeasonByName(name string) (model.Season, bool) {
	season, err := scanSeasonRow(s.db.QueryRow(`SELECT id, name, created_at FROM seasons WHERE lower(name) = lower($1) LIMIT 1`, strings.TrimSpace(name)))
	if err != nil {
		return model.Season{}, false
	}
	return season, true
}

func (s *PostgresStore) CreateSeason(season model.Season) (model.Season, error) {
	season.Name = strings.TrimSpace(season.Name)
	if err := model.ValidateSeasonName(season.Name); err != nil {
		return model.Season{}, err
	}
	if season.ID == "" {
		season.ID = uuid.NewString()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO seasons (id, name, created_at) VALUES ($1,$2,$3)`, season.ID, season.Name, season.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Season{}, model.ErrSeasonNameTaken
		}
		return model.Season{}, err
	}
	return season, nil
}

func (s *PostgresStore) RenameSeason(id, name string) (model.Season, error) {
	season, ok := s.GetSeason(id)
	if !ok {
		return model.Season{}, model.ErrSeasonNotFound
	}
	name = strings.TrimSpace(name)
	if err := model.ValidateSeasonName(name); err != nil {
		return model.Season{}, err
	}
	if _, err := s.db.Exec(`UPDATE seasons SET name = $1 WHERE id = $2`, name, id); err != nil {
		if isUniqueViolation(err) {
			return model.Season{}, model.ErrSeasonNameTaken
		}
		return model.Season{}, err
	}
	season.Name = name
	return season, nil
}

// DeleteSeason locks the season row while counting its matches.
func (s *PostgresStore) DeleteSeason(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.QueryRow(`SELECT id FROM seasons WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrSeasonNotFound
		}
		return err
	}
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM matches WHERE season_id = $1`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return model.ErrSeasonHasMatches
	}
	if _, err := tx.Exec(`DELETE FROM seasons WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) ListMatches(seasonID string) []model.Match {
	if seasonID == "" {
		return s.queryMatches(`SELECT id, season_id, name, participants_json, played_at, created_at FROM matches`)
	}
	return s.queryMatches(`SELECT id, season_id, name, participants_json, played_at, created_at FROM matches WHERE season_id = $1`, seasonID)
}

func (s *PostgresStore) ListMatchesByPlayer(playerID string) []model.Match {
	filter := toJSON([]map[string]string{{"playerId": playerID}})
	return s.queryMatches(`SELECT id, season_id, name, participants_json, played_at, created_at FROM matches WHERE participants_json @> $1::jsonb`, string(filter))
}

func (s *PostgresStore) queryMatches(query string, args ...any) []model.Match {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()

	matches := []model.Match{}
	for rows.Next() {
		match, err := scanMatchRow(rows)
		if err != nil {
			continue
		}
		matches = append(matches, match)
	}
	sortMatches(matches)
	return matches
}

func (s *PostgresStore) GetMatch(id string) (model.Match, bool) {
	match, err := scanMatchRow(s.db.QueryRow(`SELECT id, season_id, name, participants_json, played_at, created_at FROM matches WHERE id = $1`, id))
	if err != nil {
		return model.Match{}, false
	}
	return match, true
}

func (s *PostgresStore) CreateMatch(match model.Match) (model.Match, error) {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	stampMatch(&match)
	_, err := s.db.Exec(`INSERT INTO matches (id, season_id, name, participants_json, played_at, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		match.ID, match.SeasonID, match.Name, toJSON(match.Participants), timeValuePtr(match.PlayedAt), match.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Match{}, fmt.Errorf("match %s: %w", match.ID, model.ErrMatchExists)
		}
		return model.Match{}, err
	}
	return match, nil
}

func (s *PostgresStore) UpdateMatch(match model.Match) error {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.ErrSeasonNotFound
	}
	res, err := s.db.Exec(`UPDATE matches SET season_id = $1, name = $2, participants_json = $3, played_at = COALESCE($4, played_at) WHERE id = $5`,
		match.SeasonID, match.Name, toJSON(match.Participants), timeValuePtr(match.PlayedAt), match.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return model.ErrMatchNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteMatch(id string) error {
	res, err := s.db.Exec(`DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return model.ErrMatchNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertMatch(match model.Match) (model.Match, error) {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	stampMatch(&match)
	_, err := s.db.Exec(`INSERT INTO matches (id, season_id, name, participants_json, played_at, created_at) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET season_id = EXCLUDED.season_id, name = EXCLUDED.name, participants_json = EXCLUDED.participants_json, played_at = EXCLUDED.played_at`,
		match.ID, match.SeasonID, match.Name, toJSON(match.Participants), timeValuePtr(match.PlayedAt), match.CreatedAt,
	)
	if err != nil {
		return model.Match{}, err
	}
	return match, nil
}

func scanSeasonRow(scanner interface{ Scan(dest ...any) error }) (model.Season, error) {
	var season model.Season
	var createdAt sql.NullTime
	if err := scanner.Scan(&season.ID, &season.Name, &createdAt); err != nil {
		return model.Season{}, err
	}
	if createdAt.Valid {
		season.CreatedAt = createdAt.Time
	}
	return season, nil
}

func scanMatchRow(scanner interface{ Scan(dest ...any) error }) (model.Match, error) {
	var match model.Match
	var participantsJSON []byte
	var playedAt, createdAt sql.NullTime
	if err := scanner.Scan(
		&match.ID,
		&match.SeasonID,
		&match.Name,
		&participantsJSON,
		&playedAt,
		&createdAt,
	); err != nil {
		return model.Match{}, err
	}
	if playedAt.Valid {
		match.PlayedAt = playedAt.Time
	}
	if createdAt.Valid {
		match.CreatedAt = createdAt.Time
	}
	if len(participantsJSON) > 0 {
		_ = json.Unmarshal(participantsJSON, &match.Participants)
	}
	return match, nil
}

func timeValuePtr(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func toJSON(v any) []byte {
	if v == nil {
		return []byte("null")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}
