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
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

type SQLiteOptions struct {
	MigrationsDir string
}

func NewSQLiteStore(path string, opts SQLiteOptions) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	migrationsDir := strings.TrimSpace(opts.MigrationsDir)
	if migrationsDir == "" {
		migrationsDir = "migrations/sqlite"
	}
	if err := applyMigrations(db, migrationsDir, dialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqlitePlayerColumns = `id, name, email, avatar_url, role`

func (s *SQLiteStore) ListPlayers() []model.Player {
	rows, err := s.db.Query(`SELECT ` + sqlitePlayerColumns + ` FROM players`)
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

func (s *SQLiteStore) GetPlayer(id string) (model.Player, bool) {
	p, err := scanPlayerRow(s.db.QueryRow(`SELECT `+sqlitePlayerColumns+` FROM players WHERE id = ?`, id))
	if err != nil {
		return model.Player{}, false
	}
	return p, true
}

func (s *SQLiteStore) GetPlayerByName(name string) (model.Player, bool) {
	p, err := scanPlayerRow(s.db.QueryRow(`SELECT `+sqlitePlayerColumns+` FROM players WHERE lower(trim(name)) = lower(?) LIMIT 1`, strings.TrimSpace(name)))
	if err != nil {
		return model.Player{}, false
	}
	return p, true
}

func (s *SQLiteStore) CreatePlayer(player model.Player) (model.Player, error) {
	if strings.TrimSpace(player.Name) == "" {
		return model.Player{}, model.ErrPlayerNameRequired
	}
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.Role == "" {
		player.Role = model.RolePlayer
	}
	_, err := s.db.Exec(`INSERT INTO players (id, name, email, avatar_url, role) VALUES (?,?,?,?,?)`,
		player.ID, player.Name, player.Email, player.AvatarURL, string(player.Role),
	)
	if err != nil {
		return model.Player{}, err
	}
	return player, nil
}

func (s *SQLiteStore) FindOrCreatePlayerByName(name string) (model.Player, error) {
	if p, ok := s.GetPlayerByName(name); ok {
		return p, nil
	}
	return s.CreatePlayer(newPlayerFromName(name))
}

func (s *SQLiteStore) ListSeasons() []model.Season {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM seasons`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	seasons := []model.Season{}
	for rows.Next() {
		season, err := scanSQLiteSeasonRow(rows)
		if err != nil {
			continue
		}
		seasons = append(seasons, season)
	}
	sortSeasons(seasons)
	return seasons
}

func (s *SQLiteStore) GetSeason(id string) (model.Season, bool) {
	season, err := scanSQLiteSeasonRow(s.db.QueryRow(`SELECT id, name, created_at FROM seasons WHERE id = ?`, id))
	if err != nil {
		return model.Season{}, false
	}
	return season, true
}

func (s *SQLiteStore) GetSeasonByName(name string) (model.Season, bool) {
	season, err := scanSQLiteSeasonRow(s.db.QueryRow(`SELECT id, name, created_at FROM seasons WHERE lower(name) = lower(?) LIMIT 1`, strings.TrimSpace(name)))
	if err != nil {
		return model.Season{}, false
	}
	return season, true
}

func (s *SQLiteStore) CreateSeason(season model.Season) (model.Season, error) {
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
	_, err := s.db.Exec(`INSERT INTO seasons (id, name, created_at) VALUES (?,?,?)`,
		season.ID, season.Name, timeValueString(season.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Season{}, model.ErrSeasonNameTaken
		}
		return model.Season{}, err
	}
	return season, nil
}

func (s *SQLiteStore) RenameSeason(id, name string) (model.Season, error) {
	season, ok := s.GetSeason(id)
	if !ok {
		return model.Season{}, model.ErrSeasonNotFound
	}
	name = strings.TrimSpace(name)
	if err := model.ValidateSeasonName(name); err != nil {
		return model.Season{}, err
	}
	if _, err := s.db.Exec(`UPDATE seasons SET name = ? WHERE id = ?`, name, id); err != nil {
		if isUniqueViolation(err) {
			return model.Season{}, model.ErrSeasonNameTaken
		}
		return model.Season{}, err
	}
	season.Name = name
	return season, nil
}

func (s *SQLiteStore) DeleteSeason(id string) error {
	if _, ok := s.GetSeason(id); !ok {
		return model.ErrSeasonNotFound
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE season_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return model.ErrSeasonHasMatches
	}
	_, err := s.db.Exec(`DELETE FROM seasons WHERE id = ?`, id)
	return err
}

const sqliteMatchColumns = `id, season_id, name, participants_json, played_at, created_at`

func (s *SQLiteStore) ListMatches(seasonID string) []model.Match {
	query := `SELECT ` + sqliteMatchColumns + ` FROM matches`
	args := []any{}
	if seasonID != "" {
		query += ` WHERE season_id = ?`
		args = append(args, seasonID)
	}
	return s.queryMatches(query, args...)
}

func (s *SQLiteStore) ListMatchesByPlayer(playerID string) []model.Match {
	all := s.queryMatches(`SELECT ` + sqliteMatchColumns + ` FROM matches`)
	matches := make([]model.Match, 0, len(all))
	for _, m := range all {
		if m.HasPlayer(playerID) {
			matches = append(matches, m)
		}
	}
	return matches
}

func (s *SQLiteStore) queryMatches(query string, args ...any) []model.Match {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()

	matches := []model.Match{}
	for rows.Next() {
		match, err := scanSQLiteMatchRow(rows)
		if err != nil {
			continue
		}
		matches = append(matches, match)
	}
	sortMatches(matches)
	return matches
}

func (s *SQLiteStore) GetMatch(id string) (model.Match, bool) {
	match, err := scanSQLiteMatchRow(s.db.QueryRow(`SELECT `+sqliteMatchColumns+` FROM matches WHERE id = ?`, id))
	if err != nil {
		return model.Match{}, false
	}
	return match, true
}

func (s *SQLiteStore) CreateMatch(match model.Match) (model.Match, error) {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	stampMatch(&match)
	_, err := s.db.Exec(`INSERT INTO matches (`+sqliteMatchColumns+`) VALUES (?,?,?,?,?,?)`,
		match.ID, match.SeasonID, match.Name, string(toJSON(match.Participants)), timeValueString(match.PlayedAt), timeValueString(match.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Match{}, fmt.Errorf("match %s: %w", match.ID, model.ErrMatchExists)
		}
		return model.Match{}, err
	}
	return match, nil
}

func (s *SQLiteStore) UpdateMatch(match model.Match) error {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.ErrSeasonNotFound
	}
	if match.PlayedAt.IsZero() {
		match.PlayedAt = time.Now()
	}
	res, err := s.db.Exec(`UPDATE matches SET season_id = ?, name = ?, participants_json = ?, played_at = ? WHERE id = ?`,
		match.SeasonID, match.Name, string(toJSON(match.Participants)), timeValueString(match.PlayedAt), match.ID,
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

func (s *SQLiteStore) DeleteMatch(id string) error {
	res, err := s.db.Exec(`DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return model.ErrMatchNotFound
	}
	return nil
}

func (s *SQLiteStore) UpsertMatch(match model.Match) (model.Match, error) {
	if _, ok := s.GetSeason(match.SeasonID); !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	stampMatch(&match)
	_, err := s.db.Exec(`INSERT INTO matches (`+sqliteMatchColumns+`) VALUES (?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET season_id = excluded.season_id, name = excluded.name, participants_json = excluded.participants_json, played_at = excluded.played_at`,
		match.ID, match.SeasonID, match.Name, string(toJSON(match.Participants)), timeValueString(match.PlayedAt), timeValueString(match.CreatedAt),
	)
	if err != nil {
		return model.Match{}, err
	}
	return match, nil
}

func scanPlayerRow(scanner interface{ Scan(dest ...any) error }) (model.Player, error) {
	var p model.Player
	var role string
	if err := scanner.Scan(&p.ID, &p.Name, &p.Email, &p.AvatarURL, &role); err != nil {
		return model.Player{}, err
	}
	p.Role = model.PlayerRole(role)
	return p, nil
}

func scanSQLiteSeasonRow(scanner interface{ Scan(dest ...any) error }) (model.Season, error) {
	var season model.Season
	var createdAt sql.NullString
	if err := scanner.Scan(&season.ID, &season.Name, &createdAt); err != nil {
		return model.Season{}, err
	}
	if createdAt.Valid {
		if parsed, ok := parseTimeString(createdAt.String); ok {
			season.CreatedAt = parsed
		}
	}
	return season, nil
}

func scanSQLiteMatchRow(scanner interface{ Scan(dest ...any) error }) (model.Match, error) {
	var match model.Match
	var participantsJSON sql.NullString
	var playedAt, createdAt sql.NullString
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
		if parsed, ok := parseTimeString(playedAt.String); ok {
			match.PlayedAt = parsed
		}
	}
	if createdAt.Valid {
		if parsed, ok := parseTimeString(createdAt.String); ok {
			match.CreatedAt = parsed
		}
	}
	if participantsJSON.Valid && strings.TrimSpace(participantsJSON.String) != "" {
		_ = json.Unmarshal([]byte(participantsJSON.String), &match.Participants)
	}
	return match, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

func timeValueString(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
