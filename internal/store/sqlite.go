package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/botcast-dev/botcast/internal/domain"
	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS bots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		handle TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		persona_prompt TEXT NOT NULL DEFAULT '',
		tweet_prompt TEXT,
		is_autonomous INTEGER NOT NULL DEFAULT 0,
		tweet_frequency_minutes INTEGER NOT NULL DEFAULT 60,
		last_tweet_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bots_autonomous ON bots(is_autonomous) WHERE is_autonomous = 1;

	CREATE TABLE IF NOT EXISTS bot_credentials (
		bot_id TEXT PRIMARY KEY REFERENCES bots(id),
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		access_token TEXT NOT NULL,
		access_secret TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bot_features (
		bot_id TEXT PRIMARY KEY REFERENCES bots(id),
		coin_data INTEGER NOT NULL DEFAULT 0,
		news INTEGER NOT NULL DEFAULT 0,
		weather INTEGER NOT NULL DEFAULT 0,
		exchange_rate INTEGER NOT NULL DEFAULT 0,
		coin_symbol TEXT NOT NULL DEFAULT '',
		weather_city TEXT NOT NULL DEFAULT '',
		rate_base TEXT NOT NULL DEFAULT '',
		rate_quote TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bot_id TEXT NOT NULL REFERENCES bots(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_bot ON chat_messages(bot_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const botColumns = `id, name, handle, bio, persona_prompt, tweet_prompt,
	is_autonomous, tweet_frequency_minutes, last_tweet_at, created_at, updated_at`

func scanBot(row interface{ Scan(...any) error }) (*domain.Bot, error) {
	var bot domain.Bot
	var tweetPrompt sql.NullString
	var lastTweetAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&bot.ID, &bot.Name, &bot.Handle, &bot.Bio, &bot.PersonaPrompt,
		&tweetPrompt, &bot.IsAutonomous, &bot.TweetFrequencyMinutes,
		&lastTweetAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	bot.TweetPrompt = tweetPrompt.String
	if lastTweetAt.Valid {
		ts := time.Unix(lastTweetAt.Int64, 0)
		bot.LastTweetAt = &ts
	}
	bot.CreatedAt = time.Unix(createdAt, 0)
	bot.UpdatedAt = time.Unix(updatedAt, 0)

	return &bot, nil
}

// GetBot retrieves a bot by id.
func (s *SQLiteStore) GetBot(ctx context.Context, botID string) (*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots WHERE id = ?`

	bot, err := scanBot(s.db.QueryRowContext(ctx, query, botID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan bot row: %w", err)
	}
	return bot, nil
}

// ListAutonomousBots retrieves every bot with the autonomy flag set.
func (s *SQLiteStore) ListAutonomousBots(ctx context.Context) ([]*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots WHERE is_autonomous = 1`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query autonomous bots: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close autonomous bots rows", "error", closeErr)
		}
	}()

	var bots []*domain.Bot
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan autonomous bot row: %w", err)
		}
		bots = append(bots, bot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate autonomous bots: %w", err)
	}

	return bots, nil
}

// GetCredentials retrieves a bot's publishing credentials.
func (s *SQLiteStore) GetCredentials(ctx context.Context, botID string) (*domain.Credentials, error) {
	query := `
		SELECT bot_id, api_key, api_secret, access_token, access_secret
		FROM bot_credentials WHERE bot_id = ?`

	var creds domain.Credentials
	err := s.db.QueryRowContext(ctx, query, botID).Scan(
		&creds.BotID, &creds.APIKey, &creds.APISecret,
		&creds.AccessToken, &creds.AccessSecret,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credentials row: %w", err)
	}
	return &creds, nil
}

// GetFeatureToggles retrieves a bot's live-data toggles.
func (s *SQLiteStore) GetFeatureToggles(ctx context.Context, botID string) (domain.FeatureToggles, error) {
	query := `
		SELECT coin_data, news, weather, exchange_rate,
		       coin_symbol, weather_city, rate_base, rate_quote
		FROM bot_features WHERE bot_id = ?`

	var t domain.FeatureToggles
	err := s.db.QueryRowContext(ctx, query, botID).Scan(
		&t.CoinData, &t.News, &t.Weather, &t.ExchangeRate,
		&t.CoinSymbol, &t.WeatherCity, &t.RateBase, &t.RateQuote,
	)
	if err == sql.ErrNoRows {
		return domain.FeatureToggles{}, nil
	}
	if err != nil {
		return domain.FeatureToggles{}, fmt.Errorf("scan feature toggles row: %w", err)
	}
	return t, nil
}

// RecentMessages returns the most recent limit messages for a bot,
// oldest first. The query fetches newest-first so the LIMIT picks the
// right window, then the slice is reversed for prompt order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, botID string, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, bot_id, role, content, created_at
		FROM chat_messages WHERE bot_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close recent messages rows", "error", closeErr)
		}
	}()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.BotID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// SaveMessage appends a message to a bot's history.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	query := `INSERT INTO chat_messages (bot_id, role, content, created_at) VALUES (?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, msg.BotID, msg.Role, msg.Content, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}

// UpdateLastTweetAt records the time of a successful publication. SQLITE_BUSY
// conflicts are retried with exponential backoff since the web tier shares
// the database file.
func (s *SQLiteStore) UpdateLastTweetAt(ctx context.Context, botID string, at time.Time) error {
	query := `UPDATE bots SET last_tweet_at = ?, updated_at = ? WHERE id = ?`

	op := func() error {
		result, err := s.db.ExecContext(ctx, query, at.Unix(), time.Now().Unix(), botID)
		if err != nil {
			if isSQLiteConflict(err) {
				return err
			}
			return backoff.Permanent(fmt.Errorf("update last_tweet_at: %w", err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("get rows affected: %w", err))
		}
		if rows == 0 {
			slog.Warn("UpdateLastTweetAt affected 0 rows", "bot_id", botID)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
}

// UpsertBot creates or updates a bot record.
func (s *SQLiteStore) UpsertBot(ctx context.Context, bot *domain.Bot) error {
	query := `
	INSERT INTO bots (id, name, handle, bio, persona_prompt, tweet_prompt,
		is_autonomous, tweet_frequency_minutes, last_tweet_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		handle = excluded.handle,
		bio = excluded.bio,
		persona_prompt = excluded.persona_prompt,
		tweet_prompt = excluded.tweet_prompt,
		is_autonomous = excluded.is_autonomous,
		tweet_frequency_minutes = excluded.tweet_frequency_minutes,
		updated_at = excluded.updated_at`

	var tweetPrompt interface{}
	if bot.TweetPrompt != "" {
		tweetPrompt = bot.TweetPrompt
	}

	var lastTweetAt interface{}
	if bot.LastTweetAt != nil {
		lastTweetAt = bot.LastTweetAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, query,
		bot.ID, bot.Name, bot.Handle, bot.Bio, bot.PersonaPrompt, tweetPrompt,
		bot.IsAutonomous, bot.TweetFrequencyMinutes, lastTweetAt,
		bot.CreatedAt.Unix(), bot.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert bot: %w", err)
	}
	return nil
}

// UpsertCredentials creates or updates a bot's credential bundle.
func (s *SQLiteStore) UpsertCredentials(ctx context.Context, creds *domain.Credentials) error {
	query := `
	INSERT INTO bot_credentials (bot_id, api_key, api_secret, access_token, access_secret, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(bot_id) DO UPDATE SET
		api_key = excluded.api_key,
		api_secret = excluded.api_secret,
		access_token = excluded.access_token,
		access_secret = excluded.access_secret,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		creds.BotID, creds.APIKey, creds.APISecret,
		creds.AccessToken, creds.AccessSecret, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

// UpsertFeatureToggles creates or updates a bot's toggle row.
func (s *SQLiteStore) UpsertFeatureToggles(ctx context.Context, botID string, t domain.FeatureToggles) error {
	query := `
	INSERT INTO bot_features (bot_id, coin_data, news, weather, exchange_rate,
		coin_symbol, weather_city, rate_base, rate_quote)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(bot_id) DO UPDATE SET
		coin_data = excluded.coin_data,
		news = excluded.news,
		weather = excluded.weather,
		exchange_rate = excluded.exchange_rate,
		coin_symbol = excluded.coin_symbol,
		weather_city = excluded.weather_city,
		rate_base = excluded.rate_base,
		rate_quote = excluded.rate_quote`

	_, err := s.db.ExecContext(ctx, query,
		botID, t.CoinData, t.News, t.Weather, t.ExchangeRate,
		t.CoinSymbol, t.WeatherCity, t.RateBase, t.RateQuote,
	)
	if err != nil {
		return fmt.Errorf("upsert feature toggles: %w", err)
	}
	return nil
}

// isSQLiteConflict checks for SQLITE_BUSY / "database is locked" errors,
// the two concurrency errors that warrant retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY") ||
		strings.Contains(err.Error(), "database is locked")
}
