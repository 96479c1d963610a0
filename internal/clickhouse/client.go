package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type Client struct {
	conn     driver.Conn
	database string
}

type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	MaxConns int
}

func NewClient(cfg Config) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     cfg.MaxConns,
		MaxIdleConns:     cfg.MaxConns / 2,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return &Client{conn: conn, database: cfg.Database}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// AuthEvent is one enriched row in the auth_events table.
type AuthEvent struct {
	EventID    string
	EventType  string
	UserID     string
	Email      string
	OccurredAt time.Time

	IPAddress  string
	UserAgent  string
	Browser    string
	OS         string
	DeviceType string
}

// EnsureSchema creates the auth_events table if it does not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.auth_events (
			event_id String,
			event_type LowCardinality(String),
			user_id String,
			email String,
			occurred_at DateTime,
			ip_address String,
			user_agent String,
			browser String,
			os String,
			device_type LowCardinality(String)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(occurred_at)
		ORDER BY (event_type, occurred_at)
	`, c.database)

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create auth_events table: %w", err)
	}
	return nil
}

func (c *Client) InsertAuthEvents(ctx context.Context, events []AuthEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf(`INSERT INTO %s.auth_events (
		event_id, event_type, user_id, email, occurred_at,
		ip_address, user_agent, browser, os, device_type
	)`, c.database))
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, event := range events {
		err := batch.Append(
			event.EventID,
			event.EventType,
			event.UserID,
			event.Email,
			event.OccurredAt,
			event.IPAddress,
			event.UserAgent,
			event.Browser,
			event.OS,
			event.DeviceType,
		)
		if err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	return nil
}

// GetRecentEvents returns the latest auth events for an email, newest first.
func (c *Client) GetRecentEvents(ctx context.Context, email string, limit int) ([]AuthEvent, error) {
	query := fmt.Sprintf(`
		SELECT
			event_id, event_type, user_id, email, occurred_at,
			ip_address, browser, os, device_type
		FROM %s.auth_events
		WHERE email = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`, c.database)

	rows, err := c.conn.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth events: %w", err)
	}
	defer rows.Close()

	var events []AuthEvent
	for rows.Next() {
		var event AuthEvent
		err := rows.Scan(
			&event.EventID,
			&event.EventType,
			&event.UserID,
			&event.Email,
			&event.OccurredAt,
			&event.IPAddress,
			&event.Browser,
			&event.OS,
			&event.DeviceType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}
