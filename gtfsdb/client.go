package gtfsdb

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Client owns the output GTFS database.
type Client struct {
	config Config
	logger *slog.Logger
	DB     *sql.DB
}

// NewClient opens (creating if necessary) the GTFS database described by the
// provided configuration.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	db, err := InitDB(config)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS database: %w", err)
	}

	return &Client{
		config: config,
		logger: logger,
		DB:     db,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
