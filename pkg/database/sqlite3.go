package database

// The usage index records every completed chat turn next to the transcript
// file it belongs to, so old sessions can be found again by keyword:
//
//	db, err := NewDB("path/to/chatbot.db", "turns")
//	db.InsertTurn(Turn{...})
//	matches, err := db.SearchSessions("sqlite")

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type ChatDB struct {
	db    *sql.DB
	table string
}

// Turn is one prompt/response exchange.
type Turn struct {
	SessionFile    string
	Prompt         string
	Response       string
	ModelName      string
	Temperature    float64
	InputTokens    int32
	OutputTokens   int32
	EstInputTokens int32
}

// SessionMatch is a transcript with at least one turn matching a search.
type SessionMatch struct {
	SessionFile string
	Matches     int
}

func NewDB(dbPath string, dbTable string) (*ChatDB, error) {
	if !tableName.MatchString(dbTable) {
		return nil, fmt.Errorf("invalid table name %q", dbTable)
	}

	// DB created only if it doesn't exist
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one connection so :memory: databases keep their tables
	db.SetMaxOpenConns(1)

	if err := migrate(db, dbTable); err != nil {
		db.Close()
		return nil, err
	}

	return &ChatDB{db: db, table: dbTable}, nil
}

func (c *ChatDB) InsertTurn(t Turn) error {
	_, err := c.db.Exec(`
		INSERT INTO `+c.table+` (session_file, prompt, response, model_name, temperature, input_tokens, output_tokens, est_input_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, t.SessionFile, t.Prompt, t.Response, t.ModelName, t.Temperature, t.InputTokens, t.OutputTokens, t.EstInputTokens)
	if err != nil {
		return fmt.Errorf("error inserting turn into database: %w", err)
	}
	return nil
}

// SessionTurns returns the turns recorded for a transcript, oldest first.
func (c *ChatDB) SessionTurns(sessionFile string) ([]Turn, error) {
	rows, err := c.db.Query(`
		SELECT session_file, prompt, response, model_name, temperature,
			COALESCE(input_tokens, 0), COALESCE(output_tokens, 0), COALESCE(est_input_tokens, 0)
		FROM `+c.table+` WHERE session_file = ? ORDER BY id;
	`, sessionFile)
	if err != nil {
		return nil, fmt.Errorf("error querying database for turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.SessionFile, &t.Prompt, &t.Response, &t.ModelName, &t.Temperature,
			&t.InputTokens, &t.OutputTokens, &t.EstInputTokens); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SearchSessions finds transcripts whose prompts or responses contain
// keyword, case-insensitively for ASCII, most recently used first.
func (c *ChatDB) SearchSessions(keyword string) ([]SessionMatch, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty search keyword")
	}
	pattern := "%" + escapeLike(keyword) + "%"

	rows, err := c.db.Query(`
		SELECT session_file, COUNT(*), MAX(id) AS last
		FROM `+c.table+`
		WHERE session_file != '' AND (prompt LIKE ? ESCAPE '\' OR response LIKE ? ESCAPE '\')
		GROUP BY session_file
		ORDER BY last DESC;
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("error searching database: %w", err)
	}
	defer rows.Close()

	var matches []SessionMatch
	for rows.Next() {
		var m SessionMatch
		var last int64
		if err := rows.Scan(&m.SessionFile, &m.Matches, &last); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (c *ChatDB) Close() error {
	return c.db.Close()
}
