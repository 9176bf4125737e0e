package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/papermem/internal/paper"
)

// DB wraps a SQLite database connection. It is a derived cache of the JSONL
// library and can be rebuilt at any time.
type DB struct {
	db *sql.DB
}

// selectPaperFields contains the standard field list for SELECT queries.
const selectPaperFields = `id, source, title, author, year,
	document_url, landing_url, aliases_json,
	bibtex, tags_json, note, code_link,
	add_date, last_open_date, favorite_date, visit_count`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Main papers table
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT,
			author TEXT,
			year TEXT,
			document_url TEXT,
			landing_url TEXT,
			aliases_json TEXT,
			bibtex TEXT,
			tags_json TEXT,
			note TEXT,
			code_link TEXT,
			add_date INTEGER NOT NULL,
			last_open_date INTEGER NOT NULL,
			favorite_date INTEGER,
			visit_count INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id,
			title,
			author,
			note,
			tags_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a papers JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	records, err := LoadPapers(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.Rebuild(records)
}

// Rebuild replaces the database contents with records.
func (d *DB) Rebuild(records map[paper.ID]paper.Record) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	papersStmt, err := tx.Prepare(`
		INSERT INTO papers (` + selectPaperFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer papersStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO papers_fts (id, title, author, note, tags_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for id, rec := range records {
		aliasesJSON, err := marshalList(rec.Aliases)
		if err != nil {
			return 0, fmt.Errorf("marshaling aliases for %s: %w", id, err)
		}
		tagsJSON, err := marshalList(rec.Tags)
		if err != nil {
			return 0, fmt.Errorf("marshaling tags for %s: %w", id, err)
		}

		_, err = papersStmt.Exec(
			string(id), rec.Source, rec.Title, rec.Author, rec.Year,
			rec.DocumentURL, rec.LandingURL, aliasesJSON,
			nullableStringValue(rec.BibTeX), tagsJSON,
			nullableStringValue(rec.Note), nullableStringValue(rec.CodeLink),
			unixNano(rec.AddDate), unixNano(rec.LastOpenDate), nullableTime(rec.FavoriteDate), rec.VisitCount,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", id, err)
		}

		_, err = ftsStmt.Exec(string(id), rec.Title, rec.Author, rec.Note, strings.Join(rec.Tags, " "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(records), nil
}

// GetByID retrieves a paper by its ID. It returns nil if the paper is not cached.
func (d *DB) GetByID(id paper.ID) (*paper.Record, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, string(id))
	return scanPaper(row)
}

// Search performs a full-text search and returns matching papers, most
// recently opened first.
func (d *DB) Search(query string, limit int) ([]paper.Record, error) {
	return d.SearchWithFilters(SearchFilters{Keyword: query}, limit)
}

// SearchFilters contains optional filters for SearchWithFilters.
type SearchFilters struct {
	Keyword   string // General keyword search across title, author, note, and tags
	Title     string // Search in title only (FTS)
	Author    string // Author name, prefix matched (FTS)
	Source    string // Exact source name (SQL)
	Tag       string // Exact tag (SQL)
	Favorites bool   // Only favorites (SQL)
}

// SearchWithFilters performs a search with multiple optional filters.
// Returns papers matching ALL specified criteria (AND logic).
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]paper.Record, error) {
	var ftsTerms []string
	var args []interface{}

	if filters.Keyword != "" {
		ftsTerms = append(ftsTerms, prepareFTSQuery(filters.Keyword))
	}
	if filters.Title != "" {
		ftsTerms = append(ftsTerms, "title:"+prepareFTSQuery(filters.Title))
	}
	if filters.Author != "" {
		ftsTerms = append(ftsTerms, "author:"+prepareAuthorQuery(filters.Author))
	}

	var query string
	if len(ftsTerms) > 0 {
		query = `SELECT ` + selectPaperFields + `
			FROM papers
			WHERE id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	} else {
		query = `SELECT ` + selectPaperFields + ` FROM papers WHERE 1=1`
	}

	if filters.Source != "" {
		query += " AND source = ?"
		args = append(args, filters.Source)
	}
	if filters.Tag != "" {
		query += " AND EXISTS (SELECT 1 FROM json_each(papers.tags_json) WHERE json_each.value = ?)"
		args = append(args, filters.Tag)
	}
	if filters.Favorites {
		query += " AND favorite_date IS NOT NULL"
	}

	query += " ORDER BY last_open_date DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching with filters: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
// It adds a wildcard (*) to enable fuzzy matching (e.g., "Tim" matches "Timothy").
func prepareAuthorQuery(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return author
	}

	parts := strings.Fields(author)
	var terms []string
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}

	// Use OR for multi-word author queries (match any part)
	return "(" + strings.Join(terms, " OR ") + ")"
}

// Count returns the total number of cached papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(s scanner) (*paper.Record, error) {
	var rec paper.Record
	var id string
	var title, author, year, documentURL, landingURL sql.NullString
	var aliasesJSON, bibtex, tagsJSON, note, codeLink sql.NullString
	var addDate, lastOpenDate int64
	var favoriteDate sql.NullInt64

	err := s.Scan(
		&id, &rec.Source, &title, &author, &year,
		&documentURL, &landingURL, &aliasesJSON,
		&bibtex, &tagsJSON, &note, &codeLink,
		&addDate, &lastOpenDate, &favoriteDate, &rec.VisitCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec.ID = paper.ID(id)
	rec.Title = title.String
	rec.Author = author.String
	rec.Year = year.String
	rec.DocumentURL = documentURL.String
	rec.LandingURL = landingURL.String
	rec.BibTeX = bibtex.String
	rec.Note = note.String
	rec.CodeLink = codeLink.String
	rec.AddDate = fromUnixNano(addDate)
	rec.LastOpenDate = fromUnixNano(lastOpenDate)
	if favoriteDate.Valid {
		t := fromUnixNano(favoriteDate.Int64)
		rec.FavoriteDate = &t
	}

	if aliasesJSON.Valid && aliasesJSON.String != "" {
		if err := json.Unmarshal([]byte(aliasesJSON.String), &rec.Aliases); err != nil {
			return nil, fmt.Errorf("parsing aliases JSON for %s: %w", id, err)
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
			return nil, fmt.Errorf("parsing tags JSON for %s: %w", id, err)
		}
	}

	return &rec, nil
}

func scanPapers(rows *sql.Rows) ([]paper.Record, error) {
	var records []paper.Record
	for rows.Next() {
		rec, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, rows.Err()
}

// marshalList encodes a string list as JSON, or NULL when empty.
func marshalList(list []string) (sql.NullString, error) {
	if len(list) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: unixNano(*t), Valid: true}
}

// unixNano stores the zero time as 0; UnixNano is undefined outside 1678-2262.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// If query contains special chars, quote it
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
