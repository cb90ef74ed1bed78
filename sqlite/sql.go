package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hoshinonyaruko/snake-in-browser/structs"
	_ "github.com/mattn/go-sqlite3"
)

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS Results (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    SessionID TEXT,
    Score INTEGER,
    Length INTEGER,
    Ticks INTEGER,
    DurationMs INTEGER,
    Reason TEXT,
    EndedAt INTEGER
);
`

const createResultsScoreIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_results_score ON Results (Score DESC, EndedAt ASC);
`

const createResultsSessionIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_results_session ON Results (SessionID);
`

// Open 打开成绩库并建表。默认 DSN 是内存模式，进程退出即消失。
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// 内存库只在连接存活期间存在
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func executeSQL(db *sql.DB, sqlStatement string) error {
	_, err := db.Exec(sqlStatement)
	if err != nil {
		return fmt.Errorf("executing SQL statement %q: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createResultsTableSQL, createResultsScoreIndexSQL, createResultsSessionIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordResult 记录一局结束后的成绩
func RecordResult(db *sql.DB, result structs.Result) error {
	// 开启事务
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("INSERT INTO Results (SessionID, Score, Length, Ticks, DurationMs, Reason, EndedAt) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.SessionID, result.Score, result.Length, int64(result.Ticks), result.Duration.Milliseconds(), result.Reason, result.EndedAt.UnixMilli())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert result: %w", err)
	}

	// 提交事务
	return tx.Commit()
}

// TopResults returns up to limit results, best score first; ties go to the
// earlier game.
func TopResults(db *sql.DB, limit int) ([]structs.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query("SELECT SessionID, Score, Length, Ticks, DurationMs, Reason, EndedAt FROM Results ORDER BY Score DESC, EndedAt ASC, ID ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []structs.Result{}
	for rows.Next() {
		var (
			r          structs.Result
			ticks      int64
			durationMs int64
			endedAt    int64
		)
		if err := rows.Scan(&r.SessionID, &r.Score, &r.Length, &ticks, &durationMs, &r.Reason, &endedAt); err != nil {
			return nil, err
		}
		r.Ticks = uint64(ticks)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.EndedAt = time.UnixMilli(endedAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

// SessionResults lists every finished game of one session, latest first.
func SessionResults(db *sql.DB, sessionID string) ([]structs.Result, error) {
	rows, err := db.Query("SELECT Score, Length, Ticks, DurationMs, Reason, EndedAt FROM Results WHERE SessionID = ? ORDER BY ID DESC", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []structs.Result{}
	for rows.Next() {
		var ticks, durationMs, endedAt int64
		r := structs.Result{SessionID: sessionID}
		if err := rows.Scan(&r.Score, &r.Length, &ticks, &durationMs, &r.Reason, &endedAt); err != nil {
			return nil, err
		}
		r.Ticks = uint64(ticks)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.EndedAt = time.UnixMilli(endedAt)
		results = append(results, r)
	}
	return results, rows.Err()
}
