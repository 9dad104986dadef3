package phrasetable

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// SQLiteTable is a disk-backed Table reading from a phrase-table database
// built by OpenSQLiteTable's schema. It is read-only for the lifetime of a
// decoding run, the same immutability assumption the teacher's sqlite store
// makes for its document/entity tables.
type SQLiteTable struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS phrase_pairs (
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	annotations TEXT NOT NULL DEFAULT '[]',
	alignment  TEXT NOT NULL DEFAULT '[]',
	scores     TEXT NOT NULL DEFAULT '[]',
	oov        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_phrase_pairs_source ON phrase_pairs(source);
CREATE TABLE IF NOT EXISTS vocab (
	id   INTEGER PRIMARY KEY,
	word TEXT NOT NULL
);
`

// OpenSQLiteTable opens (creating if absent) a sqlite-backed phrase table at
// path and ensures its schema exists.
func OpenSQLiteTable(path string) (*SQLiteTable, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open phrase table %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise phrase table schema: %w", err)
	}
	return &SQLiteTable{db: db}, nil
}

// Insert adds one phrase-pair row. Used by offline phrase-table builders
// and by tests that need a populated SQLiteTable.
func (t *SQLiteTable) Insert(source phrase.Words, e Entry) error {
	annJSON, err := json.Marshal(wordsOf(e.Annotations))
	if err != nil {
		return err
	}
	var links [][2]int
	if e.Alignment != nil {
		for i := 0; i < e.Alignment.SourceDim(); i++ {
			for _, j := range e.Alignment.TargetsFor(i) {
				links = append(links, [2]int{i, j})
			}
		}
	}
	alignJSON, err := json.Marshal(links)
	if err != nil {
		return err
	}
	scoresJSON, err := json.Marshal(e.Scores)
	if err != nil {
		return err
	}
	oov := 0
	if e.OOV {
		oov = 1
	}
	_, err = t.db.Exec(`INSERT INTO phrase_pairs(source, target, annotations, alignment, scores, oov)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key(source), strings.Join(e.Target, " "), string(annJSON), string(alignJSON), string(scoresJSON), oov)
	return err
}

func wordsOf(ws []phrase.Words) [][]string {
	out := make([][]string, len(ws))
	for i, w := range ws {
		out[i] = []string(w)
	}
	return out
}

// SetVocabEntry registers one id->word mapping row.
func (t *SQLiteTable) SetVocabEntry(id int, word string) error {
	_, err := t.db.Exec(`INSERT OR REPLACE INTO vocab(id, word) VALUES (?, ?)`, id, word)
	return err
}

func (t *SQLiteTable) Query(source phrase.Words) ([]Entry, bool) {
	rows, err := t.db.Query(`SELECT target, annotations, alignment, scores, oov FROM phrase_pairs WHERE source = ?`, key(source))
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var target, annJSON, alignJSON, scoresJSON string
		var oov int
		if err := rows.Scan(&target, &annJSON, &alignJSON, &scoresJSON, &oov); err != nil {
			return nil, false
		}
		var annWords [][]string
		json.Unmarshal([]byte(annJSON), &annWords)
		var links [][2]int
		json.Unmarshal([]byte(alignJSON), &links)
		var scores []float64
		json.Unmarshal([]byte(scoresJSON), &scores)

		targetWords := phrase.Words(strings.Split(target, " "))
		var align *phrase.Alignment
		if len(links) > 0 {
			maxSrc, maxTgt := 0, 0
			for _, l := range links {
				if l[0]+1 > maxSrc {
					maxSrc = l[0] + 1
				}
				if l[1]+1 > maxTgt {
					maxTgt = l[1] + 1
				}
			}
			align = phrase.NewAlignment(maxSrc, maxTgt)
			for _, l := range links {
				align.Link(l[0], l[1])
			}
		}
		anns := make([]phrase.Words, len(annWords))
		for i, a := range annWords {
			anns[i] = phrase.Words(a)
		}
		out = append(out, Entry{
			Target:      targetWords,
			Annotations: anns,
			Alignment:   align,
			Scores:      scores,
			OOV:         oov != 0,
		})
	}
	return out, len(out) > 0
}

func (t *SQLiteTable) Vocab() map[int]string {
	rows, err := t.db.Query(`SELECT id, word FROM vocab`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make(map[int]string)
	for rows.Next() {
		var id int
		var word string
		if err := rows.Scan(&id, &word); err != nil {
			return out
		}
		out[id] = word
	}
	return out
}

func (t *SQLiteTable) Close() error { return t.db.Close() }
