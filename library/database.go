package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Database persists library snapshots and the circulation history in SQLite.
type Database struct {
	db  *sql.DB
	log *zap.Logger

	insertPatronStmt *sql.Stmt
	insertItemStmt   *sql.Stmt
	insertHeldStmt   *sql.Stmt
}

// Event is one row of the circulation history.
type Event struct {
	ID         string    `json:"id"`
	Day        int       `json:"day"`
	Operation  string    `json:"operation"`
	PatronID   string    `json:"patron_id,omitempty"`
	ItemID     string    `json:"item_id,omitempty"`
	Amount     Money     `json:"amount_cents,omitempty"`
	Outcome    string    `json:"outcome"`
	RecordedAt time.Time `json:"recorded_at"`
}

const (
	patronsTable = "patrons"
	itemsTable   = "items"
	heldTable    = "held_items"
	historyTable = "history"

	dateKey = "library_date"
)

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db, log: log.Named("store")}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.insertPatronStmt, d.insertItemStmt, d.insertHeldStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errors.Wrap(err, "enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patrons (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            fine_cents INTEGER NOT NULL DEFAULT 0,
            pin_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            title TEXT NOT NULL,
            creator TEXT NOT NULL,
            loan_period INTEGER NOT NULL,
            location TEXT NOT NULL DEFAULT 'ON_SHELF',
            holder_id TEXT REFERENCES patrons(id),
            requester_id TEXT REFERENCES patrons(id),
            checkout_date INTEGER
        );`,
		`CREATE TABLE IF NOT EXISTS held_items (
            patron_id TEXT NOT NULL REFERENCES patrons(id),
            item_id TEXT NOT NULL REFERENCES items(id),
            position INTEGER NOT NULL,
            PRIMARY KEY (patron_id, position)
        );`,
		`CREATE TABLE IF NOT EXISTS history (
            id TEXT PRIMARY KEY,
            library_day INTEGER NOT NULL,
            operation TEXT NOT NULL,
            patron_id TEXT NOT NULL DEFAULT '',
            item_id TEXT NOT NULL DEFAULT '',
            amount_cents INTEGER NOT NULL DEFAULT 0,
            outcome TEXT NOT NULL,
            recorded_at DATETIME NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrap(err, "apply migration")
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return errors.Wrap(err, "apply migration")
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertPatronStmt, err = d.db.Prepare(`INSERT INTO patrons(id,name,fine_cents,pin_hash) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.insertItemStmt, err = d.db.Prepare(`INSERT INTO items(id,kind,title,creator,loan_period,location,holder_id,requester_id,checkout_date)
        VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertHeldStmt, err = d.db.Prepare(`INSERT INTO held_items(patron_id,item_id,position) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Save replaces the stored snapshot with the current state of lib.
func (d *Database) Save(lib *Library) error {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	// Children first so foreign keys hold while the tables are emptied.
	for _, table := range []string{heldTable, itemsTable, patronsTable} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	patronStmt := tx.Stmt(d.insertPatronStmt)
	for _, p := range lib.Patrons() {
		if _, err := patronStmt.Exec(p.ID, p.Name, int64(p.Fine), p.PINHash); err != nil {
			return errors.Wrapf(err, "save patron %s", p.ID)
		}
	}

	itemStmt := tx.Stmt(d.insertItemStmt)
	for _, it := range lib.Items() {
		var checkout sql.NullInt64
		if it.Stamped {
			checkout = sql.NullInt64{Int64: int64(it.CheckoutDate), Valid: true}
		}
		if _, err := itemStmt.Exec(it.ID, string(it.Kind), it.Title, it.Creator, it.LoanPeriod,
			string(it.Location), patronRef(it.Holder), patronRef(it.Requester), checkout); err != nil {
			return errors.Wrapf(err, "save item %s", it.ID)
		}
	}

	heldStmt := tx.Stmt(d.insertHeldStmt)
	for _, p := range lib.Patrons() {
		for pos, it := range p.Items {
			if _, err := heldStmt.Exec(p.ID, it.ID, pos); err != nil {
				return errors.Wrapf(err, "save held item %s/%s", p.ID, it.ID)
			}
		}
	}

	q, args, err := sq.Insert("meta").Columns("key", "value").
		Values(dateKey, strconv.Itoa(lib.CurrentDate())).
		Suffix("ON CONFLICT(key) DO UPDATE SET value=excluded.value").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(q, args...); err != nil {
		return errors.Wrap(err, "save date")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit save")
	}
	d.log.Debug("snapshot saved",
		zap.Int("date", lib.CurrentDate()),
		zap.Int("items", len(lib.items)),
		zap.Int("patrons", len(lib.patrons)))
	return nil
}

func patronRef(p *Patron) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.ID, Valid: true}
}

// Load rebuilds the library from the stored snapshot. An empty database
// yields an empty library on day 0.
func (d *Database) Load() (*Library, error) {
	lib := NewLibrary()

	var date string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key=?`, dateKey).Scan(&date)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, errors.Wrap(err, "load date")
	default:
		if lib.date, err = strconv.Atoi(date); err != nil {
			return nil, errors.Wrapf(err, "bad stored date %q", date)
		}
	}

	if err := d.loadPatrons(lib); err != nil {
		return nil, err
	}
	if err := d.loadItems(lib); err != nil {
		return nil, err
	}
	if err := d.loadHeld(lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func (d *Database) loadPatrons(lib *Library) error {
	q, args, err := sq.Select("id", "name", "fine_cents", "pin_hash").From(patronsTable).OrderBy("id").ToSql()
	if err != nil {
		return err
	}
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return errors.Wrap(err, "load patrons")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p    Patron
			fine int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &fine, &p.PINHash); err != nil {
			return errors.Wrap(err, "scan patron")
		}
		p.Fine = Money(fine)
		lib.AddPatron(&p)
	}
	return rows.Err()
}

func (d *Database) loadItems(lib *Library) error {
	q, args, err := sq.Select("id", "kind", "title", "creator", "loan_period", "location",
		"holder_id", "requester_id", "checkout_date").
		From(itemsTable).OrderBy("id").ToSql()
	if err != nil {
		return err
	}
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return errors.Wrap(err, "load items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                Item
			kind, location    string
			holder, requester sql.NullString
			checkout          sql.NullInt64
		)
		if err := rows.Scan(&it.ID, &kind, &it.Title, &it.Creator, &it.LoanPeriod, &location,
			&holder, &requester, &checkout); err != nil {
			return errors.Wrap(err, "scan item")
		}
		it.Kind = Kind(kind)
		it.Location = Location(location)
		if holder.Valid {
			it.Holder = lib.LookupPatron(holder.String)
		}
		if requester.Valid {
			it.Requester = lib.LookupPatron(requester.String)
		}
		if checkout.Valid {
			it.CheckoutDate = int(checkout.Int64)
			it.Stamped = true
		}
		lib.AddItem(&it)
	}
	return rows.Err()
}

func (d *Database) loadHeld(lib *Library) error {
	q, args, err := sq.Select("patron_id", "item_id").From(heldTable).OrderBy("patron_id", "position").ToSql()
	if err != nil {
		return err
	}
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return errors.Wrap(err, "load held items")
	}
	defer rows.Close()

	for rows.Next() {
		var patronID, itemID string
		if err := rows.Scan(&patronID, &itemID); err != nil {
			return errors.Wrap(err, "scan held item")
		}
		p, it := lib.LookupPatron(patronID), lib.LookupItem(itemID)
		if p == nil || it == nil {
			d.log.Warn("dangling held item", zap.String("patron", patronID), zap.String("item", itemID))
			continue
		}
		p.AddItem(it)
	}
	return rows.Err()
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// RecordEvent appends ev to the circulation history. ID and RecordedAt are
// filled in when empty.
func (d *Database) RecordEvent(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}
	q, args, err := sq.Insert(historyTable).
		Columns("id", "library_day", "operation", "patron_id", "item_id", "amount_cents", "outcome", "recorded_at").
		Values(ev.ID, ev.Day, ev.Operation, ev.PatronID, ev.ItemID, int64(ev.Amount), ev.Outcome, ev.RecordedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := d.db.Exec(q, args...); err != nil {
		return errors.Wrap(err, "record event")
	}
	return nil
}

// History returns up to limit of the most recent events, newest first.
// A non-positive limit returns everything.
func (d *Database) History(limit int) ([]Event, error) {
	b := sq.Select("id", "library_day", "operation", "patron_id", "item_id", "amount_cents", "outcome", "recorded_at").
		From(historyTable).
		OrderBy("rowid DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "load history")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev     Event
			amount int64
		)
		if err := rows.Scan(&ev.ID, &ev.Day, &ev.Operation, &ev.PatronID, &ev.ItemID, &amount, &ev.Outcome, &ev.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		ev.Amount = Money(amount)
		events = append(events, ev)
	}
	return events, rows.Err()
}
