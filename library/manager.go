package library

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateID   = errors.New("id already registered")
	ErrUnknownPatron = errors.New("patron not found")
	ErrBadPIN        = errors.New("incorrect PIN")
	ErrEmptyPIN      = errors.New("PIN cannot be empty")
)

// LibraryManager is a thin façade over the Library and its Database, keeping
// CLI and HTTP code simple. Every call holds one lock for the operation and
// the snapshot write that follows it.
type LibraryManager struct {
	mu  sync.Mutex
	lib *Library
	db  *Database
	log *zap.Logger
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath and
// loads the library stored in it.
func NewLibraryManager(dbPath string, log *zap.Logger) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath, log)
	if err != nil {
		return nil, err
	}
	lib, err := db.Load()
	if err != nil {
		db.Close()
		return nil, err
	}
	lm := &LibraryManager{lib: lib, db: db, log: log.Named("desk")}
	lib.SetLogger(lm.log)
	return lm, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Registry ------------------

// AddItem registers a new item. Unlike Library.AddItem it refuses to
// replace an existing ID.
func (lm *LibraryManager) AddItem(kind Kind, id, title, creator string) (ItemView, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return ItemView{}, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.lib.LookupItem(id) != nil {
		return ItemView{}, errors.Wrapf(ErrDuplicateID, "item %s", id)
	}
	prev := lm.lib.clone()
	item := NewItem(kind, id, title, creator)
	lm.lib.AddItem(item)
	if err := lm.persist(prev); err != nil {
		return ItemView{}, err
	}
	lm.log.Info("item added", zap.String("item", id), zap.String("kind", string(kind)))
	return viewItem(lm.lib, item), nil
}

// AddPatron registers a new patron.
func (lm *LibraryManager) AddPatron(id, name string) (PatronView, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.lib.LookupPatron(id) != nil {
		return PatronView{}, errors.Wrapf(ErrDuplicateID, "patron %s", id)
	}
	prev := lm.lib.clone()
	patron := NewPatron(id, name)
	lm.lib.AddPatron(patron)
	if err := lm.persist(prev); err != nil {
		return PatronView{}, err
	}
	lm.log.Info("patron added", zap.String("patron", id))
	return viewPatron(lm.lib, patron), nil
}

// GetItem returns a copy of the item state.
func (lm *LibraryManager) GetItem(id string) (ItemView, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	item := lm.lib.LookupItem(id)
	if item == nil {
		return ItemView{}, false
	}
	return viewItem(lm.lib, item), true
}

// GetPatron returns a copy of the patron state.
func (lm *LibraryManager) GetPatron(id string) (PatronView, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	patron := lm.lib.LookupPatron(id)
	if patron == nil {
		return PatronView{}, false
	}
	return viewPatron(lm.lib, patron), true
}

// Status returns a consistent copy of the whole library.
func (lm *LibraryManager) Status() Snapshot {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return snapshot(lm.lib)
}

// ------------------ PINs ------------------

// SetPIN stores a bcrypt hash of pin for the patron.
func (lm *LibraryManager) SetPIN(patronID, pin string) error {
	if pin == "" {
		return ErrEmptyPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash PIN")
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	patron := lm.lib.LookupPatron(patronID)
	if patron == nil {
		return errors.Wrapf(ErrUnknownPatron, "%s", patronID)
	}
	prev := lm.lib.clone()
	patron.PINHash = string(hash)
	return lm.persist(prev)
}

// RequiresPIN reports whether the patron has a desk PIN set.
func (lm *LibraryManager) RequiresPIN(patronID string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	patron := lm.lib.LookupPatron(patronID)
	return patron != nil && patron.PINHash != ""
}

// Authenticate checks pin against the patron's stored hash. Patrons without
// a PIN, and unknown patrons, always pass so that the circulation operation
// itself reports the outcome.
func (lm *LibraryManager) Authenticate(patronID, pin string) error {
	lm.mu.Lock()
	patron := lm.lib.LookupPatron(patronID)
	var hash string
	if patron != nil {
		hash = patron.PINHash
	}
	lm.mu.Unlock()

	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		lm.log.Warn("PIN rejected", zap.String("patron", patronID))
		return ErrBadPIN
	}
	return nil
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) CheckOut(patronID, itemID string) (Outcome, error) {
	return lm.run(Event{Operation: "checkout", PatronID: patronID, ItemID: itemID}, func() Outcome {
		return lm.lib.CheckOut(patronID, itemID)
	})
}

func (lm *LibraryManager) Return(itemID string) (Outcome, error) {
	return lm.run(Event{Operation: "return", ItemID: itemID}, func() Outcome {
		return lm.lib.Return(itemID)
	})
}

func (lm *LibraryManager) Request(patronID, itemID string) (Outcome, error) {
	return lm.run(Event{Operation: "request", PatronID: patronID, ItemID: itemID}, func() Outcome {
		return lm.lib.Request(patronID, itemID)
	})
}

func (lm *LibraryManager) PayFine(patronID string, amount Money) (Outcome, error) {
	return lm.run(Event{Operation: "pay", PatronID: patronID, Amount: amount.Abs()}, func() Outcome {
		return lm.lib.PayFine(patronID, amount)
	})
}

// AdvanceDate moves the library forward by days (at least one) and returns
// the new current date.
func (lm *LibraryManager) AdvanceDate(days int) (int, error) {
	if days < 1 {
		days = 1
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	prev := lm.lib.clone()
	before := totalFines(lm.lib)
	for i := 0; i < days; i++ {
		lm.lib.AdvanceDate()
	}
	charged := totalFines(lm.lib) - before

	if err := lm.persist(prev); err != nil {
		return lm.lib.CurrentDate(), err
	}
	lm.log.Info("date advanced",
		zap.Int("days", days),
		zap.Int("date", lm.lib.CurrentDate()),
		zap.Stringer("fines_charged", charged))
	lm.record(Event{Operation: "advance", Day: lm.lib.CurrentDate(), Amount: charged, Outcome: "date advanced"})
	return lm.lib.CurrentDate(), nil
}

// History returns the most recent circulation events, newest first.
func (lm *LibraryManager) History(limit int) ([]Event, error) {
	return lm.db.History(limit)
}

// run applies op under the lock, persists state-changing outcomes and
// records the attempt in the history.
func (lm *LibraryManager) run(ev Event, op func() Outcome) (Outcome, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	prev := lm.lib.clone()
	out := op()
	fields := []zap.Field{
		zap.String("op", ev.Operation),
		zap.String("patron", ev.PatronID),
		zap.String("item", ev.ItemID),
		zap.Stringer("outcome", out),
	}
	if out.Success() {
		if err := lm.persist(prev); err != nil {
			return out, err
		}
		lm.log.Info("circulation", fields...)
	} else {
		lm.log.Warn("circulation", fields...)
	}

	ev.Day = lm.lib.CurrentDate()
	ev.Outcome = out.String()
	lm.record(ev)
	return out, nil
}

// persist writes the snapshot. On failure the library is rolled back to
// prev, the state taken before the operation, so memory never runs ahead
// of disk.
func (lm *LibraryManager) persist(prev *Library) error {
	err := lm.db.Save(lm.lib)
	if err == nil {
		return nil
	}
	lm.log.Error("save snapshot, rolling back", zap.Error(err))
	lm.lib = prev
	return err
}

func (lm *LibraryManager) record(ev Event) {
	if err := lm.db.RecordEvent(ev); err != nil {
		lm.log.Error("record history", zap.Error(err))
	}
}

func totalFines(lib *Library) Money {
	var sum Money
	for _, p := range lib.patrons {
		sum += p.Fine
	}
	return sum
}
