package library

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEmptyDatabase(t *testing.T) {
	db := tempDB(t)
	lib, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.CurrentDate() != 0 || len(lib.Items()) != 0 || len(lib.Patrons()) != 0 {
		t.Fatalf("expected empty library, got date %d, %d items, %d patrons",
			lib.CurrentDate(), len(lib.Items()), len(lib.Patrons()))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := tempDB(t)

	lib := NewLibrary()
	lib.AddItem(NewBook("b1", "Hamlet", "Shakespeare"))
	lib.AddItem(NewAlbum("a1", "2001", "Dr. Dre"))
	lib.AddItem(NewMovie("m1", "Jurassic Park", "Spielberg"))
	felicity := NewPatron("p1", "Felicity")
	felicity.PINHash = "hash"
	lib.AddPatron(felicity)
	lib.AddPatron(NewPatron("p2", "Ralph"))

	lib.AdvanceDate()
	lib.CheckOut("p1", "m1")
	lib.CheckOut("p1", "b1")
	lib.Request("p2", "b1")
	lib.Request("p2", "a1")
	for i := 0; i < 9; i++ {
		lib.AdvanceDate()
	}
	lib.PayFine("p1", 5)

	if err := db.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.CurrentDate() != 10 {
		t.Fatalf("date: want 10, got %d", got.CurrentDate())
	}

	p1 := got.LookupPatron("p1")
	if p1 == nil || p1.Name != "Felicity" || p1.PINHash != "hash" {
		t.Fatalf("patron p1 not restored: %+v", p1)
	}
	if p1.Fine != lib.LookupPatron("p1").Fine {
		t.Fatalf("fine: want %s, got %s", lib.LookupPatron("p1").Fine, p1.Fine)
	}
	if len(p1.Items) != 2 || p1.Items[0].ID != "m1" || p1.Items[1].ID != "b1" {
		t.Fatalf("held items not restored in checkout order")
	}

	book := got.LookupItem("b1")
	if book.Location != CheckedOut || book.Holder != p1 || book.CheckoutDate != 1 || !book.Stamped {
		t.Fatalf("book state not restored: %+v", book)
	}
	if book.Requester != got.LookupPatron("p2") {
		t.Fatalf("book requester not restored")
	}
	if p1.Items[1] != book {
		t.Fatalf("held item should share the registry pointer")
	}

	album := got.LookupItem("a1")
	if album.Location != OnHoldShelf || album.Holder != nil || album.Stamped {
		t.Fatalf("album state not restored: %+v", album)
	}
	if album.Kind != KindAlbum || album.LoanPeriod != 14 || album.Creator != "Dr. Dre" {
		t.Fatalf("album identity not restored: %+v", album)
	}

	// The restored library keeps accruing exactly like the original.
	lib.AdvanceDate()
	got.AdvanceDate()
	if got.LookupPatron("p1").Fine != lib.LookupPatron("p1").Fine {
		t.Fatalf("fines diverged after reload")
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	db := tempDB(t)
	lib := NewLibrary()
	lib.AddItem(NewBook("b1", "Hamlet", "Shakespeare"))
	lib.AddPatron(NewPatron("p1", "Felicity"))
	lib.CheckOut("p1", "b1")
	if err := db.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}

	lib.Return("b1")
	if err := db.Save(lib); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.LookupPatron("p1").Items) != 0 {
		t.Fatalf("stale held item survived the second save")
	}
	if got.LookupItem("b1").Location != OnShelf {
		t.Fatalf("expected b1 on shelf")
	}
}

func TestHistory(t *testing.T) {
	db := tempDB(t)
	ops := []Event{
		{Operation: "checkout", PatronID: "p1", ItemID: "b1", Outcome: CheckOutSuccessful.String()},
		{Operation: "request", PatronID: "p2", ItemID: "b1", Outcome: RequestSuccessful.String()},
		{Operation: "pay", PatronID: "p1", Amount: 25, Outcome: PaymentSuccessful.String(), Day: 3},
	}
	for _, ev := range ops {
		if err := db.RecordEvent(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, err := db.History(0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 events, got %d", len(all))
	}
	if all[0].Operation != "pay" || all[0].Amount != 25 || all[0].Day != 3 {
		t.Fatalf("newest event first, got %+v", all[0])
	}
	if all[0].ID == "" || all[0].RecordedAt.IsZero() {
		t.Fatalf("id and timestamp should be filled in")
	}

	last, err := db.History(1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(last) != 1 || last[0].ID != all[0].ID {
		t.Fatalf("limit not applied")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	db, err := NewDatabase(path, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	lib := NewLibrary()
	lib.AddPatron(NewPatron("p1", "Felicity"))
	if err := db.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}
	db.Close()

	db, err = NewDatabase(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LookupPatron("p1") == nil {
		t.Fatalf("patron lost across reopen")
	}
}
