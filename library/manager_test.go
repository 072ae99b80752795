package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *LibraryManager {
	return openManager(t, filepath.Join(t.TempDir(), "lib.db"))
}

func openManager(t *testing.T, path string) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func seedManager(t *testing.T, mgr *LibraryManager) {
	t.Helper()
	_, err := mgr.AddItem(KindBook, "b1", "Slaughterhouse Five", "Vonnegut")
	require.NoError(t, err)
	_, err = mgr.AddItem(KindMovie, "m1", "The Incredibles", "Bird")
	require.NoError(t, err)
	_, err = mgr.AddPatron("p1", "Felicity")
	require.NoError(t, err)
	_, err = mgr.AddPatron("p2", "Ralph")
	require.NoError(t, err)
}

func TestManagerRejectsDuplicates(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)

	_, err := mgr.AddItem(KindAlbum, "b1", "Other", "Someone")
	require.ErrorIs(t, err, ErrDuplicateID)
	_, err = mgr.AddPatron("p1", "Someone")
	require.ErrorIs(t, err, ErrDuplicateID)
	_, err = mgr.AddItem(Kind("scroll"), "s1", "Other", "Someone")
	require.ErrorIs(t, err, ErrUnknownKind)

	item, ok := mgr.GetItem("b1")
	require.True(t, ok)
	assert.Equal(t, "Slaughterhouse Five", item.Title)
}

func TestManagerCirculationPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	mgr := openManager(t, path)
	seedManager(t, mgr)

	out, err := mgr.CheckOut("p1", "b1")
	require.NoError(t, err)
	assert.Equal(t, CheckOutSuccessful, out)

	out, err = mgr.Request("p2", "b1")
	require.NoError(t, err)
	assert.Equal(t, RequestSuccessful, out)

	date, err := mgr.AdvanceDate(25)
	require.NoError(t, err)
	assert.Equal(t, 25, date)

	p1, ok := mgr.GetPatron("p1")
	require.True(t, ok)
	assert.Equal(t, Money(40), p1.FineCents)
	assert.Equal(t, "0.40", p1.Fine)
	assert.Equal(t, []string{"b1"}, p1.Overdue)

	out, err = mgr.PayFine("p1", -40)
	require.NoError(t, err)
	assert.Equal(t, PaymentSuccessful, out)

	out, err = mgr.Return("b1")
	require.NoError(t, err)
	assert.Equal(t, ReturnSuccessful, out)
	require.NoError(t, mgr.Close())

	reopened := openManager(t, path)
	status := reopened.Status()
	assert.Equal(t, 25, status.Date)

	b1, ok := reopened.GetItem("b1")
	require.True(t, ok)
	assert.Equal(t, OnHoldShelf, b1.Location)
	assert.Equal(t, "p2", b1.RequesterID)
	assert.Empty(t, b1.HolderID)

	p1, ok = reopened.GetPatron("p1")
	require.True(t, ok)
	assert.Equal(t, Money(0), p1.FineCents)
	assert.Empty(t, p1.Items)
}

func TestManagerFailedOutcomesAreNotErrors(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)

	tests := []struct {
		name string
		run  func() (Outcome, error)
		want Outcome
	}{
		{"unknown patron", func() (Outcome, error) { return mgr.CheckOut("zz", "b1") }, PatronNotFound},
		{"unknown item", func() (Outcome, error) { return mgr.CheckOut("p1", "zz") }, ItemNotFound},
		{"double return", func() (Outcome, error) { return mgr.Return("b1") }, AlreadyInLibrary},
		{"pay unknown", func() (Outcome, error) { return mgr.PayFine("zz", 1) }, PatronNotFound},
		{"request unknown", func() (Outcome, error) { return mgr.Request("p1", "zz") }, ItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run()
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestManagerHistory(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)

	_, _ = mgr.CheckOut("p1", "m1")
	_, _ = mgr.CheckOut("p2", "m1")
	_, _ = mgr.AdvanceDate(10)

	events, err := mgr.History(0)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "advance", events[0].Operation)
	assert.Equal(t, 10, events[0].Day)
	assert.Equal(t, Money(30), events[0].Amount)

	assert.Equal(t, "checkout", events[1].Operation)
	assert.Equal(t, AlreadyCheckedOut.String(), events[1].Outcome)
	assert.Equal(t, "p2", events[1].PatronID)

	assert.Equal(t, CheckOutSuccessful.String(), events[2].Outcome)
}

func TestManagerAdvanceAtLeastOneDay(t *testing.T) {
	mgr := newManager(t)
	date, err := mgr.AdvanceDate(0)
	require.NoError(t, err)
	assert.Equal(t, 1, date)
}

func TestManagerPIN(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)

	assert.False(t, mgr.RequiresPIN("p1"))
	require.NoError(t, mgr.Authenticate("p1", ""))

	require.ErrorIs(t, mgr.SetPIN("p1", ""), ErrEmptyPIN)
	require.ErrorIs(t, mgr.SetPIN("zz", "1234"), ErrUnknownPatron)
	require.NoError(t, mgr.SetPIN("p1", "1234"))

	assert.True(t, mgr.RequiresPIN("p1"))
	require.NoError(t, mgr.Authenticate("p1", "1234"))
	require.ErrorIs(t, mgr.Authenticate("p1", "4321"), ErrBadPIN)
	// unknown patrons are left to the circulation outcome
	require.NoError(t, mgr.Authenticate("zz", "whatever"))

	p1, ok := mgr.GetPatron("p1")
	require.True(t, ok)
	assert.True(t, p1.HasPIN)
}

func TestManagerStatusIsDetached(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)
	_, _ = mgr.CheckOut("p1", "m1")

	status := mgr.Status()
	require.Len(t, status.Items, 2)
	require.Len(t, status.Patrons, 2)
	assert.Equal(t, "b1", status.Items[0].ID)
	m1 := status.Items[1]
	require.NotNil(t, m1.DueDate)
	assert.Equal(t, 7, *m1.DueDate)
	assert.Equal(t, "p1", m1.HolderID)

	status.Patrons[0].Items[0] = "tampered"
	p1, _ := mgr.GetPatron("p1")
	assert.Equal(t, []string{"m1"}, p1.Items)
}

func TestManagerRollsBackWhenSaveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	mgr := openManager(t, path)
	seedManager(t, mgr)
	_, err := mgr.AdvanceDate(3)
	require.NoError(t, err)

	_, err = mgr.db.db.Exec(`CREATE TRIGGER refuse_held BEFORE INSERT ON held_items
        BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	_, err = mgr.CheckOut("p1", "b1")
	require.Error(t, err)

	b1, ok := mgr.GetItem("b1")
	require.True(t, ok)
	assert.Equal(t, OnShelf, b1.Location)
	assert.Empty(t, b1.HolderID)
	p1, ok := mgr.GetPatron("p1")
	require.True(t, ok)
	assert.Empty(t, p1.Items)
	assert.Equal(t, 3, mgr.Status().Date)

	_, err = mgr.db.db.Exec(`DROP TRIGGER refuse_held`)
	require.NoError(t, err)
	out, err := mgr.CheckOut("p1", "b1")
	require.NoError(t, err)
	assert.Equal(t, CheckOutSuccessful, out)
	require.NoError(t, mgr.Close())

	b1, ok = openManager(t, path).GetItem("b1")
	require.True(t, ok)
	assert.Equal(t, CheckedOut, b1.Location)
	assert.Equal(t, "p1", b1.HolderID)
}

func TestManagerKeepsStateWhenDatabaseIsGone(t *testing.T) {
	mgr := newManager(t)
	seedManager(t, mgr)
	require.NoError(t, mgr.db.db.Close())

	_, err := mgr.CheckOut("p1", "m1")
	require.Error(t, err)
	_, err = mgr.AdvanceDate(30)
	require.Error(t, err)
	_, err = mgr.AddPatron("p3", "Waldo")
	require.Error(t, err)

	status := mgr.Status()
	assert.Zero(t, status.Date)
	assert.Len(t, status.Patrons, 2)
	m1, ok := mgr.GetItem("m1")
	require.True(t, ok)
	assert.Equal(t, OnShelf, m1.Location)
	p1, ok := mgr.GetPatron("p1")
	require.True(t, ok)
	assert.Empty(t, p1.Items)
}
