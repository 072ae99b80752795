package library

import (
	"sort"

	"go.uber.org/zap"
)

// Outcome is the result of a circulation operation. Unknown identifiers and
// conflicting requests are ordinary outcomes, not errors.
type Outcome int

const (
	PatronNotFound Outcome = iota + 1
	ItemNotFound
	HeldByOtherPatron
	AlreadyCheckedOut
	CheckOutSuccessful
	AlreadyInLibrary
	ReturnSuccessful
	AlreadyOnHold
	RequestSuccessful
	PaymentSuccessful
)

var outcomeText = map[Outcome]string{
	PatronNotFound:     "patron not found",
	ItemNotFound:       "item not found",
	HeldByOtherPatron:  "item on hold by other patron",
	AlreadyCheckedOut:  "item already checked out",
	CheckOutSuccessful: "check out successful",
	AlreadyInLibrary:   "item already in library",
	ReturnSuccessful:   "return successful",
	AlreadyOnHold:      "item already on hold",
	RequestSuccessful:  "request successful",
	PaymentSuccessful:  "payment successful",
}

func (o Outcome) String() string {
	if s, ok := outcomeText[o]; ok {
		return s
	}
	return "unknown outcome"
}

// Success reports whether the operation changed library state.
func (o Outcome) Success() bool {
	switch o {
	case CheckOutSuccessful, ReturnSuccessful, RequestSuccessful, PaymentSuccessful:
		return true
	}
	return false
}

// MarshalText lets outcomes serialize as their desk message.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Library holds the item and patron registries and the current day.
// It is not safe for concurrent use; LibraryManager serializes access.
type Library struct {
	items   map[string]*Item
	patrons map[string]*Patron
	date    int

	log *zap.Logger
}

// NewLibrary returns an empty library on day 0.
func NewLibrary() *Library {
	return &Library{
		items:   make(map[string]*Item),
		patrons: make(map[string]*Patron),
		log:     zap.NewNop(),
	}
}

// SetLogger sets where inconsistencies found during circulation are reported.
func (l *Library) SetLogger(log *zap.Logger) { l.log = log }

// clone returns a deep copy of the library with all cross references
// pointing into the copy.
func (l *Library) clone() *Library {
	c := NewLibrary()
	c.date = l.date
	c.log = l.log
	for id, p := range l.patrons {
		cp := *p
		cp.Items = make([]*Item, 0, len(p.Items))
		c.patrons[id] = &cp
	}
	for id, it := range l.items {
		ci := *it
		if it.Holder != nil {
			ci.Holder = c.patrons[it.Holder.ID]
		}
		if it.Requester != nil {
			ci.Requester = c.patrons[it.Requester.ID]
		}
		c.items[id] = &ci
	}
	for id, p := range l.patrons {
		cp := c.patrons[id]
		for _, it := range p.Items {
			cp.Items = append(cp.Items, c.items[it.ID])
		}
	}
	return c
}

// ------------------ Registry ------------------

// AddItem registers item, replacing any item with the same ID.
func (l *Library) AddItem(item *Item) { l.items[item.ID] = item }

// AddPatron registers patron, replacing any patron with the same ID.
func (l *Library) AddPatron(patron *Patron) { l.patrons[patron.ID] = patron }

// LookupItem returns the item with id, or nil.
func (l *Library) LookupItem(id string) *Item { return l.items[id] }

// LookupPatron returns the patron with id, or nil.
func (l *Library) LookupPatron(id string) *Patron { return l.patrons[id] }

func (l *Library) CurrentDate() int { return l.date }

// Items returns every registered item ordered by ID.
func (l *Library) Items() []*Item {
	out := make([]*Item, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Patrons returns every registered patron ordered by ID.
func (l *Library) Patrons() []*Patron {
	out := make([]*Patron, 0, len(l.patrons))
	for _, p := range l.patrons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ------------------ Circulation ------------------

// CheckOut lends itemID to patronID. An item on the hold shelf can only be
// checked out by its requester, which fulfils the hold.
func (l *Library) CheckOut(patronID, itemID string) Outcome {
	patron, ok := l.patrons[patronID]
	if !ok {
		return PatronNotFound
	}
	item, ok := l.items[itemID]
	if !ok {
		return ItemNotFound
	}

	if item.Location == OnHoldShelf && item.Requester != patron {
		return HeldByOtherPatron
	}
	if item.Location == CheckedOut {
		return AlreadyCheckedOut
	}

	item.Holder = patron
	item.CheckoutDate = l.date
	item.Stamped = true
	item.Location = CheckedOut
	if item.Requester == patron {
		item.Requester = nil
	}
	patron.AddItem(item)

	return CheckOutSuccessful
}

// Return takes itemID back from its holder. The item goes to the hold shelf
// when someone is waiting for it. The holder reference is cleared.
func (l *Library) Return(itemID string) Outcome {
	item, ok := l.items[itemID]
	if !ok {
		return ItemNotFound
	}
	if item.Location != CheckedOut {
		return AlreadyInLibrary
	}

	if item.Holder != nil {
		// The holder always lists the item while it is checked out.
		if err := item.Holder.RemoveItem(item); err != nil {
			l.log.Error("returned item missing from holder", zap.Error(err))
		}
	}
	item.Holder = nil

	if item.Requester == nil {
		item.Location = OnShelf
	} else {
		item.Location = OnHoldShelf
	}

	return ReturnSuccessful
}

// Request places a hold for patronID. Only one hold per item is allowed.
// A checked out item keeps its location until it is returned.
func (l *Library) Request(patronID, itemID string) Outcome {
	patron, ok := l.patrons[patronID]
	if !ok {
		return PatronNotFound
	}
	item, ok := l.items[itemID]
	if !ok {
		return ItemNotFound
	}

	if item.Requester != nil {
		return AlreadyOnHold
	}

	item.Requester = patron
	if item.Location == OnShelf {
		item.Location = OnHoldShelf
	}

	return RequestSuccessful
}

// PayFine reduces the patron's balance by |amount|, whatever its sign.
func (l *Library) PayFine(patronID string, amount Money) Outcome {
	patron, ok := l.patrons[patronID]
	if !ok {
		return PatronNotFound
	}
	patron.AmendFine(-amount.Abs())
	return PaymentSuccessful
}

// AdvanceDate moves the library one day forward and charges OverdueFine
// for every held item that is now past its loan period.
func (l *Library) AdvanceDate() {
	l.date++
	for _, patron := range l.patrons {
		for _, item := range patron.Items {
			elapsed := l.date - item.CheckoutDate
			if elapsed > 0 && elapsed-item.LoanPeriod > 0 {
				patron.AmendFine(OverdueFine)
			}
		}
	}
}

// Overdue returns the items patron holds past their loan period, in
// checkout order.
func (l *Library) Overdue(patron *Patron) []*Item {
	var out []*Item
	for _, item := range patron.Items {
		if l.date-item.CheckoutDate > item.LoanPeriod {
			out = append(out, item)
		}
	}
	return out
}
