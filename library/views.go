package library

// ItemView is a detached copy of an item's state for display and JSON.
type ItemView struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Kind         Kind     `json:"kind"`
	Creator      string   `json:"creator"`
	LoanPeriod   int      `json:"loan_period"`
	Location     Location `json:"location"`
	HolderID     string   `json:"holder_id,omitempty"`
	RequesterID  string   `json:"requester_id,omitempty"`
	CheckoutDate *int     `json:"checkout_date,omitempty"`
	DueDate      *int     `json:"due_date,omitempty"`
	Overdue      bool     `json:"overdue"`
}

// PatronView is a detached copy of a patron's state.
type PatronView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FineCents Money    `json:"fine_cents"`
	Fine      string   `json:"fine"`
	Items     []string `json:"items"`
	Overdue   []string `json:"overdue"`
	HasPIN    bool     `json:"has_pin"`
}

// Snapshot is the whole library as seen at one moment.
type Snapshot struct {
	Date    int          `json:"date"`
	Items   []ItemView   `json:"items"`
	Patrons []PatronView `json:"patrons"`
}

func viewItem(lib *Library, it *Item) ItemView {
	v := ItemView{
		ID:         it.ID,
		Title:      it.Title,
		Kind:       it.Kind,
		Creator:    it.Creator,
		LoanPeriod: it.LoanPeriod,
		Location:   it.Location,
	}
	if it.Holder != nil {
		v.HolderID = it.Holder.ID
	}
	if it.Requester != nil {
		v.RequesterID = it.Requester.ID
	}
	if it.Location == CheckedOut && it.Stamped {
		checkout, due := it.CheckoutDate, it.CheckoutDate+it.LoanPeriod
		v.CheckoutDate, v.DueDate = &checkout, &due
		v.Overdue = lib.CurrentDate() > due
	}
	return v
}

func viewPatron(lib *Library, p *Patron) PatronView {
	v := PatronView{
		ID:        p.ID,
		Name:      p.Name,
		FineCents: p.Fine,
		Fine:      p.Fine.String(),
		Items:     make([]string, 0, len(p.Items)),
		Overdue:   []string{},
		HasPIN:    p.PINHash != "",
	}
	for _, it := range p.Items {
		v.Items = append(v.Items, it.ID)
	}
	for _, it := range lib.Overdue(p) {
		v.Overdue = append(v.Overdue, it.ID)
	}
	return v
}

func snapshot(lib *Library) Snapshot {
	s := Snapshot{Date: lib.CurrentDate()}
	for _, it := range lib.Items() {
		s.Items = append(s.Items, viewItem(lib, it))
	}
	for _, p := range lib.Patrons() {
		s.Patrons = append(s.Patrons, viewPatron(lib, p))
	}
	return s
}
