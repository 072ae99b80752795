package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"circulation-desk/library"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive circulation desk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				d := &desk{
					cmd: cmd,
					mgr: mgr,
					sc:  bufio.NewScanner(cmd.InOrStdin()),
					out: cmd.OutOrStdout(),
				}
				d.run()
				return nil
			})
		},
	}
}

// desk is one interactive session at the circulation desk.
type desk struct {
	cmd *cobra.Command
	mgr *library.LibraryManager
	sc  *bufio.Scanner
	out io.Writer
}

func (d *desk) run() {
	fmt.Fprintln(d.out, "Welcome to the Circulation Desk!")
	fmt.Fprintln(d.out, "Available commands:")
	fmt.Fprintln(d.out, "  Collection: add item, add patron, status")
	fmt.Fprintln(d.out, "  Circulation: checkout, return, request, pay")
	fmt.Fprintln(d.out, "  Calendar: advance")
	fmt.Fprintln(d.out, "  System: history, exit")

	for {
		fmt.Fprint(d.out, "\n> ")
		if !d.sc.Scan() {
			break
		}

		switch strings.TrimSpace(d.sc.Text()) {
		case "add item":
			d.addItem()
		case "add patron":
			d.addPatron()
		case "status":
			printStatus(d.out, d.mgr.Status())
		case "checkout":
			d.checkout()
		case "return":
			d.returnItem()
		case "request":
			d.request()
		case "pay":
			d.pay()
		case "advance":
			d.advance()
		case "history":
			d.history()
		case "":
		case "exit":
			fmt.Fprintln(d.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(d.out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

// ask prints prompt and returns the trimmed answer; ok is false at EOF.
func (d *desk) ask(prompt string) (string, bool) {
	fmt.Fprint(d.out, prompt)
	if !d.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(d.sc.Text()), true
}

func (d *desk) addItem() {
	kindStr, ok := d.ask("Kind (book/album/movie): ")
	if !ok {
		return
	}
	kind, err := library.ParseKind(strings.ToLower(kindStr))
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	id, ok := d.ask("Item ID: ")
	if !ok {
		return
	}
	title, ok := d.ask("Title: ")
	if !ok {
		return
	}
	creator, ok := d.ask(fmt.Sprintf("Creator (%s): ", kind.CreatorRole()))
	if !ok {
		return
	}

	item, err := d.mgr.AddItem(kind, id, title, creator)
	if err != nil {
		fmt.Fprintf(d.out, "Error adding item: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Added %s '%s' with ID %s\n", item.Kind, item.Title, item.ID)
}

func (d *desk) addPatron() {
	id, ok := d.ask("Patron ID: ")
	if !ok {
		return
	}
	name, ok := d.ask("Name: ")
	if !ok {
		return
	}
	patron, err := d.mgr.AddPatron(id, name)
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Added patron '%s' with ID %s\n", patron.Name, patron.ID)
}

// authenticate asks for the PIN of patrons that have one.
func (d *desk) authenticate(patronID string) bool {
	if !d.mgr.RequiresPIN(patronID) {
		return true
	}
	var (
		pin string
		err error
	)
	// Off a terminal the PIN is the next line of the session's input.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pin, err = readPIN(d.cmd, "Enter your PIN: ")
	} else if answer, ok := d.ask("Enter your PIN: "); ok {
		pin = answer
	} else {
		err = errors.New("no PIN given")
	}
	if err == nil {
		err = d.mgr.Authenticate(patronID, pin)
	}
	if err != nil {
		fmt.Fprintf(d.out, "Authentication failed: %v\n", err)
		return false
	}
	return true
}

func (d *desk) checkout() {
	patronID, ok := d.ask("Patron ID: ")
	if !ok {
		return
	}
	itemID, ok := d.ask("Item ID: ")
	if !ok || !d.authenticate(patronID) {
		return
	}
	d.report(d.mgr.CheckOut(patronID, itemID))
}

func (d *desk) returnItem() {
	itemID, ok := d.ask("Item ID: ")
	if !ok {
		return
	}
	out, err := d.mgr.Return(itemID)
	d.report(out, err)
	if out == library.ReturnSuccessful {
		if item, ok := d.mgr.GetItem(itemID); ok && item.Location == library.OnHoldShelf {
			fmt.Fprintf(d.out, "Item '%s' goes to the hold shelf for patron %s\n", item.Title, item.RequesterID)
		}
	}
}

func (d *desk) request() {
	patronID, ok := d.ask("Patron ID: ")
	if !ok {
		return
	}
	itemID, ok := d.ask("Item ID: ")
	if !ok || !d.authenticate(patronID) {
		return
	}
	d.report(d.mgr.Request(patronID, itemID))
}

func (d *desk) pay() {
	patronID, ok := d.ask("Patron ID: ")
	if !ok {
		return
	}
	amountStr, ok := d.ask("Amount: ")
	if !ok {
		return
	}
	amount, err := library.ParseMoney(amountStr)
	if err != nil {
		fmt.Fprintf(d.out, "Invalid amount: %s\n", amountStr)
		return
	}
	if !d.authenticate(patronID) {
		return
	}
	out, err := d.mgr.PayFine(patronID, amount)
	d.report(out, err)
	if p, ok := d.mgr.GetPatron(patronID); ok && out == library.PaymentSuccessful {
		fmt.Fprintf(d.out, "Balance for %s: %s\n", p.Name, p.Fine)
	}
}

func (d *desk) advance() {
	daysStr, ok := d.ask("Days to advance (Enter for 1): ")
	if !ok {
		return
	}
	days := 1
	if daysStr != "" {
		n, err := strconv.Atoi(daysStr)
		if err != nil || n < 1 {
			fmt.Fprintf(d.out, "Invalid number of days: %s\n", daysStr)
			return
		}
		days = n
	}
	date, err := d.mgr.AdvanceDate(days)
	if err != nil {
		fmt.Fprintf(d.out, "Error advancing date: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Library date is now day %d\n", date)
}

func (d *desk) history() {
	events, err := d.mgr.History(20)
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	printHistory(d.out, events)
}

func (d *desk) report(out library.Outcome, err error) {
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(d.out, out)
}
