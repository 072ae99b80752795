package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"circulation-desk/config"
	"circulation-desk/library"
	"circulation-desk/logger"
	"circulation-desk/server"
)

var (
	dbFlag       string
	logLevelFlag string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "librarydesk",
		Short:         "Circulation desk for books, albums and movies",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database file (default $LIBRARY_DB_FILE or library.db)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (default $LOG_LEVEL or info)")

	root.AddCommand(
		addItemCmd(),
		addPatronCmd(),
		setPINCmd(),
		checkoutCmd(),
		returnCmd(),
		requestCmd(),
		payCmd(),
		advanceCmd(),
		statusCmd(),
		historyCmd(),
		seedCmd(),
		serveCmd(),
		shellCmd(),
	)
	return root
}

// openDesk loads configuration, applies the global flags and any command
// options, and opens the library database.
func openDesk(extra ...config.Option) (*library.LibraryManager, config.Config, *zap.Logger, error) {
	var ops []config.Option
	if dbFlag != "" {
		ops = append(ops, config.WithDBFile(dbFlag))
	}
	if logLevelFlag != "" {
		level, err := zapcore.ParseLevel(logLevelFlag)
		if err != nil {
			return nil, config.Config{}, nil, errors.Wrap(err, "log level")
		}
		ops = append(ops, config.WithLogLevel(level))
	}
	cfg, err := config.Load(append(ops, extra...)...)
	if err != nil {
		return nil, cfg, nil, err
	}

	log := logger.NewLogger(cfg.Log, "librarydesk")
	mgr, err := library.NewLibraryManager(cfg.DBFile, log)
	if err != nil {
		return nil, cfg, log, errors.Wrapf(err, "open %s", cfg.DBFile)
	}
	return mgr, cfg, log, nil
}

// withDesk runs fn against an opened desk and closes it afterwards.
func withDesk(fn func(mgr *library.LibraryManager) error) error {
	mgr, _, log, err := openDesk()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	defer mgr.Close()
	return fn(mgr)
}

// ------------------ Registry commands ------------------

func addItemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-item KIND ID TITLE CREATOR",
		Short: "Register a book, album or movie",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := library.ParseKind(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			return withDesk(func(mgr *library.LibraryManager) error {
				item, err := mgr.AddItem(kind, args[1], args[2], args[3])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s '%s' (loan period %d days)\n",
					item.Kind, item.ID, item.Title, item.LoanPeriod)
				return nil
			})
		},
	}
}

func addPatronCmd() *cobra.Command {
	var withPIN bool
	cmd := &cobra.Command{
		Use:   "add-patron ID NAME",
		Short: "Register a patron",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				patron, err := mgr.AddPatron(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added patron '%s' with ID %s\n", patron.Name, patron.ID)
				if withPIN {
					return promptAndSetPIN(cmd, mgr, patron.ID, patron.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withPIN, "pin", false, "prompt for a desk PIN")
	return cmd
}

func setPINCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-pin PATRON",
		Short: "Set or reset a patron's desk PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				patron, ok := mgr.GetPatron(args[0])
				if !ok {
					return errors.Wrapf(library.ErrUnknownPatron, "%s", args[0])
				}
				return promptAndSetPIN(cmd, mgr, patron.ID, patron.Name)
			})
		},
	}
}

func promptAndSetPIN(cmd *cobra.Command, mgr *library.LibraryManager, id, name string) error {
	pin, err := readPIN(cmd, fmt.Sprintf("Enter PIN for %s: ", name))
	if err != nil {
		return err
	}
	if err := mgr.SetPIN(id, pin); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PIN set for %s (ID: %s)\n", name, id)
	return nil
}

// ------------------ Circulation commands ------------------

func checkoutCmd() *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "checkout PATRON ITEM",
		Short: "Check an item out to a patron",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				if err := authenticate(cmd, mgr, args[0], pin); err != nil {
					return err
				}
				out, err := mgr.CheckOut(args[0], args[1])
				return printOutcome(cmd, out, err)
			})
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "patron PIN (prompted when required and omitted)")
	return cmd
}

func returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return ITEM",
		Short: "Return an item to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				out, err := mgr.Return(args[0])
				return printOutcome(cmd, out, err)
			})
		},
	}
}

func requestCmd() *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "request PATRON ITEM",
		Short: "Place a hold on an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				if err := authenticate(cmd, mgr, args[0], pin); err != nil {
					return err
				}
				out, err := mgr.Request(args[0], args[1])
				return printOutcome(cmd, out, err)
			})
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "patron PIN (prompted when required and omitted)")
	return cmd
}

func payCmd() *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "pay PATRON AMOUNT",
		Short: "Pay towards a patron's fines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := library.ParseMoney(args[1])
			if err != nil {
				return err
			}
			return withDesk(func(mgr *library.LibraryManager) error {
				if err := authenticate(cmd, mgr, args[0], pin); err != nil {
					return err
				}
				out, err := mgr.PayFine(args[0], amount)
				if err := printOutcome(cmd, out, err); err != nil {
					return err
				}
				if p, ok := mgr.GetPatron(args[0]); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Balance for %s: %s\n", p.Name, p.Fine)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "patron PIN (prompted when required and omitted)")
	return cmd
}

func advanceCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the library date and charge overdue fines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				date, err := mgr.AdvanceDate(days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Library date is now day %d\n", date)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to advance")
	return cmd
}

// ------------------ Reporting commands ------------------

func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show items, patrons and the current date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				status := mgr.Status()
				if asJSON {
					enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(status)
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent circulation activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				events, err := mgr.History(limit)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show (0 for all)")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Register the demo items and patrons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDesk(func(mgr *library.LibraryManager) error {
				rep, err := mgr.Import(library.DemoCatalog())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records, skipped %d already present\n", rep.Added, len(rep.Skipped))
				return nil
			})
		},
	}
}

// ------------------ Server ------------------

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the circulation desk over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ops []config.Option
			if port != "" {
				ops = append(ops, config.WithHTTPPort(port))
			}
			mgr, cfg, log, err := openDesk(ops...)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			defer mgr.Close()

			h := server.New(mgr, cfg.Server.RPS, log)
			srv := server.NewServer(cfg.Server.Host, cfg.Server.Port, h.NewRouter())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("http server start ON: ", zap.String("addr", srv.Addr()))
				return srv.Run()
			})
			g.Go(func() error {
				<-ctx.Done()
				log.Debug("Graceful shutdown")
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Stop(closeCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			log.Info("Graceful shutdown finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $LIBRARY_HTTP_PORT or 8080)")
	return cmd
}

// ------------------ Helpers ------------------

// authenticate asks for the patron's PIN when one is set and none was given.
func authenticate(cmd *cobra.Command, mgr *library.LibraryManager, patronID, pin string) error {
	if !mgr.RequiresPIN(patronID) {
		return nil
	}
	if pin == "" {
		var err error
		if pin, err = readPIN(cmd, "Enter your PIN: "); err != nil {
			return err
		}
	}
	if err := mgr.Authenticate(patronID, pin); err != nil {
		return errors.Wrap(err, "authentication failed")
	}
	return nil
}

// readPIN reads a PIN without echo on a terminal, or a plain line otherwise.
func readPIN(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pin, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", errors.Wrap(err, "read PIN")
		}
		return strings.TrimSpace(string(pin)), nil
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		return "", errors.New("no PIN given")
	}
	return strings.TrimSpace(sc.Text()), nil
}

func printOutcome(cmd *cobra.Command, out library.Outcome, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
