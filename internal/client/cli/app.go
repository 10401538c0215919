// Package cli wires the client together: configuration, local mirror, REST
// client, connectivity watcher and sync engines, plus a small interactive
// shell for day-to-day operations.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ortofresco/gestionale/internal/client/api"
	"github.com/ortofresco/gestionale/internal/client/config"
	"github.com/ortofresco/gestionale/internal/client/connectivity"
	"github.com/ortofresco/gestionale/internal/client/models"
	"github.com/ortofresco/gestionale/internal/client/repositories/bolle"
	"github.com/ortofresco/gestionale/internal/client/repositories/clienti"
	"github.com/ortofresco/gestionale/internal/client/repositories/imballaggi"
	"github.com/ortofresco/gestionale/internal/client/repositories/metadata"
	"github.com/ortofresco/gestionale/internal/client/repositories/prodotti"
	"github.com/ortofresco/gestionale/internal/client/repositories/tombstones"
	"github.com/ortofresco/gestionale/internal/client/services"
	syncx "github.com/ortofresco/gestionale/internal/client/sync"
	"github.com/ortofresco/gestionale/internal/client/store"
	"github.com/ortofresco/gestionale/internal/dbx"
	"github.com/ortofresco/gestionale/internal/logging"
)

// engine is one per-kind sync engine with its metadata key.
type engine struct {
	kind string
	run  func(ctx context.Context) error
}

// App is the assembled client.
type App struct {
	cfg      *config.Config
	logger   logging.Logger
	db       *sql.DB
	client   *api.Client
	observer *connectivity.Observer
	meta     *metadata.SQLiteRepository
	engines  []engine

	clienti    *services.Service[models.Cliente, models.ClienteDTO]
	prodotti   *services.Service[models.Prodotto, models.ProdottoDTO]
	imballaggi *services.Service[models.Imballaggio, models.ImballaggioDTO]
	bolle      *services.BolleService
}

// New builds the full application graph.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	meta := metadata.NewSQLiteRepository(db)
	clientID, err := ensureClientID(ctx, meta)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := api.New(cfg.APIBaseURL, logger,
		api.WithToken(cfg.BearerToken),
		api.WithClientID(clientID),
	)
	client.WarnIfExpiring(ctx, 24*time.Hour)

	observer := connectivity.NewObserver(logger)

	app := &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		client:   client,
		observer: observer,
		meta:     meta,
	}
	app.buildServices()
	app.buildEngines()
	return app, nil
}

// ensureClientID loads the per-install id, generating one on first run. The
// server uses it to attribute offline batches to a machine.
func ensureClientID(ctx context.Context, meta *metadata.SQLiteRepository) (string, error) {
	v, err := meta.Get(ctx, metadata.KeyClientID)
	if err == nil {
		return string(v), nil
	}
	if !errors.Is(err, metadata.ErrNotFound) {
		return "", err
	}

	id := uuid.NewString()
	if err := meta.Set(ctx, metadata.KeyClientID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) buildServices() {
	clientiTomb := tombstones.NewSQLiteRepository(a.db, tombstones.TableClienti)
	prodottiTomb := tombstones.NewSQLiteRepository(a.db, tombstones.TableProdotti)
	imballaggiTomb := tombstones.NewSQLiteRepository(a.db, tombstones.TableImballaggi)
	bolleTomb := tombstones.NewSQLiteRepository(a.db, tombstones.TableBolle)

	a.clienti = services.New(services.Config[models.Cliente, models.ClienteDTO]{
		Kind: "clienti",
		DB:   a.db,
		NewStore: func(d dbx.DBTX) services.Store[models.Cliente] {
			return clienti.NewSQLiteRepository(d)
		},
		Tombstones: clientiTomb,
		Remote:     api.NewResource[models.Cliente, models.ClienteDTO](a.client, "clienti"),
		Observer:   a.observer,
		Payload:    models.Cliente.DTO,
		ID:         func(c models.Cliente) int64 { return c.ID },
		Logger:     a.logger,
	})

	a.prodotti = services.New(services.Config[models.Prodotto, models.ProdottoDTO]{
		Kind: "prodotti",
		DB:   a.db,
		NewStore: func(d dbx.DBTX) services.Store[models.Prodotto] {
			return prodotti.NewSQLiteRepository(d)
		},
		Tombstones: prodottiTomb,
		Remote:     api.NewResource[models.Prodotto, models.ProdottoDTO](a.client, "prodotti"),
		Observer:   a.observer,
		Payload:    models.Prodotto.DTO,
		ID:         func(p models.Prodotto) int64 { return p.ID },
		Logger:     a.logger,
	})

	a.imballaggi = services.New(services.Config[models.Imballaggio, models.ImballaggioDTO]{
		Kind: "imballaggi",
		DB:   a.db,
		NewStore: func(d dbx.DBTX) services.Store[models.Imballaggio] {
			return imballaggi.NewSQLiteRepository(d)
		},
		Tombstones: imballaggiTomb,
		Remote:     api.NewResource[models.Imballaggio, models.ImballaggioDTO](a.client, "imballaggi"),
		Observer:   a.observer,
		Payload:    models.Imballaggio.DTO,
		ID:         func(i models.Imballaggio) int64 { return i.ID },
		Logger:     a.logger,
	})

	a.bolle = services.NewBolle(services.BolleConfig{
		DB:       a.db,
		NewRepo:  func(d dbx.DBTX) bolle.Repository { return bolle.NewSQLiteRepository(d) },
		Tomb:     bolleTomb,
		Remote:   api.NewResource[models.Bolla, models.BollaDTO](a.client, "bolle"),
		Sender:   a.client,
		Observer: a.observer,
		Logger:   a.logger,
	})
}

func (a *App) buildEngines() {
	policy := syncx.ClearAlways
	if a.cfg.TombstonePolicy == config.PolicyRetryFailed {
		policy = syncx.RetryFailed
	}

	a.addEngine("clienti", syncx.New(syncx.Config[models.Cliente, models.ClienteDTO]{
		Kind:         "clienti",
		Online:       a.observer.Online,
		Local:        clienti.NewSQLiteRepository(a.db),
		Tombstones:   tombstones.NewSQLiteRepository(a.db, tombstones.TableClienti),
		Remote:       api.NewResource[models.Cliente, models.ClienteDTO](a.client, "clienti"),
		Payload:      models.Cliente.DTO,
		ID:           func(c models.Cliente) int64 { return c.ID },
		DeletePolicy: policy,
		Logger:       a.logger,
	}))
	a.addEngine("prodotti", syncx.New(syncx.Config[models.Prodotto, models.ProdottoDTO]{
		Kind:         "prodotti",
		Online:       a.observer.Online,
		Local:        prodotti.NewSQLiteRepository(a.db),
		Tombstones:   tombstones.NewSQLiteRepository(a.db, tombstones.TableProdotti),
		Remote:       api.NewResource[models.Prodotto, models.ProdottoDTO](a.client, "prodotti"),
		Payload:      models.Prodotto.DTO,
		ID:           func(p models.Prodotto) int64 { return p.ID },
		DeletePolicy: policy,
		Logger:       a.logger,
	}))
	a.addEngine("imballaggi", syncx.New(syncx.Config[models.Imballaggio, models.ImballaggioDTO]{
		Kind:         "imballaggi",
		Online:       a.observer.Online,
		Local:        imballaggi.NewSQLiteRepository(a.db),
		Tombstones:   tombstones.NewSQLiteRepository(a.db, tombstones.TableImballaggi),
		Remote:       api.NewResource[models.Imballaggio, models.ImballaggioDTO](a.client, "imballaggi"),
		Payload:      models.Imballaggio.DTO,
		ID:           func(i models.Imballaggio) int64 { return i.ID },
		DeletePolicy: policy,
		Logger:       a.logger,
	}))
	a.addEngine("bolle", syncx.New(syncx.Config[models.Bolla, models.BollaDTO]{
		Kind:         "bolle",
		Online:       a.observer.Online,
		Local:        bolle.NewSQLiteRepository(a.db),
		Tombstones:   tombstones.NewSQLiteRepository(a.db, tombstones.TableBolle),
		Remote:       api.NewResource[models.Bolla, models.BollaDTO](a.client, "bolle"),
		Payload:      models.Bolla.DTO,
		ID:           func(b models.Bolla) int64 { return b.ID },
		DeletePolicy: policy,
		Logger:       a.logger,
	}))
}

func (a *App) addEngine(kind string, e interface {
	Run(ctx context.Context) error
}) {
	a.engines = append(a.engines, engine{kind: kind, run: e.Run})
}

// SyncAll runs one pass per kind and records the pull timestamp of each
// successful pass. A failing kind does not block the others.
func (a *App) SyncAll(ctx context.Context) {
	for _, e := range a.engines {
		if err := e.run(ctx); err != nil {
			a.logger.Warn(ctx, "sync pass failed", "kind", e.kind, "error", err)
			continue
		}
		ts := time.Now().UTC().Format(time.RFC3339)
		if err := a.meta.Set(ctx, metadata.KeyLastPull+":"+e.kind, []byte(ts)); err != nil {
			a.logger.Warn(ctx, "recording last pull failed", "kind", e.kind, "error", err)
		}
	}
}

// Run starts the watcher, performs the initial sync when reachable, and
// serves the interactive shell until ctx is cancelled or stdin closes.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	a.observer.Subscribe(func(ctx context.Context) {
		a.SyncAll(ctx)
	})
	go a.observer.Watch(ctx, a.client, a.cfg.OnlineCheckInterval)

	// the first successful ping flips the observer online and triggers the
	// startup sync through the subscription above
	a.observer.SetOnline(ctx, a.client.Ping(ctx) == nil)

	return a.shell(ctx, os.Stdin, os.Stdout)
}

func (a *App) shell(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, `gestionale - "help" for commands`)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "exit" || fields[0] == "quit" {
			return nil
		}
		if err := a.dispatch(ctx, out, fields); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func (a *App) dispatch(ctx context.Context, out io.Writer, fields []string) error {
	switch fields[0] {
	case "help":
		fmt.Fprintln(out, `commands:
  status                         connectivity and pending work
  sync                           run a full sync pass now
  clienti|prodotti|imballaggi    list records
  add clienti <ragione sociale>  create a customer
  add prodotti <nome>            create a product
  add imballaggi <tara> <nome>   create a packaging unit
  bolle                          list delivery notes
  bolle nuova <destinatario>     create a delivery note
  bolle generica <destinatario>  create a free-recipient note
  bolle bis <id>                 duplicate a delivery note
  bolle email <id>               email a delivery note
  delete <kind> <id>             delete a record
  exit`)
		return nil

	case "status":
		fmt.Fprintf(out, "online: %v\n", a.observer.Online())
		for _, e := range a.engines {
			ts, err := a.meta.Get(ctx, metadata.KeyLastPull+":"+e.kind)
			if errors.Is(err, metadata.ErrNotFound) {
				fmt.Fprintf(out, "%s: never pulled\n", e.kind)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: last pull %s\n", e.kind, ts)
		}
		return nil

	case "sync":
		a.SyncAll(ctx)
		fmt.Fprintln(out, "done")
		return nil

	case "clienti":
		list, err := a.clienti.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, c := range list {
			fmt.Fprintf(out, "%d\t%s\t%s%s\n", c.ID, c.RagioneSociale, c.Citta, syncedMark(c.Synced))
		}
		return nil

	case "prodotti":
		list, err := a.prodotti.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Fprintf(out, "%d\t%s%s\n", p.ID, p.Nome, syncedMark(p.Synced))
		}
		return nil

	case "imballaggi":
		list, err := a.imballaggi.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, i := range list {
			fmt.Fprintf(out, "%d\t%s\ttara %s%s\n", i.ID, i.Nome, i.Tara, syncedMark(i.Synced))
		}
		return nil

	case "add":
		return a.dispatchAdd(ctx, out, fields[1:])

	case "bolle":
		return a.dispatchBolle(ctx, out, fields[1:])

	case "delete":
		if len(fields) != 3 {
			return fmt.Errorf("usage: delete <kind> <id>")
		}
		id, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", fields[2])
		}
		switch fields[1] {
		case "clienti":
			return a.clienti.Delete(ctx, id)
		case "prodotti":
			return a.prodotti.Delete(ctx, id)
		case "imballaggi":
			return a.imballaggi.Delete(ctx, id)
		case "bolle":
			return a.bolle.Delete(ctx, id)
		default:
			return fmt.Errorf("unknown kind %q", fields[1])
		}

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func (a *App) dispatchAdd(ctx context.Context, out io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: add <kind> <fields...>")
	}

	switch args[0] {
	case "clienti":
		c := &models.Cliente{RagioneSociale: strings.Join(args[1:], " ")}
		outcome, err := a.clienti.Save(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cliente %d %s\n", c.ID, outcomeMsg(outcome))
		return nil

	case "prodotti":
		p := &models.Prodotto{Nome: strings.Join(args[1:], " ")}
		outcome, err := a.prodotti.Save(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "prodotto %d %s\n", p.ID, outcomeMsg(outcome))
		return nil

	case "imballaggi":
		if len(args) < 3 {
			return fmt.Errorf("usage: add imballaggi <tara> <nome>")
		}
		tara, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid tara %q", args[1])
		}
		i := &models.Imballaggio{Nome: strings.Join(args[2:], " "), Tara: tara}
		outcome, err := a.imballaggi.Save(ctx, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imballaggio %d %s\n", i.ID, outcomeMsg(outcome))
		return nil

	default:
		return fmt.Errorf("unknown kind %q", args[0])
	}
}

func (a *App) dispatchBolle(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		list, err := a.bolle.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, b := range list {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s%s\n",
				b.ID, b.Numero, b.Data.Format("2006-01-02"), b.Destinatario, syncedMark(b.Synced))
		}
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: bolle [nuova|generica|bis|email] <args>")
	}

	switch args[0] {
	case "nuova":
		b := &models.Bolla{Destinatario: strings.Join(args[1:], " ")}
		outcome, err := a.bolle.Create(ctx, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bolla %d numero %s %s\n", b.ID, b.Numero, outcomeMsg(outcome))
		return nil
	case "generica":
		b := &models.Bolla{Destinatario: strings.Join(args[1:], " ")}
		outcome, err := a.bolle.NewGenerica(ctx, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bolla %d numero %s %s\n", b.ID, b.Numero, outcomeMsg(outcome))
		return nil
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}
	switch args[0] {
	case "bis":
		dup, outcome, err := a.bolle.Duplicate(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bolla %d numero %s %s\n", dup.ID, dup.Numero, outcomeMsg(outcome))
		return nil
	case "email":
		return a.bolle.SendEmail(ctx, id)
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func syncedMark(synced bool) string {
	if synced {
		return ""
	}
	return "\t(da sincronizzare)"
}

// outcomeMsg renders the save outcome so the user can tell a confirmed save
// from one queued for the next reconnect.
func outcomeMsg(o services.SaveOutcome) string {
	if o == services.SavedOnline {
		return "saved online"
	}
	return "saved offline, will sync on reconnect"
}
