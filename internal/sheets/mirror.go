package sheets

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/inovacc/finzana/internal/model"
	"github.com/tidwall/btree"
)

// Names are the sheet names of the spreadsheet.
type Names struct {
	Clients  string `ini:"clients"`
	Credits  string `ini:"credits"`
	Payments string `ini:"payments"`
	Lookup   string `ini:"lookup"`
}

// DefaultNames returns the sheet names of the production spreadsheet.
func DefaultNames() Names {
	return Names{
		Clients:  "Clientes",
		Credits:  "Colocacion",
		Payments: "Cobranza",
		Lookup:   "Tablas",
	}
}

// All returns the names in fetch order.
func (n Names) All() []string {
	return []string{n.Clients, n.Credits, n.Payments, n.Lookup}
}

// Source returns the raw CSV body of a sheet.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SheetResult is the outcome of fetching one sheet.
type SheetResult struct {
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"`
	Unchanged bool   `json:"unchanged"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// Summary aggregates a FetchAll run.
type Summary struct {
	Sheets    []SheetResult `json:"sheets"`
	Failed    int           `json:"failed"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// OK reports whether every sheet was fetched.
func (s Summary) OK() bool {
	return s.Failed == 0
}

type slot struct {
	rows        []Row
	fingerprint uint64
	fetchedAt   time.Time
	err         error
}

// Mirror is an in-memory copy of the spreadsheet. Each sheet slot is
// replaced whole when its fetch completes; a failed fetch leaves the slot
// empty.
type Mirror struct {
	source Source
	names  Names
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	slots    map[string]slot
	clients  *btree.Map[string, model.Client]
	credits  []model.Credit
	payments []model.Payment
	config   model.Config
	hasConf  bool
	last     Summary
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithMirrorLogger sets the logger.
func WithMirrorLogger(l *slog.Logger) MirrorOption {
	return func(m *Mirror) { m.logger = l }
}

// WithMirrorClock sets the clock used for fetch times.
func WithMirrorClock(now func() time.Time) MirrorOption {
	return func(m *Mirror) { m.now = now }
}

// NewMirror creates an empty mirror reading from source.
func NewMirror(source Source, names Names, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		source:  source,
		names:   names,
		logger:  slog.Default(),
		now:     time.Now,
		slots:   make(map[string]slot),
		clients: new(btree.Map[string, model.Client]),
		config:  model.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Names returns the sheet names the mirror reads.
func (m *Mirror) Names() Names {
	return m.names
}

// FetchAll fetches every sheet concurrently. A failing sheet does not stop
// the others.
func (m *Mirror) FetchAll(ctx context.Context) Summary {
	names := m.names.All()
	results := make([]SheetResult, len(names))

	var wg sync.WaitGroup

	for i, name := range names {
		wg.Go(func() {
			results[i] = m.fetch(ctx, name)
		})
	}

	wg.Wait()

	summary := Summary{Sheets: results, FetchedAt: m.now()}

	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		}
	}

	m.mu.Lock()
	m.last = summary
	m.mu.Unlock()

	m.logger.Info("sheets mirror refreshed", "sheets", len(results), "failed", summary.Failed)

	return summary
}

// Refresh fetches a single sheet.
func (m *Mirror) Refresh(ctx context.Context, name string) SheetResult {
	return m.fetch(ctx, name)
}

func (m *Mirror) fetch(ctx context.Context, name string) SheetResult {
	result := SheetResult{Name: name}

	body, err := m.source.Fetch(ctx, name)
	if err != nil {
		m.logger.Warn("sheet fetch failed", "sheet", name, "error", err)

		result.Err = err
		result.Error = err.Error()

		m.replace(name, slot{rows: []Row{}, fetchedAt: m.now(), err: err}, nil)

		return result
	}

	fp := xxhash.Sum64(body)

	m.mu.RLock()
	prev, seen := m.slots[name]
	m.mu.RUnlock()

	if seen && prev.err == nil && prev.fingerprint == fp {
		result.Unchanged = true
		m.logger.Debug("sheet unchanged", "sheet", name, "fingerprint", fp)
	}

	rows := Parse(string(body))
	result.Rows = len(rows)

	decoded := m.decode(name, body, rows)
	result.Skipped = len(decoded.errs)

	for _, e := range decoded.errs {
		m.logger.Warn("skipping sheet row", "sheet", name, "error", e)
	}

	m.replace(name, slot{rows: rows, fingerprint: fp, fetchedAt: m.now()}, decoded)

	m.logger.Debug("sheet fetched", "sheet", name, "rows", len(rows), "bytes", len(body))

	return result
}

// decoded holds the typed view of one sheet, built outside the lock.
type decoded struct {
	clients  *btree.Map[string, model.Client]
	credits  []model.Credit
	payments []model.Payment
	config   *model.Config
	hasConf  bool
	errs     []error
}

func (m *Mirror) decode(name string, body []byte, rows []Row) *decoded {
	d := &decoded{}

	switch name {
	case m.names.Clients:
		clients, errs := DecodeClients(name, rows)
		d.clients = indexClients(clients)
		d.errs = errs
	case m.names.Credits:
		d.credits, d.errs = DecodeCredits(name, rows)
	case m.names.Payments:
		d.payments, d.errs = DecodePayments(name, rows)
	case m.names.Lookup:
		cfg, found, errs := ConfigFromLookup(ParseLookup(string(body)))
		d.config = &cfg
		d.hasConf = found
		d.errs = errs
	}

	return d
}

func indexClients(clients []model.Client) *btree.Map[string, model.Client] {
	idx := new(btree.Map[string, model.Client])
	for _, c := range clients {
		idx.Set(c.CURP, c)
	}

	return idx
}

// replace swaps the slot and its typed view. A nil view empties it.
func (m *Mirror) replace(name string, s slot, d *decoded) {
	if d == nil {
		d = m.decode(name, nil, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[name] = s

	switch name {
	case m.names.Clients:
		m.clients = d.clients
	case m.names.Credits:
		m.credits = d.credits
	case m.names.Payments:
		m.payments = d.payments
	case m.names.Lookup:
		m.config = *d.config
		m.hasConf = d.hasConf
	}
}

// Rows returns the parsed rows of the named sheet.
func (m *Mirror) Rows(name string) ([]Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.slots[name]
	if !ok {
		return []Row{}, false
	}

	return slices.Clone(s.rows), true
}

// Clients returns the mirrored clients ordered by CURP.
func (m *Mirror) Clients() []model.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Client, 0, m.clients.Len())
	m.clients.Scan(func(_ string, c model.Client) bool {
		out = append(out, c)
		return true
	})

	return out
}

// Client looks a mirrored client up by CURP.
func (m *Mirror) Client(curp string) (model.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.clients.Get(model.NormalizeCURP(curp))
}

// Credits returns the mirrored placements.
func (m *Mirror) Credits() []model.Credit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.credits)
}

// Payments returns the mirrored collections.
func (m *Mirror) Payments() []model.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.payments)
}

// Config returns the configuration read from the lookup sheet. It reports
// false when the sheet carried no known key.
func (m *Mirror) Config() (model.Config, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.config, m.hasConf
}

// LastSummary returns the summary of the latest FetchAll.
func (m *Mirror) LastSummary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.last
}
