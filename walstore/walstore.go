// Package walstore is a stockfolio.LedgerStore on an append only write ahead
// log. Records are msgpack encoded, one WAL entry per record.
package walstore

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	segmentThreshold = 1000
	maxSegments      = 1_000_000 // segments are never dropped
	keyPrefix        = "portfolio/"
)

// Store persists ledger records in a WAL. Save only appends the records of a
// portfolio not written yet.
type Store struct {
	wal     *gowal.Wal
	log     *zap.Logger
	mu      sync.Mutex
	written map[string]int // number of records written per portfolio
}

// Open opens or creates the WAL in dir.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, stockfolio.IOError(errors.Wrap(err, "create ledger WAL directory"))
	}
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "ledger_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, stockfolio.IOError(errors.Wrap(err, "init ledger WAL"))
	}
	return &Store{wal: wal, log: log, written: make(map[string]int)}, nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}

// entry is the msgpack form of a stockfolio.Record.
type entry struct {
	Portfolio  string `msgpack:"portfolio"`
	Command    string `msgpack:"command"`
	Date       string `msgpack:"date"`
	Kind       string `msgpack:"kind,omitempty"`
	Strategy   string `msgpack:"strategy,omitempty"`
	Ticker     string `msgpack:"ticker,omitempty"`
	Quantity   string `msgpack:"quantity,omitempty"`
	Price      string `msgpack:"price,omitempty"`
	Commission string `msgpack:"commission,omitempty"`
	Currency   string `msgpack:"currency,omitempty"`
}

func toEntry(r stockfolio.Record) entry {
	e := entry{Portfolio: r.Portfolio, Command: string(r.Command), Date: r.Date.String()}
	switch r.Command {
	case stockfolio.CmdCreate:
		e.Kind = r.Kind.String()
	case stockfolio.CmdDCA:
		e.Strategy = r.Strategy.String()
	case stockfolio.CmdBuy, stockfolio.CmdSell:
		e.Ticker = r.Lot.Ticker
		e.Quantity = r.Lot.Quantity.String()
		e.Price = r.Lot.Price.Decimal().String()
		e.Commission = r.Lot.Commission.Decimal().String()
		e.Currency = r.Lot.Price.Currency()
	}
	return e
}

func (e entry) record() (stockfolio.Record, error) {
	on, err := date.Parse(e.Date)
	if err != nil {
		return stockfolio.Record{}, err
	}
	r := stockfolio.Record{Command: stockfolio.CommandType(e.Command), Portfolio: e.Portfolio, Date: on}
	switch r.Command {
	case stockfolio.CmdCreate:
		if r.Kind, err = stockfolio.ParseKind(e.Kind); err != nil {
			return r, err
		}
	case stockfolio.CmdDCA:
		if r.Strategy, err = uuid.Parse(e.Strategy); err != nil {
			return r, err
		}
	case stockfolio.CmdBuy, stockfolio.CmdSell:
		qty, err := stockfolio.ParseQuantity(e.Quantity)
		if err != nil {
			return r, errors.Wrap(err, "quantity")
		}
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return r, errors.Wrap(err, "price")
		}
		commission := decimal.Zero
		if e.Commission != "" {
			if commission, err = decimal.NewFromString(e.Commission); err != nil {
				return r, errors.Wrap(err, "commission")
			}
		}
		cur := e.Currency
		if cur == "" {
			cur = stockfolio.DefaultCurrency
		}
		r.Lot = stockfolio.NewBuy(on, e.Ticker, qty, stockfolio.M(price, cur), stockfolio.M(commission, cur))
		r.Lot.Buy = r.Command == stockfolio.CmdBuy
	default:
		return r, fmt.Errorf("unknown record command %q", e.Command)
	}
	return r, nil
}

// Load implements stockfolio.LedgerStore.
func (s *Store) Load() ([]stockfolio.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.written)
	current := s.wal.CurrentIndex()
	records := make([]stockfolio.Record, 0, current)
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var e entry
		if err := msgpack.Unmarshal(payload, &e); err != nil {
			return nil, stockfolio.IOError(errors.Wrapf(err, "decode ledger entry %d", idx))
		}
		r, err := e.record()
		if err != nil {
			return nil, stockfolio.IOError(fmt.Errorf("malformed ledger entry %d: %v", idx, err))
		}
		records = append(records, r)
		s.written[strings.ToUpper(r.Portfolio)]++
	}
	s.log.Debug("ledger WAL loaded", zap.Uint64("index", current), zap.Int("records", len(records)))
	return records, nil
}

// Save implements stockfolio.LedgerStore.
func (s *Store) Save(p *stockfolio.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := p.Records()
	for _, r := range records[min(s.written[p.Name()], len(records)):] {
		payload, err := msgpack.Marshal(toEntry(r))
		if err != nil {
			return stockfolio.IOError(errors.Wrap(err, "encode ledger entry"))
		}
		if err := s.wal.Write(s.wal.CurrentIndex()+1, keyPrefix+p.Name(), payload); err != nil {
			return stockfolio.IOError(errors.Wrap(err, "write ledger entry"))
		}
		s.written[p.Name()]++
	}
	return nil
}
