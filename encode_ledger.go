package stockfolio

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// MarshalJSON encodes a record as a single JSON object, portfolio first, then
// the command and date, then the command specific fields.
func (r Record) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("portfolio", r.Portfolio)
	switch r.Command {
	case CmdBuy, CmdSell:
		w.EmbedFrom(r.Lot)
	case CmdCreate:
		w.Append("command", r.Command)
		w.Append("date", r.Date)
		w.Append("kind", r.Kind.String())
	case CmdDCA:
		w.Append("command", r.Command)
		w.Append("date", r.Date)
		w.Append("strategy", r.Strategy.String())
	default:
		return nil, fmt.Errorf("unknown record command %q", r.Command)
	}
	return w.MarshalJSON()
}

// jrecord has all the fields of all the record kinds.
type jrecord struct {
	Portfolio  string          `json:"portfolio"`
	Command    CommandType     `json:"command"`
	Date       date.Date       `json:"date"`
	Kind       string          `json:"kind"`
	Strategy   string          `json:"strategy"`
	Ticker     string          `json:"ticker"`
	Quantity   Quantity        `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Currency   string          `json:"currency"`
}

// UnmarshalJSON decodes a record encoded by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var j jrecord
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*r = Record{Command: j.Command, Portfolio: j.Portfolio, Date: j.Date}
	switch j.Command {
	case CmdCreate:
		kind, err := ParseKind(j.Kind)
		if err != nil {
			return err
		}
		r.Kind = kind
	case CmdBuy, CmdSell:
		cur := j.Currency
		if cur == "" {
			cur = DefaultCurrency
		}
		r.Lot = Lot{
			Ticker:     j.Ticker,
			Quantity:   j.Quantity,
			Price:      M(j.Price, cur),
			Date:       j.Date,
			Buy:        j.Command == CmdBuy,
			Commission: M(j.Commission, cur),
		}
	case CmdDCA:
		id, err := uuid.Parse(j.Strategy)
		if err != nil {
			return fmt.Errorf("strategy id: %w", err)
		}
		r.Strategy = id
	default:
		return fmt.Errorf("unknown record command %q", j.Command)
	}
	return nil
}

// EncodeRecord writes r as one line of JSONL.
func EncodeRecord(w io.Writer, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", r.Command, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// DecodeRecords reads a JSONL stream of records. Empty lines are skipped.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, ioErrorf("line %d: %q: %v", line, string(data), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ioErrorf("error reading from input: %w", err)
	}
	return records, nil
}

// FileStore is a LedgerStore in a single JSONL file. Portfolios are grouped in
// the file, in the order they were first saved.
//
// Each Save rewrites the file atomically.
type FileStore struct {
	path  string
	log   *zap.Logger
	order []string
	byP   map[string][]Record
}

// NewFileStore returns a store in the file at path. The file is created on
// first save.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, log: log, byP: make(map[string][]Record)}
}

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

// Load implements LedgerStore. A missing file is an empty ledger.
func (s *FileStore) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("no ledger file yet", zap.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, ioErrorf("cannot open ledger: %w", err)
	}
	defer f.Close()
	records, err := DecodeRecords(f)
	if err != nil {
		return nil, ioErrorf("malformed ledger %q: %w", s.path, err)
	}
	s.order = s.order[:0]
	clear(s.byP)
	for _, r := range records {
		name := strings.ToUpper(r.Portfolio)
		if _, ok := s.byP[name]; !ok {
			s.order = append(s.order, name)
		}
		s.byP[name] = append(s.byP[name], r)
	}
	return records, nil
}

// Save implements LedgerStore.
func (s *FileStore) Save(p *Portfolio) error {
	if _, ok := s.byP[p.Name()]; !ok {
		s.order = append(s.order, p.Name())
	}
	s.byP[p.Name()] = p.Records()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioErrorf("cannot create ledger folder: %w", err)
		}
	}
	order := slices.Clone(s.order)
	err := atomicWrite(s.path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, name := range order {
			for _, r := range s.byP[name] {
				if err := EncodeRecord(bw, r); err != nil {
					return err
				}
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return ioErrorf("cannot write ledger %q: %w", s.path, err)
	}
	s.log.Debug("ledger saved", zap.String("path", s.path), zap.String("portfolio", p.Name()))
	return nil
}
