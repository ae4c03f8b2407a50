package stockfolio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestEncodeRecord(t *testing.T) {
	id := uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name:   "create",
			record: Record{Command: CmdCreate, Portfolio: "GROWTH", Kind: Inflexible, Date: day("2024-03-01")},
			want:   `{"portfolio":"GROWTH","command":"create","date":"2024-03-01","kind":"inflexible"}`,
		},
		{
			name:   "buy",
			record: Record{Command: CmdBuy, Portfolio: "GROWTH", Date: day("2024-03-01"), Lot: NewBuy(day("2024-03-01"), "AAPL", Q(10), USD(150.25), USD(1))},
			want:   `{"portfolio":"GROWTH","command":"buy","date":"2024-03-01","ticker":"AAPL","quantity":10,"price":150.25,"commission":1,"currency":"USD"}`,
		},
		{
			name:   "sell",
			record: Record{Command: CmdSell, Portfolio: "GROWTH", Date: day("2024-03-02"), Lot: sell("2024-03-02", "AAPL", 2.5, 160)},
			want:   `{"portfolio":"GROWTH","command":"sell","date":"2024-03-02","ticker":"AAPL","quantity":2.5,"price":160,"currency":"USD"}`,
		},
		{
			name:   "dca",
			record: Record{Command: CmdDCA, Portfolio: "DCA", Date: day("2024-03-03"), Strategy: id},
			want:   `{"portfolio":"DCA","command":"dca","date":"2024-03-03","strategy":"6ba7b812-9dad-11d1-80b4-00c04fd430c8"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeRecord(&buf, tt.record); err != nil {
				t.Fatalf("EncodeRecord() error: %v", err)
			}
			if got := buf.String(); got != tt.want+"\n" {
				t.Errorf("EncodeRecord() =\n%s\nwant\n%s", got, tt.want)
			}

			records, err := DecodeRecords(&buf)
			if err != nil {
				t.Fatalf("DecodeRecords() error: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("DecodeRecords() returned %d records, want 1", len(records))
			}
			got := records[0]
			if got.Command != tt.record.Command || got.Portfolio != tt.record.Portfolio || got.Date != tt.record.Date || got.Strategy != tt.record.Strategy {
				t.Errorf("DecodeRecords() = %+v, want %+v", got, tt.record)
			}
			if tt.record.Command == CmdCreate && got.Kind != tt.record.Kind {
				t.Errorf("decoded kind = %s, want %s", got.Kind, tt.record.Kind)
			}
			if l, w := got.Lot, tt.record.Lot; !l.Quantity.Equal(w.Quantity) || !l.Price.Equal(w.Price) || l.Buy != w.Buy || l.Ticker != w.Ticker {
				t.Errorf("decoded lot = %+v, want %+v", l, w)
			}
		})
	}
}

func TestDecodeRecords_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "{not json}\n"},
		{"unknown command", `{"portfolio":"P","command":"dividend","date":"2024-01-01"}`},
		{"bad kind", `{"portfolio":"P","command":"create","date":"2024-01-01","kind":"rigid"}`},
		{"bad strategy", `{"portfolio":"P","command":"dca","date":"2024-01-01","strategy":"x"}`},
		{"bad date", `{"portfolio":"P","command":"buy","date":"yesterday","ticker":"A","quantity":1,"price":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRecords(strings.NewReader(tt.input)); !errors.Is(err, ErrIO) {
				t.Errorf("DecodeRecords() error = %v, want an i/o error", err)
			}
		})
	}
}

func TestDecodeRecords_SkipsEmptyLines(t *testing.T) {
	input := `
{"portfolio":"P","command":"create","date":"2024-01-01","kind":"flexible"}

{"portfolio":"P","command":"buy","date":"2024-01-02","ticker":"AAPL","quantity":1,"price":1}
`
	records, err := DecodeRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeRecords() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[1].Lot.Price.Currency(); got != DefaultCurrency {
		t.Errorf("default currency = %q, want %q", got, DefaultCurrency)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ledger.jsonl")
	store := NewFileStore(path, nil)
	records, err := store.Load()
	if err != nil || len(records) != 0 {
		t.Fatalf("Load() of a missing file = %v, %v, want empty", records, err)
	}

	a, _ := NewPortfolio("a", Flexible, day("2024-01-01"), buy("2024-01-02", "AAPL", 1, 10))
	b, _ := NewPortfolio("b", Flexible, day("2024-01-01"))
	for _, p := range []*Portfolio{a, b} {
		if err := store.Save(p); err != nil {
			t.Fatalf("Save(%s) error: %v", p.Name(), err)
		}
	}
	a.append(buy("2024-01-03", "GOOG", 1, 10))
	if err := store.Save(a); err != nil {
		t.Fatalf("Save(a) error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{`"portfolio":"A","command":"create"`, `"portfolio":"A","command":"buy"`, `"portfolio":"A","command":"buy"`, `"portfolio":"B","command":"create"`}
	if len(lines) != len(want) {
		t.Fatalf("ledger has %d lines, want %d:\n%s", len(lines), len(want), data)
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %s, want it to contain %s", i+1, lines[i], w)
		}
	}

	records, err = NewFileStore(path, nil).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("Load() returned %d records, want 4", len(records))
	}

	if err := os.WriteFile(path, []byte("garbage\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path, nil).Load(); !errors.Is(err, ErrIO) {
		t.Errorf("Load() of a malformed file error = %v, want an i/o error", err)
	}
}
