package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// LedgerFile is the long-term fact ledger inside the user directory.
	LedgerFile = "MEMORY.md"

	// JournalDir holds one journal file per day inside the user directory.
	JournalDir = "memory"

	ledgerHeader = "# Long-term Memory\n\n"
	dayLayout    = "2006-01-02"
)

// DurableStore is the file-backed long-term memory of one user: an
// append-only fact ledger and per-day journal files keyed by local date.
// DurableStore is safe for concurrent use.
type DurableStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// DurableOption configures a DurableStore.
type DurableOption func(*DurableStore)

// WithClock overrides the clock used to pick the current day.
func WithClock(now func() time.Time) DurableOption {
	return func(s *DurableStore) {
		s.now = now
	}
}

// NewDurableStore opens the store rooted at dir, creating the journal
// directory and the ledger if they do not exist yet.
func NewDurableStore(dir string, opts ...DurableOption) (*DurableStore, error) {
	s := &DurableStore{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Join(dir, JournalDir), 0o755); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}
	ledger := s.LedgerPath()
	if _, err := os.Stat(ledger); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(ledger, []byte(ledgerHeader), 0o644); err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat ledger: %w", err)
	}
	return s, nil
}

// Dir returns the user directory.
func (s *DurableStore) Dir() string {
	return s.dir
}

// LedgerPath returns the path of MEMORY.md.
func (s *DurableStore) LedgerPath() string {
	return filepath.Join(s.dir, LedgerFile)
}

// DailyLogPath returns the journal path for the local calendar day of t.
func (s *DurableStore) DailyLogPath(t time.Time) string {
	return filepath.Join(s.dir, JournalDir, t.Local().Format(dayLayout)+".md")
}

// Today returns the current time according to the store's clock.
func (s *DurableStore) Today() time.Time {
	return s.now()
}

// AppendFacts appends one bullet line per fact. Empty input is a no-op.
func (s *DurableStore) AppendFacts(facts []string) error {
	if len(facts) == 0 {
		return nil
	}
	var b strings.Builder
	for _, fact := range facts {
		b.WriteString("- ")
		b.WriteString(fact)
		b.WriteString("\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return appendFile(s.LedgerPath(), b.String())
}

// ReadLongTerm returns the full ledger, or "" when it does not exist.
func (s *DurableStore) ReadLongTerm() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readOptional(s.LedgerPath())
}

// AppendDailyLog appends text to today's journal.
func (s *DurableStore) AppendDailyLog(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendFile(s.DailyLogPath(s.now()), text)
}

// AppendExchange appends a raw user/agent exchange to today's journal.
func (s *DurableStore) AppendExchange(input, reply string) error {
	stamp := s.now().Local().Format("15:04:05")
	entry := fmt.Sprintf("\n## [%s]\n**User**: %s\n\n**Agent**: %s\n", stamp, input, reply)
	return s.AppendDailyLog(entry)
}

// ReadDailyLog returns the journal of the day of t, or "" if none exists.
func (s *DurableStore) ReadDailyLog(t time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readOptional(s.DailyLogPath(t))
}

// WriteDailyLog replaces the journal of the day of t.
func (s *DurableStore) WriteDailyLog(t time.Time, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.DailyLogPath(t), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write daily log: %w", err)
	}
	return nil
}

// ReadRecentDailyLogs returns the journals of the last days days (today
// included), oldest first, each under a date header. Missing days are skipped.
func (s *DurableStore) ReadRecentDailyLogs(days int) (string, error) {
	if days <= 0 {
		return "", nil
	}
	today := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		content, err := readOptional(s.DailyLogPath(day))
		if err != nil {
			return "", err
		}
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", day.Local().Format(dayLayout), content))
	}
	return strings.Join(parts, "\n\n"), nil
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readOptional(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(b), nil
}
