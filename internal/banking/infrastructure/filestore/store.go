package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
)

// Format selects the document encoding of a Store.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Store keeps every account in a single JSON or YAML document.
//
// Saves write a sibling temp file and rename it over the document. That is a best
// effort: on filesystems without atomic rename an interrupted save can still leave
// a truncated document, which the next Load reports as unreadable.
type Store struct {
	path  string
	codec codec
}

var _ domain.Store = (*Store)(nil)

// New creates a file store at path using the given format.
func New(path string, format Format) *Store {
	var c codec = jsonCodec{}
	if format == FormatYAML {
		c = yamlCodec{}
	}
	return &Store{path: path, codec: c}
}

// Load reads all accounts. A missing document yields (nil, nil).
// Read failures such as a permission error are returned unwrapped.
// An undecodable document is copied to "<path>.corrupt" and reported as domain.ErrStoreUnreadable.
// Side effects: reads the document and may write the quarantine copy.
func (s *Store) Load(ctx context.Context) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	accounts, err := s.decode(data)
	if err != nil {
		s.quarantine(ctx, data)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrStoreUnreadable, s.path, err)
	}
	return accounts, nil
}

func (s *Store) decode(data []byte) ([]*domain.Account, error) {
	records, err := s.codec.unmarshal(data)
	if err != nil {
		return nil, err
	}
	accounts := make([]*domain.Account, 0, len(records))
	for i, r := range records {
		account, err := r.ToAccount()
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i+1, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// quarantine keeps a copy of an unreadable document so the next save does not destroy it.
func (s *Store) quarantine(ctx context.Context, data []byte) {
	target := s.path + ".corrupt"
	if err := os.WriteFile(target, data, 0o600); err != nil {
		logging.WarnContext(ctx, "could not copy unreadable account store aside",
			"path", s.path,
			"error", err,
		)
		return
	}
	logging.WarnContext(ctx, "unreadable account store copied aside", "path", target)
}

// Save overwrites the document with every field of every account.
// Side effects: creates the parent directory if needed and replaces the document.
func (s *Store) Save(ctx context.Context, accounts []*domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]Record, len(accounts))
	for i, a := range accounts {
		records[i] = NewRecord(a)
	}

	data, err := s.codec.marshal(records)
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
