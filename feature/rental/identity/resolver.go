package identity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a scanned tag is not in the table.
var ErrNotFound = errors.New("identity not found")

// Table maps normalized tags to account identifiers.
type Table map[string]string

// Resolver resolves raw RFID tags to accounts. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	table Table
}

// NewResolver builds a resolver from a tag to account mapping. Tags are
// normalized; later entries win on duplicates.
func NewResolver(entries map[string]string) *Resolver {
	table := make(Table, len(entries))
	for tag, account := range entries {
		tag = Normalize(tag)
		account = strings.TrimSpace(account)
		if tag == "" || account == "" {
			continue
		}
		table[tag] = account
	}
	return &Resolver{table: table}
}

// Resolve returns the account bound to raw, or ErrNotFound.
func (r *Resolver) Resolve(raw []byte) (string, error) {
	tag := Normalize(string(raw))
	if tag == "" {
		return "", fmt.Errorf("%w: empty tag", ErrNotFound)
	}
	account, ok := r.table[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, tag)
	}
	return account, nil
}

// Len returns the number of known tags.
func (r *Resolver) Len() int {
	return len(r.table)
}

// Accounts returns the distinct accounts in the table, sorted.
func (r *Resolver) Accounts() []string {
	seen := make(map[string]struct{}, len(r.table))
	for _, account := range r.table {
		seen[account] = struct{}{}
	}
	accounts := make([]string, 0, len(seen))
	for account := range seen {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// Normalize trims the tag, collapses inner whitespace to single spaces and
// upper-cases it, so "0x23  0x24 0x24 0xc6\n" matches "0X23 0X24 0X24 0XC6".
func Normalize(tag string) string {
	return strings.ToUpper(strings.Join(strings.Fields(tag), " "))
}

// ParseTags parses the "TAG=account;TAG=account" form used in configuration.
func ParseTags(s string) (map[string]string, error) {
	entries := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tag, account, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(tag) == "" || strings.TrimSpace(account) == "" {
			return nil, fmt.Errorf("invalid tag entry %q, expected TAG=account", pair)
		}
		entries[strings.TrimSpace(tag)] = strings.TrimSpace(account)
	}
	return entries, nil
}

// FromConfig builds the startup table: the legacy pattern, then the
// configured tags, then extra (usually loaded from the accounts table).
func FromConfig(cfg Config, extra map[string]string) (*Resolver, error) {
	entries := make(map[string]string)
	if cfg.LegacyPattern != "" && cfg.LegacyAccount != "" {
		entries[Normalize(cfg.LegacyPattern)] = cfg.LegacyAccount
	}
	tags, err := ParseTags(cfg.Tags)
	if err != nil {
		return nil, err
	}
	for tag, account := range tags {
		entries[Normalize(tag)] = account
	}
	for tag, account := range extra {
		entries[Normalize(tag)] = account
	}
	return NewResolver(entries), nil
}
