package billstore

import (
	"cageots-konnector/internal/assert"
	"cageots-konnector/internal/chrono"
	"cageots-konnector/lib/billstore/db"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KEY_VENDOR_REF = "vendorRef"
	KEY_DATE       = "date"
	KEY_AMOUNT     = "amount"
	KEY_FILENAME   = "filename"
)

// DefaultKeys is the dedup key used by the connector.
var DefaultKeys = []string{KEY_VENDOR_REF, KEY_DATE, KEY_AMOUNT}

var (
	ErrNoSourceAccount = errors.New("no source account")
	ErrNoKeys          = errors.New("no dedup keys")
	ErrUnknownKey      = errors.New("unknown dedup key")
	ErrBadFilename     = errors.New("bad filename")
)

// Fetcher downloads the binary behind a bill's file url.
type Fetcher interface {
	Fetch(ctx context.Context, link string) ([]byte, error)
}

type Bill struct {
	Id          string
	Vendor      string
	VendorRef   string
	Date        time.Time
	Amount      float64
	Currency    string
	FileUrl     string
	Filename    string
	Metadata    json.RawMessage
	Identifiers []string
	ImportedAt  time.Time
}

// SavePolicy says how bills are linked and deduplicated.
type SavePolicy struct {
	// Identifiers are words found in the label of the bank operations paying
	// for the bills.
	Identifiers   []string
	SourceAccount string
	// Keys are the ordered bill fields forming the dedup key.
	Keys []string
}

type SaveResult struct {
	Saved   []Bill
	Skipped int
}

type Store struct {
	db       *sql.DB
	qry      *db.Queries
	filesDir string
	time     chrono.TimeAPI
}

// NewStore stores bill rows in database and invoice files under filesDir.
func NewStore(database *sql.DB, filesDir string, time chrono.TimeAPI) Store {
	assert.NotNil(database)
	assert.NotEmptyStr(filesDir)
	assert.NotNil(time)

	return Store{
		db:       database,
		qry:      db.New(database),
		filesDir: filesDir,
		time:     time,
	}
}

// Migrate creates the tables if they do not exist yet.
func (s Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, db.Schema)
	return err
}

// DedupKey renders the values of keys for bill.
func DedupKey(bill Bill, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", ErrNoKeys
	}

	parts := make([]string, len(keys))
	for i, key := range keys {
		var value string
		switch key {
		case KEY_VENDOR_REF:
			value = bill.VendorRef
		case KEY_DATE:
			value = bill.Date.Format(time.RFC3339)
		case KEY_AMOUNT:
			value = strconv.FormatFloat(bill.Amount, 'f', 2, 64)
		case KEY_FILENAME:
			value = bill.Filename
		default:
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		parts[i] = fmt.Sprintf("%s=%s", key, value)
	}
	return strings.Join(parts, "|"), nil
}

// SaveBills downloads and stores every bill whose dedup key is not known
// yet for the policy's source account. It stops at the first failure, bills
// saved before it stay saved.
func (s Store) SaveBills(ctx context.Context, fetcher Fetcher, bills []Bill, policy SavePolicy) (SaveResult, error) {
	var result SaveResult
	if policy.SourceAccount == "" {
		return result, ErrNoSourceAccount
	}

	identifiers, err := json.Marshal(policy.Identifiers)
	if err != nil {
		return result, err
	}

	for _, bill := range bills {
		key, err := DedupKey(bill, policy.Keys)
		if err != nil {
			return result, err
		}

		exists, err := s.qry.BillExists(ctx, db.BillExistsParams{
			SourceAccount: policy.SourceAccount,
			DedupKey:      key,
		})
		if err != nil {
			return result, fmt.Errorf("check %s: %w", bill.Filename, err)
		}
		if exists {
			result.Skipped++
			continue
		}

		contents, err := fetcher.Fetch(ctx, bill.FileUrl)
		if err != nil {
			return result, fmt.Errorf("fetch %s: %w", bill.Filename, err)
		}
		err = s.writeFile(bill.Filename, contents)
		if err != nil {
			return result, fmt.Errorf("write %s: %w", bill.Filename, err)
		}

		metadata := bill.Metadata
		if len(metadata) == 0 {
			metadata = json.RawMessage("{}")
		}

		bill.Id = uuid.NewString()
		bill.Identifiers = policy.Identifiers
		bill.ImportedAt = s.time.Now()

		err = s.qry.CreateBill(ctx, db.Bill{
			ID:            bill.Id,
			SourceAccount: policy.SourceAccount,
			DedupKey:      key,
			Vendor:        bill.Vendor,
			VendorRef:     bill.VendorRef,
			Date:          bill.Date.Format(time.RFC3339),
			DateUnix:      bill.Date.Unix(),
			Amount:        bill.Amount,
			Currency:      bill.Currency,
			FileUrl:       bill.FileUrl,
			Filename:      bill.Filename,
			Metadata:      string(metadata),
			Identifiers:   string(identifiers),
			ImportedAt:    bill.ImportedAt.Unix(),
		})
		if err != nil {
			return result, fmt.Errorf("insert %s: %w", bill.Filename, err)
		}

		result.Saved = append(result.Saved, bill)
	}

	return result, nil
}

// writeFile writes contents to filesDir/name through a temporary file so a
// crash never leaves a truncated invoice behind.
func (s Store) writeFile(name string, contents []byte) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrBadFilename, name)
	}

	err := os.MkdirAll(s.filesDir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.filesDir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.filesDir, name))
}

// FilePath returns where the file of bill is stored.
func (s Store) FilePath(bill Bill) string {
	return filepath.Join(s.filesDir, bill.Filename)
}

// ListBills returns the bills of sourceAccount ordered by date.
func (s Store) ListBills(ctx context.Context, sourceAccount string) ([]Bill, error) {
	rows, err := s.qry.GetBills(ctx, sourceAccount)
	if err != nil {
		return nil, err
	}

	bills := make([]Bill, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			return nil, fmt.Errorf("bill %s: parse date: %w", r.ID, err)
		}
		var identifiers []string
		err = json.Unmarshal([]byte(r.Identifiers), &identifiers)
		if err != nil {
			return nil, fmt.Errorf("bill %s: parse identifiers: %w", r.ID, err)
		}

		bills = append(bills, Bill{
			Id:          r.ID,
			Vendor:      r.Vendor,
			VendorRef:   r.VendorRef,
			Date:        date,
			Amount:      r.Amount,
			Currency:    r.Currency,
			FileUrl:     r.FileUrl,
			Filename:    r.Filename,
			Metadata:    json.RawMessage(r.Metadata),
			Identifiers: identifiers,
			ImportedAt:  time.Unix(r.ImportedAt, 0).In(chrono.Paris()),
		})
	}
	return bills, nil
}

// SourceAccounts lists every account that has stored bills.
func (s Store) SourceAccounts(ctx context.Context) ([]string, error) {
	return s.qry.GetSourceAccounts(ctx)
}
