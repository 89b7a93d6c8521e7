package billstore

import (
	"cageots-konnector/internal/chrono"
	"cageots-konnector/lib/testutil"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	files map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, link string) ([]byte, error) {
	f.calls = append(f.calls, link)
	contents, ok := f.files[link]
	if !ok {
		return nil, fmt.Errorf("no file at %s", link)
	}
	return contents, nil
}

var importedAt = time.Date(2024, time.March, 1, 12, 0, 0, 0, chrono.Paris())

func setup(t testing.TB) (Store, string, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "lib/billstore",
	})
	filesDir := t.TempDir()
	store := NewStore(res.DB, filesDir, chrono.FixedTime{At: importedAt})
	err := store.Migrate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// migrating twice is harmless.
	err = store.Migrate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return store, filesDir, cleanup
}

func testBill(ref string, day int, amount float64) Bill {
	return Bill{
		Vendor:    "Les ptits cageots",
		VendorRef: ref,
		Date:      time.Date(2021, time.October, day, 23, 14, 57, 0, chrono.Paris()),
		Amount:    amount,
		Currency:  "EUR",
		FileUrl:   "https://example.com/pdf/" + ref,
		Filename:  fmt.Sprintf("2021-10-%02d_%s.pdf", day, ref),
	}
}

var policy = SavePolicy{
	Identifiers:   []string{"Les P Tits Cag"},
	SourceAccount: "alice@example.com",
	Keys:          DefaultKeys,
}

func TestDedupKey(t *testing.T) {
	bill := testBill("DDVMDIJTQ", 21, 86.15)

	key, err := DedupKey(bill, DefaultKeys)
	require.NoError(t, err)
	require.Equal(t, "vendorRef=DDVMDIJTQ|date=2021-10-21T23:14:57+02:00|amount=86.15", key)

	key, err = DedupKey(bill, []string{KEY_FILENAME})
	require.NoError(t, err)
	require.Equal(t, "filename=2021-10-21_DDVMDIJTQ.pdf", key)

	_, err = DedupKey(bill, nil)
	require.ErrorIs(t, err, ErrNoKeys)

	_, err = DedupKey(bill, []string{KEY_VENDOR_REF, "color"})
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestSaveBills(t *testing.T) {
	store, filesDir, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	first := testBill("AAAAAAAAA", 21, 86.15)
	second := testBill("BBBBBBBBB", 22, 12.5)
	fetcher := &fakeFetcher{files: map[string][]byte{
		first.FileUrl:  []byte("first"),
		second.FileUrl: []byte("second"),
	}}

	result, err := store.SaveBills(ctx, fetcher, []Bill{first, second}, policy)
	require.NoError(t, err)
	require.Len(t, result.Saved, 2)
	require.Equal(t, 0, result.Skipped)
	for _, saved := range result.Saved {
		require.NotEmpty(t, saved.Id)
		require.Equal(t, importedAt, saved.ImportedAt)
	}

	contents, err := os.ReadFile(filepath.Join(filesDir, first.Filename))
	require.NoError(t, err)
	require.Equal(t, "first", string(contents))
	require.Equal(t, filepath.Join(filesDir, second.Filename), store.FilePath(second))

	// the second save only fetches the new bill.
	third := testBill("CCCCCCCCC", 23, 3)
	fetcher.files[third.FileUrl] = []byte("third")
	fetcher.calls = nil

	result, err = store.SaveBills(ctx, fetcher, []Bill{first, second, third}, policy)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1)
	require.Equal(t, 2, result.Skipped)
	require.Equal(t, []string{third.FileUrl}, fetcher.calls)

	bills, err := store.ListBills(ctx, policy.SourceAccount)
	require.NoError(t, err)

	first.Identifiers = policy.Identifiers
	second.Identifiers = policy.Identifiers
	third.Identifiers = policy.Identifiers
	diff := cmp.Diff(
		[]Bill{first, second, third},
		bills,
		cmpopts.IgnoreFields(Bill{}, "Id", "Metadata", "ImportedAt"),
	)
	if diff != "" {
		t.Fatal(diff)
	}
	for _, b := range bills {
		require.JSONEq(t, "{}", string(b.Metadata))
		require.True(t, importedAt.Equal(b.ImportedAt))
	}
}

func TestSaveBillsPerAccount(t *testing.T) {
	store, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	bill := testBill("AAAAAAAAA", 21, 86.15)
	fetcher := &fakeFetcher{files: map[string][]byte{bill.FileUrl: []byte("pdf")}}

	_, err := store.SaveBills(ctx, fetcher, []Bill{bill}, policy)
	require.NoError(t, err)

	other := policy
	other.SourceAccount = "bob@example.com"
	result, err := store.SaveBills(ctx, fetcher, []Bill{bill}, other)
	require.NoError(t, err)
	require.Len(t, result.Saved, 1)

	accounts, err := store.SourceAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, accounts)
}

func TestSaveBillsFailures(t *testing.T) {
	store, filesDir, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	good := testBill("AAAAAAAAA", 21, 86.15)
	missing := testBill("BBBBBBBBB", 22, 12.5)
	fetcher := &fakeFetcher{files: map[string][]byte{good.FileUrl: []byte("pdf")}}

	_, err := store.SaveBills(ctx, fetcher, []Bill{good}, SavePolicy{Keys: DefaultKeys})
	require.ErrorIs(t, err, ErrNoSourceAccount)

	result, err := store.SaveBills(ctx, fetcher, []Bill{good, missing}, policy)
	require.Error(t, err)
	require.Len(t, result.Saved, 1)

	escaping := testBill("CCCCCCCCC", 23, 1)
	escaping.Filename = "../escape.pdf"
	fetcher.files[escaping.FileUrl] = []byte("pdf")
	_, err = store.SaveBills(ctx, fetcher, []Bill{escaping}, policy)
	require.True(t, errors.Is(err, ErrBadFilename), err)
	_, err = os.Stat(filepath.Join(filepath.Dir(filesDir), "escape.pdf"))
	require.True(t, os.IsNotExist(err))

	bills, err := store.ListBills(ctx, policy.SourceAccount)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, good.VendorRef, bills[0].VendorRef)
}
