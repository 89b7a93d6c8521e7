package db

import (
	"context"
)

type Bill struct {
	ID            string
	SourceAccount string
	DedupKey      string
	Vendor        string
	VendorRef     string
	Date          string
	DateUnix      int64
	Amount        float64
	Currency      string
	FileUrl       string
	Filename      string
	Metadata      string
	Identifiers   string
	ImportedAt    int64
}

const billExists = `-- name: BillExists :one
select exists(
    select 1 from bill where source_account = ? and dedup_key = ?
)
`

type BillExistsParams struct {
	SourceAccount string
	DedupKey      string
}

func (q *Queries) BillExists(ctx context.Context, arg BillExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, billExists, arg.SourceAccount, arg.DedupKey)
	var exists int64
	err := row.Scan(&exists)
	return exists != 0, err
}

const createBill = `-- name: CreateBill :exec
insert into bill (
    id, source_account, dedup_key, vendor, vendor_ref, date, date_unix, amount,
    currency, file_url, filename, metadata, identifiers, imported_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateBill(ctx context.Context, arg Bill) error {
	_, err := q.db.ExecContext(ctx, createBill,
		arg.ID,
		arg.SourceAccount,
		arg.DedupKey,
		arg.Vendor,
		arg.VendorRef,
		arg.Date,
		arg.DateUnix,
		arg.Amount,
		arg.Currency,
		arg.FileUrl,
		arg.Filename,
		arg.Metadata,
		arg.Identifiers,
		arg.ImportedAt,
	)
	return err
}

const getBills = `-- name: GetBills :many
select
    id, source_account, dedup_key, vendor, vendor_ref, date, date_unix, amount,
    currency, file_url, filename, metadata, identifiers, imported_at
from bill
where source_account = ?
order by date_unix asc, vendor_ref asc
`

func (q *Queries) GetBills(ctx context.Context, sourceAccount string) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, getBills, sourceAccount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		var i Bill
		if err := rows.Scan(
			&i.ID,
			&i.SourceAccount,
			&i.DedupKey,
			&i.Vendor,
			&i.VendorRef,
			&i.Date,
			&i.DateUnix,
			&i.Amount,
			&i.Currency,
			&i.FileUrl,
			&i.Filename,
			&i.Metadata,
			&i.Identifiers,
			&i.ImportedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSourceAccounts = `-- name: GetSourceAccounts :many
select distinct source_account from bill order by source_account
`

func (q *Queries) GetSourceAccounts(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getSourceAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, err
		}
		items = append(items, account)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
