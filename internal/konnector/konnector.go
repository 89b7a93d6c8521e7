package konnector

import (
	"cageots-konnector/internal/assert"
	"cageots-konnector/internal/scrapers/cageots"
	"cageots-konnector/internal/telemetry"
	"cageots-konnector/lib/billstore"
	"cageots-konnector/lib/configutil"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_konnector_run      = "konnector.run"
	report_konnector_records  = "konnector.records"
	report_konnector_saved    = "konnector.saved"
	report_konnector_skipped  = "konnector.skipped"
	report_konnector_to_bills = "konnector.to-bills"
)

var tracer = otel.Tracer("cageots.konnector")
var meter = otel.Meter("cageots.konnector")
var savedCounter, _ = meter.Int64Counter(
	"bills_saved",
	metric.WithDescription("invoices written to the bill store"),
)

// Fields are the account credentials the connector runs with.
type Fields struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
	// Parameters are opaque vendor specific settings.
	Parameters map[string]string `json:"parameters"`
}

// BillSaver is the storage the extracted invoices are handed to.
type BillSaver interface {
	SaveBills(ctx context.Context, fetcher billstore.Fetcher, bills []billstore.Bill, policy billstore.SavePolicy) (billstore.SaveResult, error)
}

type Options struct {
	Variant cageots.Variant
	Client  cageots.ClientOptions
}

type Konnector struct {
	opts  Options
	store BillSaver
	tel   telemetry.API
}

func New(opts Options, store BillSaver, tel telemetry.API) Konnector {
	assert.NotNil(store)
	assert.NotNil(tel)

	if len(opts.Variant.AcceptedStatuses) == 0 {
		opts.Variant = cageots.VariantCurrent
	}

	return Konnector{
		opts:  opts,
		store: store,
		tel:   telemetry.NewScopedAPI("konnector", tel),
	}
}

type Result struct {
	Extracted int
	Saved     int
	Skipped   int
}

// Run logs in, fetches the order history, extracts the invoices and saves
// them. Login and transport failures abort the run before anything is saved.
func (k Konnector) Run(ctx context.Context, fields Fields) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("variant", k.opts.Variant.Name),
	))
	defer span.End()

	result, err := k.run(ctx, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
	}
	return result, err
}

func (k Konnector) run(ctx context.Context, fields Fields) (Result, error) {
	var result Result

	err := configutil.Validate(fields)
	if err != nil {
		return result, err
	}
	if len(fields.Parameters) > 0 {
		k.tel.ReportDebug("found vendor parameters", len(fields.Parameters))
	}

	// a fresh session per run, cookies never leak from one account to another.
	client, err := cageots.NewClient(k.opts.Client, k.tel)
	if err != nil {
		return result, err
	}

	k.tel.ReportDebug("authenticating", fields.Login)
	err = k.authenticate(ctx, client, fields)
	if err != nil {
		return result, err
	}

	k.tel.ReportDebug("fetching the list of documents")
	page, err := k.fetch(ctx, client)
	if err != nil {
		return result, err
	}

	k.tel.ReportDebug("parsing list of documents")
	records := k.extract(ctx, page)
	result.Extracted = len(records)
	k.tel.ReportCount(report_konnector_records, int64(len(records)))
	if len(records) == 0 {
		k.tel.ReportWarning(
			report_konnector_run,
			"no invoice records after filtering",
			page.Url.String(),
		)
		return result, nil
	}

	bills, err := ToBills(records)
	if err != nil {
		k.tel.ReportBroken(report_konnector_to_bills, err)
		return result, err
	}

	k.tel.ReportDebug("saving bills", len(bills))
	saved, err := k.save(ctx, client, bills, fields)
	result.Saved = len(saved.Saved)
	result.Skipped = saved.Skipped
	if err != nil {
		return result, err
	}

	savedCounter.Add(ctx, int64(result.Saved))
	k.tel.ReportCount(report_konnector_saved, int64(result.Saved))
	k.tel.ReportCount(report_konnector_skipped, int64(result.Skipped))
	return result, nil
}

func (k Konnector) authenticate(ctx context.Context, client *cageots.Client, fields Fields) error {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	err := client.Authenticate(ctx, fields.Login, fields.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authenticate")
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

func (k Konnector) fetch(ctx context.Context, client *cageots.Client) (cageots.OrderHistoryPage, error) {
	ctx, span := tracer.Start(ctx, "FetchOrderHistory")
	defer span.End()

	page, err := client.OrderHistory(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch order history")
		return page, err
	}
	return page, nil
}

func (k Konnector) extract(ctx context.Context, page cageots.OrderHistoryPage) []cageots.InvoiceRecord {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	extractor := cageots.NewExtractor(cageots.ExtractorOptions{
		Variant: k.opts.Variant,
		PageUrl: page.Url,
	}, k.tel)
	records := extractor.Extract(page.Doc)

	span.SetAttributes(attribute.Int("records", len(records)))
	return records
}

func (k Konnector) save(ctx context.Context, client *cageots.Client, bills []billstore.Bill, fields Fields) (billstore.SaveResult, error) {
	ctx, span := tracer.Start(ctx, "SaveBills")
	defer span.End()

	result, err := k.store.SaveBills(ctx, client, bills, billstore.SavePolicy{
		Identifiers:   k.opts.Variant.Identifiers,
		SourceAccount: fields.Login,
		Keys:          billstore.DefaultKeys,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save bills")
	}
	span.SetAttributes(
		attribute.Int("saved", len(result.Saved)),
		attribute.Int("skipped", result.Skipped),
	)
	return result, err
}

// ToBills converts invoice records into what the bill store persists.
func ToBills(records []cageots.InvoiceRecord) ([]billstore.Bill, error) {
	bills := make([]billstore.Bill, len(records))
	for i, r := range records {
		metadata, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata of %s: %w", r.VendorRef, err)
		}
		bills[i] = billstore.Bill{
			Vendor:    r.Vendor,
			VendorRef: r.VendorRef,
			Date:      r.Date,
			Amount:    r.Amount,
			Currency:  r.Currency,
			FileUrl:   r.FileUrl,
			Filename:  r.Filename,
			Metadata:  metadata,
		}
	}
	return bills, nil
}
