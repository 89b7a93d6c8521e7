package cageots

import (
	"cageots-konnector/internal/assert"
	"cageots-konnector/internal/chrono"
	"cageots-konnector/internal/telemetry"
	"cageots-konnector/lib/htmlutil"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_rows      = "extractor.rows"
	report_extractor_normalize = "extractor.normalize"
	report_extractor_records   = "extractor.records"
)

// <table id="order-list" class="table table-bordered footab">
//
//	<tbody>
//	  <tr class="first_item ">
//	    <td data-value="20211021231457" class="history_date bold"></td>
//	    <td class="history_price" data-value="86.15"></td>
//	    <td class="history_link bold"><a>DDVMDIJTQ</a></td>
//	    <td class="history_state"><span>Commande traitée</span></td>
//	    <td class="history_invoice"><a href="...?controller=pdf-invoice&id_order=129403"></a></td>
const (
	selectRows      = "table#order-list tbody tr"
	selectDate      = "td.history_date"
	selectAmount    = "td.history_price"
	selectVendorRef = "td.history_link a"
	selectStatus    = "td.history_state span"
	selectInvoice   = "td.history_invoice a"
)

var (
	errMissingField = errors.New("missing")
	errDuplicate    = errors.New("duplicate invoice")
)

// ExtractRows reads every row of the order table. Rows without a date, an
// amount or a reference are left out, the returned errors say why.
func ExtractRows(doc *goquery.Document) ([]RawOrderRow, []error) {
	var rows []RawOrderRow
	var skipped []error

	doc.Find(selectRows).Each(func(i int, tr *goquery.Selection) {
		row := RawOrderRow{
			Date:        htmlutil.CleanText(tr.Find(selectDate).First().AttrOr("data-value", "")),
			Amount:      htmlutil.CleanText(tr.Find(selectAmount).First().AttrOr("data-value", "")),
			VendorRef:   htmlutil.SelectionText(tr.Find(selectVendorRef)),
			OrderStatus: htmlutil.SelectionText(tr.Find(selectStatus)),
			FileUrl:     tr.Find(selectInvoice).First().AttrOr("href", ""),
		}

		var missing string
		switch {
		case row.Date == "":
			missing = "date"
		case row.Amount == "":
			missing = "amount"
		case row.VendorRef == "":
			missing = "vendorRef"
		}
		if missing != "" {
			skipped = append(skipped, fmt.Errorf(
				"row %d: %w",
				i,
				&FieldError{Field: missing, Err: errMissingField},
			))
			return
		}

		rows = append(rows, row)
	})

	return rows, skipped
}

type ExtractorOptions struct {
	Variant Variant
	// PageUrl is the url the listing was fetched from, relative invoice links
	// are resolved against it.
	PageUrl *url.URL
	// Location is the wall clock order dates are read in, defaults to
	// Europe/Paris.
	Location *time.Location
}

// Extractor turns the order history page into invoice records.
type Extractor struct {
	variant  Variant
	pageUrl  *url.URL
	location *time.Location
	tel      telemetry.API
}

func NewExtractor(opts ExtractorOptions, tel telemetry.API) Extractor {
	assert.NotNil(tel)

	location := opts.Location
	if location == nil {
		location = chrono.Paris()
	}
	variant := opts.Variant
	if len(variant.AcceptedStatuses) == 0 {
		variant = VariantCurrent
	}

	return Extractor{
		variant:  variant,
		pageUrl:  opts.PageUrl,
		location: location,
		tel:      telemetry.NewScopedAPI("cageots", tel),
	}
}

// Normalize validates a row and builds its invoice record.
func (e Extractor) Normalize(row RawOrderRow) (InvoiceRecord, error) {
	date, err := NormalizeDate(row.Date, e.location)
	if err != nil {
		return InvoiceRecord{}, err
	}
	amount, err := NormalizeAmount(row.Amount)
	if err != nil {
		return InvoiceRecord{}, err
	}
	fileUrl, err := htmlutil.ResolveLink(e.pageUrl, row.FileUrl)
	if err != nil {
		return InvoiceRecord{}, &FieldError{Field: "fileUrl", Value: row.FileUrl, Err: err}
	}
	if fileUrl == "" {
		return InvoiceRecord{}, &FieldError{Field: "fileUrl", Err: errMissingField}
	}

	return InvoiceRecord{
		Date:      date,
		Amount:    amount,
		VendorRef: row.VendorRef,
		Currency:  CURRENCY,
		Vendor:    VENDOR,
		FileUrl:   fileUrl,
		Filename:  FormatFilename(date, amount, row.VendorRef),
		Metadata:  NewMetadata(date),
	}, nil
}

// Extract returns the invoice records of the page. A page without the order
// table yields an empty slice, rows that fail to normalize are reported and
// skipped.
func (e Extractor) Extract(doc *goquery.Document) []InvoiceRecord {
	rows, skipped := ExtractRows(doc)
	for _, err := range skipped {
		e.tel.ReportWarning(report_extractor_rows, err)
	}

	records := []InvoiceRecord{}
	seen := make(map[DedupKey]struct{})
	for _, row := range rows {
		if !e.variant.Accepts(row.OrderStatus) {
			e.tel.ReportDebug("skip order status", row.VendorRef, row.OrderStatus)
			continue
		}

		record, err := e.Normalize(row)
		if err != nil {
			e.tel.ReportWarning(report_extractor_normalize, err, row.VendorRef)
			continue
		}

		key := record.DedupKey()
		if _, exists := seen[key]; exists {
			e.tel.ReportWarning(report_extractor_normalize, errDuplicate, row.VendorRef)
			continue
		}
		seen[key] = struct{}{}

		records = append(records, record)
	}

	e.tel.ReportCount(report_extractor_records, int64(len(records)))
	return records
}
