package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// RecordingAPI keeps every report in memory so callers can assert on what a
// component logged. It optionally forwards to another API.
type RecordingAPI struct {
	inner   API
	lock    *sync.Mutex
	reports *[]Report
}

func NewRecordingAPI(inner API) RecordingAPI {
	return RecordingAPI{
		inner:   inner,
		lock:    &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (r RecordingAPI) record(report Report) {
	r.lock.Lock()
	defer r.lock.Unlock()
	*r.reports = append(*r.reports, report)
}

func (r RecordingAPI) ReportBroken(id string, params ...any) {
	r.record(Report{Kind: REPORT_BROKEN, Id: id, Params: params})
	if r.inner != nil {
		r.inner.ReportBroken(id, params...)
	}
}

func (r RecordingAPI) ReportWarning(id string, params ...any) {
	r.record(Report{Kind: REPORT_WARNING, Id: id, Params: params})
	if r.inner != nil {
		r.inner.ReportWarning(id, params...)
	}
}

func (r RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record(Report{Kind: REPORT_DEBUG, Id: msg, Params: params})
	if r.inner != nil {
		r.inner.ReportDebug(msg, params...)
	}
}

func (r RecordingAPI) ReportCount(id string, count int64) {
	r.record(Report{Kind: REPORT_COUNT, Id: id, Count: count})
	if r.inner != nil {
		r.inner.ReportCount(id, count)
	}
}

// Reports returns a copy of the reports of the given kind.
func (r RecordingAPI) Reports(kind ReportKind) []Report {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []Report
	for _, report := range *r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Has returns true if a report of the given kind has an id containing idPart.
func (r RecordingAPI) Has(kind ReportKind, idPart string) bool {
	for _, report := range r.Reports(kind) {
		if strings.Contains(report.Id, idPart) {
			return true
		}
	}
	return false
}
