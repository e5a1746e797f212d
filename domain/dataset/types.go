package dataset

import (
	"encoding/json"
	"strconv"
	"time"

	"healthinsights/domain/core"
)

// Column names a header cell exactly as it appears in the source file.
type Column string

const (
	ColGender       Column = "Gender"
	ColCondition    Column = "Medical Condition"
	ColHospital     Column = "Hospital"
	ColAge          Column = "Age"
	ColBilling      Column = "Billing Amount"
	ColAdmission    Column = "Date of Admission"
	ColDischarge    Column = "Discharge Date"
	ColLengthOfStay Column = "Length of Stay"
)

// RequiredColumns must all be present in the source header.
var RequiredColumns = []Column{
	ColGender,
	ColCondition,
	ColHospital,
	ColAge,
	ColBilling,
	ColAdmission,
	ColDischarge,
}

// ColumnKind describes how a column's values are stored
type ColumnKind string

const (
	KindCategorical ColumnKind = "categorical"
	KindNumeric     ColumnKind = "numeric"
	KindDate        ColumnKind = "date"
	KindUnknown     ColumnKind = "unknown"
)

// Kind returns the storage kind of c.
func (c Column) Kind() ColumnKind {
	switch c {
	case ColGender, ColCondition, ColHospital:
		return KindCategorical
	case ColAge, ColBilling, ColLengthOfStay:
		return KindNumeric
	case ColAdmission, ColDischarge:
		return KindDate
	default:
		return KindUnknown
	}
}

// Validate returns ErrUnknownColumn for columns no record carries.
func (c Column) Validate() error {
	if c.Kind() == KindUnknown {
		return core.NewUnknownColumnError(string(c))
	}
	return nil
}

func (c Column) String() string { return string(c) }

// Encounter holds the input fields of one patient-encounter row.
// Empty categorical strings are treated as missing.
type Encounter struct {
	Gender        string
	Condition     string
	Hospital      string
	Age           core.Optional[float64]
	BillingAmount core.Optional[float64]
	AdmissionDate core.Optional[time.Time]
	DischargeDate core.Optional[time.Time]
}

// Record is an Encounter plus its derived Length of Stay.
type Record struct {
	Encounter
	lengthOfStay core.Optional[int]
}

// NewRecord derives Length of Stay from the two dates. If either date is
// missing the stay is missing too.
func NewRecord(e Encounter) Record {
	r := Record{Encounter: e}
	admitted, okA := e.AdmissionDate.Get()
	discharged, okD := e.DischargeDate.Get()
	if okA && okD {
		r.lengthOfStay = core.Some(core.DaysBetween(admitted, discharged))
	}
	return r
}

// LengthOfStay returns the derived stay in whole days.
func (r Record) LengthOfStay() core.Optional[int] {
	return r.lengthOfStay
}

// Category returns the grouping key of r for col. Dates render as
// YYYY-MM-DD and numbers in their shortest form. Missing values report false.
func (r Record) Category(col Column) (string, bool) {
	switch col {
	case ColGender:
		return r.Gender, r.Gender != ""
	case ColCondition:
		return r.Condition, r.Condition != ""
	case ColHospital:
		return r.Hospital, r.Hospital != ""
	case ColAdmission, ColDischarge:
		if d, ok := r.Date(col); ok {
			return core.DateKey(d), true
		}
		return "", false
	case ColAge, ColBilling, ColLengthOfStay:
		if v, ok := r.Number(col); ok {
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
		return "", false
	}
	return "", false
}

// Number returns the numeric value of r for col.
func (r Record) Number(col Column) (float64, bool) {
	switch col {
	case ColAge:
		return r.Age.Get()
	case ColBilling:
		return r.BillingAmount.Get()
	case ColLengthOfStay:
		if d, ok := r.lengthOfStay.Get(); ok {
			return float64(d), true
		}
	}
	return 0, false
}

// Date returns the calendar-date value of r for col.
func (r Record) Date(col Column) (time.Time, bool) {
	switch col {
	case ColAdmission:
		return r.AdmissionDate.Get()
	case ColDischarge:
		return r.DischargeDate.Get()
	}
	return time.Time{}, false
}

type recordJSON struct {
	Gender        string                   `json:"gender"`
	Condition     string                   `json:"medical_condition"`
	Hospital      string                   `json:"hospital"`
	Age           core.Optional[float64]   `json:"age"`
	BillingAmount core.Optional[float64]   `json:"billing_amount"`
	AdmissionDate core.Optional[time.Time] `json:"date_of_admission"`
	DischargeDate core.Optional[time.Time] `json:"discharge_date"`
	LengthOfStay  core.Optional[int]       `json:"length_of_stay"`
}

// MarshalJSON includes the derived Length of Stay.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Gender:        r.Gender,
		Condition:     r.Condition,
		Hospital:      r.Hospital,
		Age:           r.Age,
		BillingAmount: r.BillingAmount,
		AdmissionDate: r.AdmissionDate,
		DischargeDate: r.DischargeDate,
		LengthOfStay:  r.lengthOfStay,
	})
}

// Meta describes where a dataset came from.
type Meta struct {
	Source      string    `json:"source"`
	Fingerprint core.Hash `json:"fingerprint"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Dataset is an immutable, ordered collection of records. Views produced
// by Filter share the parent's Meta.
type Dataset struct {
	records []Record
	meta    Meta
}

// New copies records into a new Dataset.
func New(records []Record, meta Meta) *Dataset {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &Dataset{records: owned, meta: meta}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record by value.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of the records in order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Meta returns the source description.
func (d *Dataset) Meta() Meta {
	return d.meta
}

// Distinct returns the non-missing values of col in first-seen order.
func (d *Dataset) Distinct(col Column) ([]string, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var values []string
	for _, r := range d.records {
		v, ok := r.Category(col)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values, nil
}
