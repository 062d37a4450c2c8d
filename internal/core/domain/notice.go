package domain

// RawNotice is a notice payload exactly as the backend sent it. Field names
// differ between backend versions and data sources.
type RawNotice map[string]any

// RawItem is a notice line item as sent by the backend.
type RawItem map[string]any

// Notice is the canonical projection of a RawNotice.
type Notice struct {
	Key               string
	TaxID             string
	LegalName         string
	ObjectDescription string
	EstimatedTotal    *float64

	Process         string
	Modality        string
	Year            string
	Sequence        string
	ProposalOpening string
	ProposalClosing string
	AdditionalInfo  string

	Raw RawNotice
}

// Linkable reports whether the notice can be addressed by key.
func (n Notice) Linkable() bool {
	return n.Key != ""
}

// NoticeItem is the canonical projection of a RawItem.
type NoticeItem struct {
	Key         string
	Description string
	Quantity    string
	UnitValue   *float64
	Unit        string

	Raw RawItem
}

// ExportFormat names a bulk export file type.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Valid reports whether the backend offers this export.
func (f ExportFormat) Valid() bool {
	return f == ExportCSV || f == ExportXLSX
}
