package internal

// MasterCols is the canonical asset schema. Every record set in the pipeline
// is reduced to exactly these columns, in this order, before it crosses a
// stage boundary.
var MasterCols = []string{
	"QR Code", "Building", "Description", "Asset Group", "UBC Tag", "Serial", "Model",
	"Manufacturer", "Attribute", "Ampere", "Supply From", "Volts", "Location",
	"Diameter", "Technical Safety BC", "Year",
}

// Ledger bookkeeping columns appended to the canonical set in sdi_print_out.
const (
	ColPackageID = "id_print_out"
	ColPrintOut  = "print_out"
	ColDate      = "date"
	ColTime      = "time"
)

// PrintOutCols is the full ledger schema: canonical fields denormalized at
// time of packaging plus the bookkeeping columns.
var PrintOutCols = append(append([]string{}, MasterCols...), ColPackageID, ColPrintOut, ColDate, ColTime)

// RenameMap maps canonical column names to the downstream import schema.
var RenameMap = map[string]string{
	"QR Code":             "Code",
	"Building":            "Property",
	"Description":         "Description",
	"Asset Group":         "Asset Group",
	"UBC Tag":             "Asset Tag",
	"Serial":              "Serial Number",
	"Model":               "Model",
	"Manufacturer":        "Make",
	"Attribute":           "Attribute Set",
	"Ampere":              "Amperage Rating",
	"Supply From":         "Fed From Equipment ID",
	"Volts":               "Voltage Rating",
	"Location":            "Space Details",
	"Diameter":            "Diameter",
	"Technical Safety BC": "Previous (OLD) ID",
	"Year":                "Date Of Manufacture Or Construction",
}

// ConstCols are fixed flag columns the import template requires on every row.
var ConstCols = map[string]bool{
	"Is Missing (Y/N)":                       false,
	"Simple":                                 true,
	"Is Planned Maintenance Required? (Y/N)": false,
}

// RequiredCols must be non-blank on every row before a package is created.
var RequiredCols = []string{"Description", "Asset Group", "Attribute"}

// PanelsClassification is the fixed classification code force-assigned to
// assets whose group is "panels", bypassing the Asset_Group lookup.
const PanelsClassification = "EL.21.306.4067"

// Building is one row of the Buildings lookup table.
type Building struct {
	Code string
	Name string
}

// Classification is one row of the Asset_Group lookup table.
type Classification struct {
	Name               string
	FullClassification string
}

type FlashLevel string

const (
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashDanger  FlashLevel = "danger"
	FlashSuccess FlashLevel = "success"

	// FlashConfirmReplace carries "CONFIRM:<codes>", the QR codes already in
	// the ledger; the dashboard renders a replace-confirmation prompt.
	FlashConfirmReplace FlashLevel = "confirmation"
	// FlashConfirmResend carries "RESEND_CONFIRM:<codes>", the QR codes
	// already sent downstream; the dashboard renders a re-send prompt.
	FlashConfirmResend FlashLevel = "resend_confirmation"
)

// Flash is a one-line status message for the dashboard collaborator.
type Flash struct {
	Level   FlashLevel
	Message string
}

// ExportFile is a produced import workbook.
type ExportFile struct {
	Name string
	Data []byte
}
