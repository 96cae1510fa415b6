// Package core provides the business logic for remote file imports.
//
// An import run retrieves delimited files from an FTP or SFTP server, turns
// their rows into records, submits one batch per file to an Importer and
// persists a single RunReport through a LogStore.
//
// # Import Kinds
//
// Kinds are registered at init time using [Register]. Each [ImportKind] is data
// plus optional hooks:
//
//	core.Register(core.ImportKind{
//	    Code:            "stock",
//	    ColumnsToRename: map[string]string{"EAN": "sku", "Qty": "qty"},
//	    ColumnsToIgnore: []string{"Warehouse"},
//	    FixedValues:     map[string]string{"source": "logistic"},
//	    Format:          formatStock,
//	})
//
// # Run
//
// [Pipeline.Run] moves through idle, listing, fetching, importing, reporting
// and done. Settings come from a [config.Scoped] provider keyed by
// (group, field). Files are staged under <var>/logistic/<code>/ and kept.
//
// Per-file failures become report messages and mark the run as failed without
// stopping it. Remote path, staging write and connection type failures abort
// the run; the report is still persisted with the error text and the error is
// returned.
//
// # Parsing
//
// Staged files pass through BOM stripping, charset decoding and enclosure
// normalization before encoding/csv (see [WrapForParsing]). The first row is
// the header; rows with a blank first column are skipped.
package core
