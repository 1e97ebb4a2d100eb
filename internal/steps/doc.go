// Package steps defines the wizard's views and the immutable step table that
// links them.
//
// A step table is an ordered list of rows. Each row names a view together with
// the view reached by "Back" and the view reached by "Next":
//
//	recipient           home          → selectFile
//	selectFile          recipient     → sendDocument
//	sendDocument        selectFile    → documentValidation
//	documentValidation  sendDocument  → documentValidation
//
// # Views
//
// View is a closed enumeration. Names from files or from the network are parsed
// with ParseView (or the YAML/text unmarshallers), so an unknown name is
// rejected when the data is decoded and never reaches a table lookup.
//
// # Table Invariants
//
// NewTable rejects a table unless:
//   - it has at least one row and no view appears twice
//   - every Previous/Next is a row or a boundary view (home and exit, plus
//     anything passed to WithBoundary)
//   - walking Next from the first row visits every row once and ends at a
//     boundary or at a row whose Next is itself
//
// Construction errors are *TableError values. Looking up a view without a row
// returns *UnknownStepError, which matches ErrUnknownStep.
//
// # Loading From Disk
//
//	table, err := steps.LoadTable("workflow.yaml")
//	if err != nil {
//	    fmt.Println(steps.GetTroubleshootingHint(err))
//	}
package steps
