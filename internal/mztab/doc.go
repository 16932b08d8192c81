// Package mztab implements the column model, line parsing and cross-reference
// validation engine for the tabular sections of mzTab files.
//
// An mzTab file mixes a metadata section (MTD lines) with up to four tabular
// sections: protein (PRH/PRT), peptide (PEH/PEP), PSM (PSH/PSM) and small
// molecule (SMH/SML). This package owns everything that happens once the
// metadata has been collected:
//
//   - Metadata: the store of indexed elements (ms_run[1], assay[2], ...) and
//     their attributes, queried through [EntityResolver].
//   - Columns: [Column] values created by a [ColumnFactory], one factory per
//     section instance. Fixed columns come from the section catalog; optional
//     columns (opt_ms_run[1]_name, opt_global_name) are appended as they are
//     discovered in the header line.
//   - Mapping: [PositionMapping] translates the physical order of a concrete
//     header line into logical column positions.
//   - Parsing: [HeaderLineParser] builds the factory and mapping from a header
//     line, [DataLineParser] converts each data line into a typed [Row].
//   - Errors: every finding is an [*Error] of a catalogued [ErrorType],
//     appended to a shared [ErrorList].
//
// # Flow
//
//	md := mztab.NewMetadata()
//	md.AddMsRun(1, "file:///data/run1.mzML")
//
//	errs := mztab.NewErrorList(mztab.LevelError, 0)
//	hp := mztab.NewHeaderLineParser(mztab.SectionPSM, md, errs)
//	factory, mapping, _, err := hp.Parse(1, headerLine)
//	if err != nil {
//	    return err // structurally unusable header
//	}
//
//	dp := mztab.NewDataLineParser(factory, mapping, md, errs)
//	row, raised, err := dp.Parse(2, dataLine)
//
// Parsing is fail-soft: findings are recorded and parsing continues; the only
// Go errors returned are structural (no usable header, decreasing line
// numbers, error cap reached).
//
// # Concurrency
//
// Nothing in this package is safe for concurrent mutation. A Metadata value
// may be shared read-only between sections of one file; each section gets its
// own factory, mapping and error list.
package mztab
