package mztab

// error_types.go is the finding catalogue.
//
// # Format (F1001-F1099)
//
//	F1001 LinePrefix          line does not start with the expected marker
//	F1002 UnrecognizedColumn  header token matches no column of the section
//	F1003 OptionalColumn      opt_ header with a malformed element or name
//	F1004 MissingColumn       required column absent from the header line
//	F1005 ColumnCount         data line has more cells than the header
//	F1006 EmptyCell           empty cell, "null" must be used instead
//	F1007 Integer             cell is not an integer
//	F1008 Double              cell is not a double (INF, -INF and NaN allowed)
//	F1009 Boolean             cell is not 0 or 1
//	F1010 Reliability         cell is not 1, 2 or 3
//	F1011 URI                 cell is not an absolute URI
//	F1012 Param               cell is not [cv, accession, name, value]
//	F1013 ParamList           one of the |-separated params is malformed
//	F1014 SpectraRef          spectra_ref grammar error or unknown ms_run
//	F1015 IndexedColumn       indexed column header with a bad index
//	F1016 MetadataLine        MTD line is not "MTD<tab>key<tab>value"
//	F1017 HeaderMissing       data line before its section header
//	F1018 List                list cell with an empty item
//
// # Logical (L2001-L2099)
//
//	L2001 SpectraRefLocation  referenced ms_run has no location (downgradable)
//	L2002 DuplicateColumn     the same header appears twice; last one wins
//	L2003 ElementNotDefined   column refers to an element missing from metadata
//	L2004 NotNull             required value is "null"
//	L2005 DuplicateMetadata   the same MTD key is declared twice
//
// Codes are stable: reports and stored results refer to them.

import "sort"

var (
	FormatLinePrefix = &ErrorType{
		Category: CategoryFormat, Code: 1001, Level: LevelError, Title: "LinePrefix",
		template: "line should start with %[1]q but starts with %[2]q",
	}
	FormatUnrecognizedColumn = &ErrorType{
		Category: CategoryFormat, Code: 1002, Level: LevelError, Title: "UnrecognizedColumn",
		template: "column %[1]q is not a recognized column of the %[2]s section",
	}
	FormatOptionalColumn = &ErrorType{
		Category: CategoryFormat, Code: 1003, Level: LevelError, Title: "OptionalColumn",
		template: "optional column %[1]q should be opt_{ELEMENT[INDEX]|global}_{NAME}",
	}
	FormatMissingColumn = &ErrorType{
		Category: CategoryFormat, Code: 1004, Level: LevelError, Title: "MissingColumn",
		template: "required column %[1]q is missing from the %[2]s header",
	}
	FormatColumnCount = &ErrorType{
		Category: CategoryFormat, Code: 1005, Level: LevelError, Title: "ColumnCount",
		template: "line has %[1]d columns but the header defines %[2]d",
	}
	FormatEmptyCell = &ErrorType{
		Category: CategoryFormat, Code: 1006, Level: LevelError, Title: "EmptyCell",
		template: "empty value in column %[1]q, use \"null\" for missing values",
	}
	FormatInteger = &ErrorType{
		Category: CategoryFormat, Code: 1007, Level: LevelError, Title: "Integer",
		template: "%[1]q in column %[2]q is not an integer",
	}
	FormatDouble = &ErrorType{
		Category: CategoryFormat, Code: 1008, Level: LevelError, Title: "Double",
		template: "%[1]q in column %[2]q is not a double (INF, -INF and NaN are allowed)",
	}
	FormatBoolean = &ErrorType{
		Category: CategoryFormat, Code: 1009, Level: LevelError, Title: "Boolean",
		template: "%[1]q in column %[2]q should be 0 or 1",
	}
	FormatReliability = &ErrorType{
		Category: CategoryFormat, Code: 1010, Level: LevelError, Title: "Reliability",
		template: "%[1]q in column %[2]q should be 1, 2 or 3",
	}
	FormatURI = &ErrorType{
		Category: CategoryFormat, Code: 1011, Level: LevelError, Title: "URI",
		template: "%[1]q in column %[2]q is not an absolute URI",
	}
	FormatParam = &ErrorType{
		Category: CategoryFormat, Code: 1012, Level: LevelError, Title: "Param",
		template: "%[1]q in column %[2]q should be [CV label, accession, name, value]",
	}
	FormatParamList = &ErrorType{
		Category: CategoryFormat, Code: 1013, Level: LevelError, Title: "ParamList",
		template: "%[1]q in column %[2]q should be a |-separated list of params",
	}
	FormatSpectraRef = &ErrorType{
		Category: CategoryFormat, Code: 1014, Level: LevelError, Title: "SpectraRef",
		template: "%[1]q in column %[2]q: %[3]s",
	}
	FormatIndexedColumn = &ErrorType{
		Category: CategoryFormat, Code: 1015, Level: LevelError, Title: "IndexedColumn",
		template: "column %[1]q should be %[2]s[INDEX] with a positive INDEX",
	}
	FormatMetadataLine = &ErrorType{
		Category: CategoryFormat, Code: 1016, Level: LevelError, Title: "MetadataLine",
		template: "metadata line %[1]q should be MTD<tab>key<tab>value",
	}
	FormatHeaderMissing = &ErrorType{
		Category: CategoryFormat, Code: 1017, Level: LevelError, Title: "HeaderMissing",
		template: "%[1]s line found before the %[2]s header line",
	}
	FormatList = &ErrorType{
		Category: CategoryFormat, Code: 1018, Level: LevelError, Title: "List",
		template: "%[1]q in column %[2]q should be a list with no empty items",
	}

	LogicalSpectraRefLocation = &ErrorType{
		Category: CategoryLogical, Code: 2001, Level: LevelError, Downgradable: true, Title: "SpectraRefLocation",
		template: "%[1]q in column %[2]q refers to %[3]s, which has no %[3]s-location in metadata",
	}
	LogicalDuplicateColumn = &ErrorType{
		Category: CategoryLogical, Code: 2002, Level: LevelError, Title: "DuplicateColumn",
		template: "column %[1]q appears more than once, the occurrence at position %[2]d is used",
	}
	LogicalElementNotDefined = &ErrorType{
		Category: CategoryLogical, Code: 2003, Level: LevelError, Title: "ElementNotDefined",
		template: "column %[1]q refers to %[2]s, which is not declared in metadata",
	}
	LogicalNotNull = &ErrorType{
		Category: CategoryLogical, Code: 2004, Level: LevelError, Title: "NotNull",
		template: "column %[1]q must not be null",
	}
	LogicalDuplicateMetadata = &ErrorType{
		Category: CategoryLogical, Code: 2005, Level: LevelWarn, Title: "DuplicateMetadata",
		template: "metadata key %[1]q is declared more than once, the last value is used",
	}
)

var errorTypes = []*ErrorType{
	FormatLinePrefix,
	FormatUnrecognizedColumn,
	FormatOptionalColumn,
	FormatMissingColumn,
	FormatColumnCount,
	FormatEmptyCell,
	FormatInteger,
	FormatDouble,
	FormatBoolean,
	FormatReliability,
	FormatURI,
	FormatParam,
	FormatParamList,
	FormatSpectraRef,
	FormatIndexedColumn,
	FormatMetadataLine,
	FormatHeaderMissing,
	FormatList,
	LogicalSpectraRefLocation,
	LogicalDuplicateColumn,
	LogicalElementNotDefined,
	LogicalNotNull,
	LogicalDuplicateMetadata,
}

// ErrorTypes returns the catalogue ordered by category then code.
func ErrorTypes() []*ErrorType {
	out := make([]*ErrorType, len(errorTypes))
	copy(out, errorTypes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// LookupErrorType returns the type with the given ID ("F1014", "L2001").
func LookupErrorType(id string) (*ErrorType, bool) {
	for _, t := range errorTypes {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}
