package mztab

import (
	"fmt"
	"sort"
)

// Section identifies one tabular block of an mzTab file.
type Section int

const (
	SectionProtein Section = iota + 1
	SectionPeptide
	SectionPSM
	SectionSmallMolecule
)

// ColumnSpec describes one fixed column of a section.
type ColumnSpec struct {
	Name     string     // header text, or the base name for indexed columns
	Type     ColumnType // semantic cell type
	Required bool       // must appear in the header line
	NotNull  bool       // cells must not be "null"

	// Indexed columns appear as Name[n]; IndexKind, when set, names the
	// metadata element family the index refers to.
	Indexed   bool
	IndexKind EntityKind

	// Sep separates the items of list-typed cells; '|' when zero.
	Sep rune
}

// SectionInfo is the catalog entry of a section.
type SectionInfo struct {
	Section      Section
	Name         string
	HeaderMarker string
	DataMarker   string
	Columns      []ColumnSpec
}

var sections = map[Section]SectionInfo{
	SectionProtein: {
		Section: SectionProtein, Name: "protein", HeaderMarker: "PRH", DataMarker: "PRT",
		Columns: []ColumnSpec{
			{Name: "accession", Type: TypeString, Required: true, NotNull: true},
			{Name: "description", Type: TypeString, Required: true},
			{Name: "taxid", Type: TypeInteger, Required: true},
			{Name: "species", Type: TypeString, Required: true},
			{Name: "database", Type: TypeString, Required: true},
			{Name: "database_version", Type: TypeString, Required: true},
			{Name: "search_engine", Type: TypeParamList, Required: true},
			{Name: "best_search_engine_score", Type: TypeDouble, Required: true, Indexed: true, IndexKind: KindProteinSearchEngineScore},
			{Name: "reliability", Type: TypeReliability},
			{Name: "ambiguity_members", Type: TypeStringList, Required: true, Sep: ','},
			{Name: "modifications", Type: TypeString, Required: true},
			{Name: "uri", Type: TypeURI},
			{Name: "go_terms", Type: TypeStringList},
			{Name: "protein_coverage", Type: TypeDouble},
			{Name: "num_psms_ms_run", Type: TypeInteger, Indexed: true, IndexKind: KindMsRun},
			{Name: "num_peptides_distinct_ms_run", Type: TypeInteger, Indexed: true, IndexKind: KindMsRun},
			{Name: "num_peptides_unique_ms_run", Type: TypeInteger, Indexed: true, IndexKind: KindMsRun},
			{Name: "protein_abundance_assay", Type: TypeDouble, Indexed: true, IndexKind: KindAssay},
			{Name: "protein_abundance_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "protein_abundance_stdev_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "protein_abundance_std_error_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
		},
	},
	SectionPeptide: {
		Section: SectionPeptide, Name: "peptide", HeaderMarker: "PEH", DataMarker: "PEP",
		Columns: []ColumnSpec{
			{Name: "sequence", Type: TypeString, Required: true, NotNull: true},
			{Name: "accession", Type: TypeString, Required: true},
			{Name: "unique", Type: TypeBoolean, Required: true},
			{Name: "database", Type: TypeString, Required: true},
			{Name: "database_version", Type: TypeString, Required: true},
			{Name: "search_engine", Type: TypeParamList, Required: true},
			{Name: "best_search_engine_score", Type: TypeDouble, Required: true, Indexed: true, IndexKind: KindPeptideSearchEngineScore},
			{Name: "reliability", Type: TypeReliability},
			{Name: "modifications", Type: TypeString, Required: true},
			{Name: "retention_time", Type: TypeDoubleList, Required: true},
			{Name: "retention_time_window", Type: TypeDoubleList, Required: true},
			{Name: "charge", Type: TypeDouble, Required: true},
			{Name: "mass_to_charge", Type: TypeDouble, Required: true},
			{Name: "uri", Type: TypeURI},
			{Name: "spectra_ref", Type: TypeSpectraRef, Required: true},
			{Name: "peptide_abundance_assay", Type: TypeDouble, Indexed: true, IndexKind: KindAssay},
			{Name: "peptide_abundance_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "peptide_abundance_stdev_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "peptide_abundance_std_error_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
		},
	},
	SectionPSM: {
		Section: SectionPSM, Name: "PSM", HeaderMarker: "PSH", DataMarker: "PSM",
		Columns: []ColumnSpec{
			{Name: "sequence", Type: TypeString, Required: true, NotNull: true},
			{Name: "PSM_ID", Type: TypeInteger, Required: true, NotNull: true},
			{Name: "accession", Type: TypeString, Required: true, NotNull: true},
			{Name: "unique", Type: TypeBoolean, Required: true},
			{Name: "database", Type: TypeString, Required: true},
			{Name: "database_version", Type: TypeString, Required: true},
			{Name: "search_engine", Type: TypeParamList, Required: true},
			{Name: "search_engine_score", Type: TypeDouble, Required: true, Indexed: true, IndexKind: KindPSMSearchEngineScore},
			{Name: "reliability", Type: TypeReliability},
			{Name: "modifications", Type: TypeString, Required: true},
			{Name: "retention_time", Type: TypeDoubleList, Required: true},
			{Name: "charge", Type: TypeInteger, Required: true},
			{Name: "exp_mass_to_charge", Type: TypeDouble, Required: true},
			{Name: "calc_mass_to_charge", Type: TypeDouble, Required: true},
			{Name: "uri", Type: TypeURI},
			{Name: "spectra_ref", Type: TypeSpectraRef, Required: true, NotNull: true},
			{Name: "pre", Type: TypeString, Required: true},
			{Name: "post", Type: TypeString, Required: true},
			{Name: "start", Type: TypeString, Required: true},
			{Name: "end", Type: TypeString, Required: true},
		},
	},
	SectionSmallMolecule: {
		Section: SectionSmallMolecule, Name: "small molecule", HeaderMarker: "SMH", DataMarker: "SML",
		Columns: []ColumnSpec{
			{Name: "identifier", Type: TypeStringList, Required: true, NotNull: true},
			{Name: "chemical_formula", Type: TypeString, Required: true},
			{Name: "smiles", Type: TypeStringList, Required: true},
			{Name: "inchi_key", Type: TypeStringList, Required: true},
			{Name: "description", Type: TypeString, Required: true},
			{Name: "exp_mass_to_charge", Type: TypeDouble, Required: true},
			{Name: "calc_mass_to_charge", Type: TypeDouble, Required: true},
			{Name: "charge", Type: TypeInteger, Required: true},
			{Name: "retention_time", Type: TypeDoubleList, Required: true},
			{Name: "taxid", Type: TypeInteger, Required: true},
			{Name: "species", Type: TypeString, Required: true},
			{Name: "database", Type: TypeString, Required: true},
			{Name: "database_version", Type: TypeString, Required: true},
			{Name: "reliability", Type: TypeReliability},
			{Name: "uri", Type: TypeURI},
			{Name: "spectra_ref", Type: TypeSpectraRef, Required: true},
			{Name: "search_engine", Type: TypeParamList, Required: true},
			{Name: "best_search_engine_score", Type: TypeDouble, Required: true, Indexed: true, IndexKind: KindSmallMoleculeSearchEngineScore},
			{Name: "modifications", Type: TypeString, Required: true},
			{Name: "smallmolecule_abundance_assay", Type: TypeDouble, Indexed: true, IndexKind: KindAssay},
			{Name: "smallmolecule_abundance_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "smallmolecule_abundance_stdev_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
			{Name: "smallmolecule_abundance_std_error_study_variable", Type: TypeDouble, Indexed: true, IndexKind: KindStudyVariable},
		},
	},
}

// Info returns the catalog entry of s. It panics on an unknown section,
// which can only come from a programming error.
func (s Section) Info() SectionInfo {
	info, ok := sections[s]
	if !ok {
		panic(fmt.Sprintf("mztab: unknown section %d", int(s)))
	}
	return info
}

// String returns the section name.
func (s Section) String() string {
	if info, ok := sections[s]; ok {
		return info.Name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Section) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Section) UnmarshalText(text []byte) error {
	for sec, info := range sections {
		if info.Name == string(text) {
			*s = sec
			return nil
		}
	}
	return fmt.Errorf("%w: unknown section %q", ErrInvalidArgument, text)
}

// SectionByHeaderMarker returns the section whose header line starts with marker.
func SectionByHeaderMarker(marker string) (Section, bool) {
	for s, info := range sections {
		if info.HeaderMarker == marker {
			return s, true
		}
	}
	return 0, false
}

// SectionByDataMarker returns the section whose data lines start with marker.
func SectionByDataMarker(marker string) (Section, bool) {
	for s, info := range sections {
		if info.DataMarker == marker {
			return s, true
		}
	}
	return 0, false
}

// Sections returns all sections in file order.
func Sections() []Section {
	out := make([]Section, 0, len(sections))
	for s := range sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// spec returns the column spec named name and its 1-based ordinal.
func (info SectionInfo) spec(name string) (ColumnSpec, int, bool) {
	for i, cs := range info.Columns {
		if cs.Name == name {
			return cs, i + 1, true
		}
	}
	return ColumnSpec{}, 0, false
}
