package mztab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// Column Tests
// ----------------------------------------------------------------------------

func TestOptionColumnHeader(t *testing.T) {
	run1 := IndexedElement{Kind: KindMsRun, Index: 1}
	assay2 := IndexedElement{Kind: KindAssay, Index: 2}

	tests := []struct {
		name    string
		element *IndexedElement
		colName string
		want    string
		wantErr bool
	}{
		{name: "global", colName: "note", want: "opt_global_note"},
		{name: "spaces become underscores", colName: "my value", want: "opt_global_my_value"},
		{name: "element scoped", element: &run1, colName: "name", want: "opt_ms_run[1]_name"},
		{name: "cv term", element: &assay2, colName: "cv MS:1002217 decoy peptide", want: "opt_assay[2]_cv_MS:1002217_decoy_peptide"},
		{name: "underscores kept", colName: "already_joined", want: "opt_global_already_joined"},
		{name: "empty name", colName: "", wantErr: true},
		{name: "blank name", colName: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionColumnHeader(tt.element, tt.colName)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewOptionColumn(t *testing.T) {
	run := IndexedElement{Kind: KindMsRun, Index: 3}

	c, err := NewOptionColumn(&run, "retention window", TypeDouble, 20, 2)
	require.NoError(t, err)
	assert.Equal(t, "opt_ms_run[3]_retention_window", c.Header())
	assert.Equal(t, Position{Ordinal: 22}, c.Position())
	assert.True(t, c.IsOptional())
	assert.Equal(t, &run, c.Element())
	assert.Equal(t, "retention window", c.Name())
	assert.Equal(t, TypeDouble, c.Type())

	// Same inputs always give the same header.
	again, err := NewOptionColumn(&run, "retention window", TypeDouble, 20, 2)
	require.NoError(t, err)
	assert.Equal(t, c.Header(), again.Header())

	_, err = NewOptionColumn(nil, "", TypeString, 20, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewOptionColumn(nil, "x", TypeUnspecified, 20, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewOptionColumn(nil, "x", TypeString, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewFixedColumn(t *testing.T) {
	c, err := NewFixedColumn("sequence", TypeString, Position{Ordinal: 1})
	require.NoError(t, err)
	assert.Equal(t, "sequence", c.Header())
	assert.False(t, c.IsOptional())
	assert.Nil(t, c.Element())
	assert.Equal(t, '|', c.Separator())

	_, err = NewFixedColumn("", TypeString, Position{Ordinal: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewFixedColumn("opt_global_x", TypeString, Position{Ordinal: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewFixedColumn("sequence", TypeUnspecified, Position{Ordinal: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "03", Position{Ordinal: 3}.String())
	assert.Equal(t, "08[2]", Position{Ordinal: 8, Key: "[2]"}.String())

	assert.True(t, Position{Ordinal: 1}.Less(Position{Ordinal: 2}))
	assert.True(t, Position{Ordinal: 8, Key: "[2]"}.Less(Position{Ordinal: 8, Key: "[10]"}))
	assert.True(t, Position{Ordinal: 8}.Less(Position{Ordinal: 8, Key: "[1]"}))
	assert.False(t, Position{Ordinal: 9}.Less(Position{Ordinal: 8, Key: "[1]"}))
}

func TestIndexedElement(t *testing.T) {
	el, err := NewIndexedElement(KindMsRun, 2)
	require.NoError(t, err)
	assert.Equal(t, "ms_run[2]", el.Reference())

	parsed, err := ParseElementReference("ms_run[2]")
	require.NoError(t, err)
	assert.Equal(t, el, parsed)

	_, err = NewIndexedElement(KindMsRun, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewIndexedElement("", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ParseElementReference("ms_run")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// ----------------------------------------------------------------------------
// ColumnFactory Tests
// ----------------------------------------------------------------------------

func newPSMFactory(t *testing.T) *ColumnFactory {
	t.Helper()
	f := NewColumnFactory(SectionPSM)
	for _, cs := range SectionPSM.Info().Columns {
		if cs.Indexed {
			_, err := f.AddIndexedColumn(cs.Name, 1)
			require.NoError(t, err)
			continue
		}
		_, err := f.AddFixedColumn(cs.Name)
		require.NoError(t, err)
	}
	return f
}

func TestColumnFactory_AppendKeepsExistingColumns(t *testing.T) {
	f := newPSMFactory(t)

	type snapshot struct {
		header   string
		position Position
	}
	var before []snapshot
	for _, c := range f.Columns() {
		before = append(before, snapshot{c.Header(), c.Position()})
	}

	first, err := f.AddOptionalColumn(nil, "first", TypeString)
	require.NoError(t, err)
	run := IndexedElement{Kind: KindMsRun, Index: 1}
	second, err := f.AddOptionalColumn(&run, "second", TypeString)
	require.NoError(t, err)

	cols := f.Columns()
	require.Len(t, cols, len(before)+2)
	for i, s := range before {
		assert.Equal(t, s.header, cols[i].Header())
		assert.Equal(t, s.position, cols[i].Position())
	}

	assert.Equal(t, f.FixedEnd()+1, first.Position().Ordinal)
	assert.Equal(t, f.FixedEnd()+2, second.Position().Ordinal)
	assert.Equal(t, []*Column{first, second}, f.OptionalColumns())

	// Re-adding returns the existing column and does not shift anything.
	again, err := f.AddOptionalColumn(nil, "first", TypeString)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, len(before)+2, f.Len())
}

func TestColumnFactory_Lookup(t *testing.T) {
	f := newPSMFactory(t)

	c, ok := f.FindByHeader("spectra_ref")
	require.True(t, ok)
	byPos, ok := f.FindByPosition(c.Position())
	require.True(t, ok)
	assert.Same(t, c, byPos)
	assert.True(t, c.NotNull())

	score, ok := f.FindByHeader("search_engine_score[1]")
	require.True(t, ok)
	assert.Equal(t, &IndexedElement{Kind: KindPSMSearchEngineScore, Index: 1}, score.Element())
	assert.Equal(t, "[1]", score.Position().Key)

	_, ok = f.FindByHeader("Spectra_Ref")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestColumnFactory_AddErrors(t *testing.T) {
	f := NewColumnFactory(SectionPSM)

	_, err := f.AddFixedColumn("nope")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.AddFixedColumn("search_engine_score")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.AddIndexedColumn("sequence", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.AddIndexedColumn("search_engine_score", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	a, err := f.AddFixedColumn("sequence")
	require.NoError(t, err)
	b, err := f.AddFixedColumn("sequence")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestColumnFactory_AppendOptionalColumn(t *testing.T) {
	f := newPSMFactory(t)

	c, err := NewOptionColumn(nil, "note", TypeString, f.FixedEnd(), 1)
	require.NoError(t, err)
	require.NoError(t, f.AppendOptionalColumn(c))

	dupHeader, err := NewOptionColumn(nil, "note", TypeString, f.FixedEnd(), 2)
	require.NoError(t, err)
	assert.ErrorIs(t, f.AppendOptionalColumn(dupHeader), ErrInvalidArgument)

	dupPos, err := NewOptionColumn(nil, "other", TypeString, f.FixedEnd(), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, f.AppendOptionalColumn(dupPos), ErrInvalidArgument)

	inside, err := NewOptionColumn(nil, "inside", TypeString, 2, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, f.AppendOptionalColumn(inside), ErrInvalidArgument)

	fixed, err := NewFixedColumn("sequence", TypeString, Position{Ordinal: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, f.AppendOptionalColumn(fixed), ErrInvalidArgument)

	next, err := f.AddOptionalColumn(nil, "after", TypeString)
	require.NoError(t, err)
	assert.Equal(t, f.FixedEnd()+2, next.Position().Ordinal)
}
