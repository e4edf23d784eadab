package sz

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagBitsAreDistinct(t *testing.T) {
	seen := make(map[Flag]string)
	for _, f := range KnownFlags() {
		require.Equal(t, 1, bits.OnesCount64(uint64(f)), "%s is not a single bit", f)
		prev, dup := seen[f]
		require.False(t, dup, "%s shares a bit with %s", f, prev)
		seen[f] = f.String()
	}
}

func TestFlagsSetAlgebra(t *testing.T) {
	s := NewFlags(EntityIncludeEntityName, EntityIncludeRecordSummary)
	require.True(t, s.Has(EntityIncludeEntityName))
	require.False(t, s.Has(EntityIncludeRecordData))
	require.False(t, s.Has(0))

	s = s.With(EntityIncludeRecordData)
	require.True(t, s.Has(EntityIncludeRecordData))

	s = s.Without(EntityIncludeEntityName)
	require.False(t, s.Has(EntityIncludeEntityName))
	require.Equal(t, []Flag{EntityIncludeRecordSummary, EntityIncludeRecordData}, s.Members())

	require.Equal(t, s, s.Union(NoFlags))
	require.True(t, EntityDefaultFlags.Has(EntityIncludeRelatedEntityName))
	require.True(t, ExportDefaultFlags.Has(ExportIncludeSingleRecordEntities))
	require.True(t, SearchDefaultFlags.Has(SearchIncludeResolved))
}

func TestWithInfoIsNeverTransmitted(t *testing.T) {
	s := NewFlags(WithInfo, EntityIncludeEntityName)
	require.True(t, s.Has(WithInfo))
	require.Equal(t, int64(EntityIncludeEntityName), s.Native())
	require.Zero(t, NewFlags(WithInfo).Native())
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "{ } [0000000000000000]", NoFlags.String())
	require.Equal(t,
		"{ ENTITY_INCLUDE_ENTITY_NAME | ENTITY_INCLUDE_RECORD_SUMMARY } [0000000000003000]",
		NewFlags(EntityIncludeRecordSummary, EntityIncludeEntityName).String())
	require.Equal(t, "Flag(0x20000)", Flag(1<<17).String())
}

func TestParseFlags(t *testing.T) {
	s, err := ParseFlags("SZ_ENTITY_INCLUDE_ENTITY_NAME", " export_include_disclosed ", "")
	require.NoError(t, err)
	require.Equal(t, NewFlags(EntityIncludeEntityName, ExportIncludeDisclosed), s)

	s, err = ParseFlags("with_info")
	require.NoError(t, err)
	require.True(t, s.Has(WithInfo))

	_, err = ParseFlags("NOT_A_FLAG")
	require.ErrorContains(t, err, "NOT_A_FLAG")
}
