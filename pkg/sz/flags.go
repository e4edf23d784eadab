package sz

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Flag is a single behavioural option. Each flag owns one fixed bit position
// shared with the native layer, except meta flags which are only meaningful to
// this package and are never transmitted.
type Flag uint64

// Flags is a set of Flag values, stored as the bitwise OR of their bits.
type Flags uint64

// Export flags.
const (
	ExportIncludeMultiRecordEntities  Flag = 1 << 0
	ExportIncludePossiblySame         Flag = 1 << 1
	ExportIncludePossiblyRelated      Flag = 1 << 2
	ExportIncludeNameOnly             Flag = 1 << 3
	ExportIncludeDisclosed            Flag = 1 << 4
	ExportIncludeSingleRecordEntities Flag = 1 << 5
)

// Entity and relation detail flags.
const (
	EntityIncludePossiblySameRelations    Flag = 1 << 6
	EntityIncludePossiblyRelatedRelations Flag = 1 << 7
	EntityIncludeNameOnlyRelations        Flag = 1 << 8
	EntityIncludeDisclosedRelations       Flag = 1 << 9
	EntityIncludeAllFeatures              Flag = 1 << 10
	EntityIncludeRepresentativeFeatures   Flag = 1 << 11
	EntityIncludeEntityName               Flag = 1 << 12
	EntityIncludeRecordSummary            Flag = 1 << 13
	EntityIncludeRecordData               Flag = 1 << 14
	EntityIncludeRecordMatchingInfo       Flag = 1 << 15
	EntityIncludeRecordJSONData           Flag = 1 << 16
	EntityIncludeRecordFeatures           Flag = 1 << 18
	EntityIncludeRelatedEntityName        Flag = 1 << 19
	EntityIncludeRelatedMatchingInfo      Flag = 1 << 20
	EntityIncludeRelatedRecordSummary     Flag = 1 << 21
	EntityIncludeRelatedRecordData        Flag = 1 << 22
	EntityIncludeInternalFeatures         Flag = 1 << 23
	EntityIncludeFeatureStats             Flag = 1 << 24
	EntityIncludeRecordTypes              Flag = 1 << 28
	EntityIncludeRecordUnmappedData       Flag = 1 << 31
)

// Path, network, search and scoring flags.
const (
	FindPathStrictAvoid               Flag = 1 << 25
	IncludeFeatureScores              Flag = 1 << 26
	SearchIncludeStats                Flag = 1 << 27
	FindPathIncludeMatchingInfo       Flag = 1 << 30
	SearchIncludeAllCandidates        Flag = 1 << 32
	FindNetworkIncludeMatchingInfo    Flag = 1 << 33
	IncludeMatchKeyDetails            Flag = 1 << 34
	EntityIncludeRecordFeatureDetails Flag = 1 << 35
	EntityIncludeRecordFeatureStats   Flag = 1 << 36
	SearchIncludeRequest              Flag = 1 << 37
	SearchIncludeRequestDetails       Flag = 1 << 38
)

// WithInfo asks a mutating operation to return the document describing the
// entities it affected. It selects the "with info" native entry point and is
// never part of a transmitted mask.
const WithInfo Flag = 1 << 62

// metaFlags holds every bit that is interpreted by this package only.
const metaFlags = Flags(WithInfo)

// Search flags reuse the export bit positions.
const (
	SearchIncludeResolved        = ExportIncludeMultiRecordEntities
	SearchIncludePossiblySame    = ExportIncludePossiblySame
	SearchIncludePossiblyRelated = ExportIncludePossiblyRelated
	SearchIncludeNameOnly        = ExportIncludeNameOnly
)

var flagNames = map[Flag]string{
	ExportIncludeMultiRecordEntities:      "EXPORT_INCLUDE_MULTI_RECORD_ENTITIES",
	ExportIncludePossiblySame:             "EXPORT_INCLUDE_POSSIBLY_SAME",
	ExportIncludePossiblyRelated:          "EXPORT_INCLUDE_POSSIBLY_RELATED",
	ExportIncludeNameOnly:                 "EXPORT_INCLUDE_NAME_ONLY",
	ExportIncludeDisclosed:                "EXPORT_INCLUDE_DISCLOSED",
	ExportIncludeSingleRecordEntities:     "EXPORT_INCLUDE_SINGLE_RECORD_ENTITIES",
	EntityIncludePossiblySameRelations:    "ENTITY_INCLUDE_POSSIBLY_SAME_RELATIONS",
	EntityIncludePossiblyRelatedRelations: "ENTITY_INCLUDE_POSSIBLY_RELATED_RELATIONS",
	EntityIncludeNameOnlyRelations:        "ENTITY_INCLUDE_NAME_ONLY_RELATIONS",
	EntityIncludeDisclosedRelations:       "ENTITY_INCLUDE_DISCLOSED_RELATIONS",
	EntityIncludeAllFeatures:              "ENTITY_INCLUDE_ALL_FEATURES",
	EntityIncludeRepresentativeFeatures:   "ENTITY_INCLUDE_REPRESENTATIVE_FEATURES",
	EntityIncludeEntityName:               "ENTITY_INCLUDE_ENTITY_NAME",
	EntityIncludeRecordSummary:            "ENTITY_INCLUDE_RECORD_SUMMARY",
	EntityIncludeRecordData:               "ENTITY_INCLUDE_RECORD_DATA",
	EntityIncludeRecordMatchingInfo:       "ENTITY_INCLUDE_RECORD_MATCHING_INFO",
	EntityIncludeRecordJSONData:           "ENTITY_INCLUDE_RECORD_JSON_DATA",
	EntityIncludeRecordFeatures:           "ENTITY_INCLUDE_RECORD_FEATURES",
	EntityIncludeRelatedEntityName:        "ENTITY_INCLUDE_RELATED_ENTITY_NAME",
	EntityIncludeRelatedMatchingInfo:      "ENTITY_INCLUDE_RELATED_MATCHING_INFO",
	EntityIncludeRelatedRecordSummary:     "ENTITY_INCLUDE_RELATED_RECORD_SUMMARY",
	EntityIncludeRelatedRecordData:        "ENTITY_INCLUDE_RELATED_RECORD_DATA",
	EntityIncludeInternalFeatures:         "ENTITY_INCLUDE_INTERNAL_FEATURES",
	EntityIncludeFeatureStats:             "ENTITY_INCLUDE_FEATURE_STATS",
	EntityIncludeRecordTypes:              "ENTITY_INCLUDE_RECORD_TYPES",
	EntityIncludeRecordUnmappedData:       "ENTITY_INCLUDE_RECORD_UNMAPPED_DATA",
	FindPathStrictAvoid:                   "FIND_PATH_STRICT_AVOID",
	IncludeFeatureScores:                  "INCLUDE_FEATURE_SCORES",
	SearchIncludeStats:                    "SEARCH_INCLUDE_STATS",
	FindPathIncludeMatchingInfo:           "FIND_PATH_INCLUDE_MATCHING_INFO",
	SearchIncludeAllCandidates:            "SEARCH_INCLUDE_ALL_CANDIDATES",
	FindNetworkIncludeMatchingInfo:        "FIND_NETWORK_INCLUDE_MATCHING_INFO",
	IncludeMatchKeyDetails:                "INCLUDE_MATCH_KEY_DETAILS",
	EntityIncludeRecordFeatureDetails:     "ENTITY_INCLUDE_RECORD_FEATURE_DETAILS",
	EntityIncludeRecordFeatureStats:       "ENTITY_INCLUDE_RECORD_FEATURE_STATS",
	SearchIncludeRequest:                  "SEARCH_INCLUDE_REQUEST",
	SearchIncludeRequestDetails:           "SEARCH_INCLUDE_REQUEST_DETAILS",
	WithInfo:                              "WITH_INFO",
}

var flagsByName = func() map[string]Flag {
	m := make(map[string]Flag, len(flagNames))
	for f, name := range flagNames {
		m[name] = f
	}
	return m
}()

// Predefined flag sets.
var (
	NoFlags Flags

	EntityCoreFlags = NewFlags(
		EntityIncludeRepresentativeFeatures,
		EntityIncludeEntityName,
		EntityIncludeRecordSummary,
		EntityIncludeRecordData,
		EntityIncludeRecordMatchingInfo,
	)

	EntityAllRelations = NewFlags(
		EntityIncludePossiblySameRelations,
		EntityIncludePossiblyRelatedRelations,
		EntityIncludeNameOnlyRelations,
		EntityIncludeDisclosedRelations,
	)

	EntityDefaultFlags = EntityCoreFlags.Union(EntityAllRelations).With(
		EntityIncludeRelatedEntityName,
		EntityIncludeRelatedRecordSummary,
		EntityIncludeRelatedMatchingInfo,
	)

	AllExportFlags = NewFlags(
		ExportIncludeMultiRecordEntities,
		ExportIncludePossiblySame,
		ExportIncludePossiblyRelated,
		ExportIncludeNameOnly,
		ExportIncludeDisclosed,
		ExportIncludeSingleRecordEntities,
	)

	ExportDefaultFlags = AllExportFlags.Union(EntityDefaultFlags)

	RecordDefaultFlags = NewFlags(EntityIncludeRecordJSONData)

	SearchDefaultFlags = NewFlags(
		SearchIncludeResolved,
		SearchIncludePossiblySame,
		SearchIncludePossiblyRelated,
		SearchIncludeNameOnly,
		SearchIncludeStats,
		EntityIncludeRepresentativeFeatures,
		EntityIncludeEntityName,
		EntityIncludeRecordSummary,
		IncludeFeatureScores,
	)

	WhyDefaultFlags  = EntityCoreFlags.With(IncludeFeatureScores)
	HowDefaultFlags  = NewFlags(IncludeFeatureScores)
	PathDefaultFlags = NewFlags(FindPathIncludeMatchingInfo, EntityIncludeEntityName, EntityIncludeRecordSummary)
)

// NewFlags returns the set containing fs.
func NewFlags(fs ...Flag) Flags {
	var s Flags
	for _, f := range fs {
		s |= Flags(f)
	}
	return s
}

// Has reports whether every bit of f is in the set.
func (s Flags) Has(f Flag) bool { return f != 0 && uint64(s)&uint64(f) == uint64(f) }

// With returns a copy of the set with fs added.
func (s Flags) With(fs ...Flag) Flags { return s | NewFlags(fs...) }

// Without returns a copy of the set with fs removed.
func (s Flags) Without(fs ...Flag) Flags { return s &^ NewFlags(fs...) }

// Union returns the members of either set.
func (s Flags) Union(o Flags) Flags { return s | o }

// Native returns the mask to transmit to the native layer: the set with every
// meta flag cleared.
func (s Flags) Native() int64 { return int64(uint64(s &^ metaFlags)) }

// Members decodes the set back into individual flags in bit order. Bits
// without a known name are returned as their raw Flag value.
func (s Flags) Members() []Flag {
	var out []Flag
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, Flag(uint64(1)<<bits.TrailingZeros64(v)))
	}
	return out
}

// String renders the set as names joined by " | " followed by the mask in hex.
func (s Flags) String() string {
	if s == 0 {
		return "{ } [0000000000000000]"
	}
	names := make([]string, 0, bits.OnesCount64(uint64(s)))
	for _, f := range s.Members() {
		names = append(names, f.String())
	}
	return fmt.Sprintf("{ %s } [%016X]", strings.Join(names, " | "), uint64(s))
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Flag(%#x)", uint64(f))
}

// ParseFlags builds a set from flag names such as "ENTITY_INCLUDE_ENTITY_NAME".
// An optional "SZ_" prefix is accepted and matching is case-insensitive.
func ParseFlags(names ...string) (Flags, error) {
	var s Flags
	for _, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		name = strings.TrimPrefix(name, "SZ_")
		if name == "" {
			continue
		}
		f, ok := flagsByName[name]
		if !ok {
			return 0, fmt.Errorf("sz: unknown flag %q", raw)
		}
		s |= Flags(f)
	}
	return s, nil
}

// KnownFlags returns every named flag in bit order.
func KnownFlags() []Flag {
	out := make([]Flag, 0, len(flagNames))
	for f := range flagNames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
