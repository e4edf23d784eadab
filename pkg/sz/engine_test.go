package sz

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/szsafe/szsafe-go/pkg/sz/mocksz"
)

type entityDoc struct {
	Entity struct {
		ID      int64 `json:"ENTITY_ID"`
		Records []struct {
			DataSource string `json:"DATA_SOURCE"`
			RecordID   string `json:"RECORD_ID"`
		} `json:"RECORDS"`
	} `json:"RESOLVED_ENTITY"`
}

type withInfoDoc struct {
	DataSource string `json:"DATA_SOURCE"`
	RecordID   string `json:"RECORD_ID"`
	Affected   []struct {
		ID int64 `json:"ENTITY_ID"`
	} `json:"AFFECTED_ENTITIES"`
}

func decode[T any](t *testing.T, doc string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(doc), &v), doc)
	return v
}

func loadRecords(t *testing.T, eng *Engine) {
	t.Helper()
	ctx := context.Background()
	for id, def := range map[string]string{
		"1001": `{"NAME_FULL":"Robert Smith","PHONE_NUMBER":"555-1212"}`,
		"1002": `{"NAME_FULL":"Bob Smith","PHONE_NUMBER":"555-1212"}`,
	} {
		_, err := eng.AddRecord(ctx, "TEST", id, def, NoFlags)
		require.NoError(t, err)
	}
}

func TestEngineRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	info, err := eng.AddRecord(ctx, "TEST", "1001", `{"NAME_FULL":"Robert Smith"}`, NoFlags)
	require.NoError(t, err)
	require.Empty(t, info)
	require.Equal(t, 1, lib.Calls("Engine.AddRecord"))
	require.Zero(t, lib.Calls("Engine.AddRecordWithInfo"))

	record, err := eng.GetRecord(ctx, "test", "1001", RecordDefaultFlags)
	require.NoError(t, err)
	require.Contains(t, record, "Robert Smith")
	require.Equal(t, RecordDefaultFlags.Native(), lib.LastFlags("Engine.GetRecord"))

	entity, err := eng.GetEntityByRecordID(ctx, "TEST", "1001", EntityDefaultFlags)
	require.NoError(t, err)
	id := decode[entityDoc](t, entity).Entity.ID
	require.NotZero(t, id)

	byID, err := eng.GetEntityByEntityID(ctx, id, EntityDefaultFlags)
	require.NoError(t, err)
	require.JSONEq(t, entity, byID)

	info, err = eng.DeleteRecord(ctx, "TEST", "1001", NoFlags)
	require.NoError(t, err)
	require.Empty(t, info)

	_, err = eng.GetRecord(ctx, "TEST", "1001", NoFlags)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = eng.GetEntityByEntityID(ctx, id, NoFlags)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = eng.AddRecord(ctx, "TEST", "1002", `{not json`, NoFlags)
	require.ErrorIs(t, err, ErrBadInput)
}

func TestEngineWithInfoSelectsVariant(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	flags := NewFlags(WithInfo, EntityIncludeEntityName)
	info, err := eng.AddRecord(ctx, "TEST", "1001", `{"NAME_FULL":"Robert Smith"}`, flags)
	require.NoError(t, err)
	require.Zero(t, lib.Calls("Engine.AddRecord"))
	require.Equal(t, 1, lib.Calls("Engine.AddRecordWithInfo"))
	require.Equal(t, int64(EntityIncludeEntityName), lib.LastFlags("Engine.AddRecordWithInfo"))

	doc := decode[withInfoDoc](t, info)
	require.Equal(t, "TEST", doc.DataSource)
	require.Equal(t, "1001", doc.RecordID)
	require.Len(t, doc.Affected, 1)
	entityID := doc.Affected[0].ID

	info, err = eng.ReevaluateRecord(ctx, "TEST", "1001", NewFlags(WithInfo))
	require.NoError(t, err)
	require.Contains(t, info, "AFFECTED_ENTITIES")
	require.Zero(t, lib.LastFlags("Engine.ReevaluateRecordWithInfo"))

	info, err = eng.ReevaluateEntity(ctx, entityID, NewFlags(WithInfo))
	require.NoError(t, err)
	require.Contains(t, info, "AFFECTED_ENTITIES")

	info, err = eng.ReevaluateEntity(ctx, entityID, NoFlags)
	require.NoError(t, err)
	require.Empty(t, info)
	require.Equal(t, 1, lib.Calls("Engine.ReevaluateEntity"))

	info, err = eng.DeleteRecord(ctx, "TEST", "1001", NewFlags(WithInfo))
	require.NoError(t, err)
	require.Contains(t, info, `"RECORD_ID":"1001"`)
	require.Equal(t, 1, lib.Calls("Engine.DeleteRecordWithInfo"))
}

func TestEngineQueries(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)
	loadRecords(t, eng)

	e1, err := eng.GetEntityByRecordID(ctx, "TEST", "1001", NoFlags)
	require.NoError(t, err)
	e2, err := eng.GetEntityByRecordID(ctx, "TEST", "1002", NoFlags)
	require.NoError(t, err)
	id1 := decode[entityDoc](t, e1).Entity.ID
	id2 := decode[entityDoc](t, e2).Entity.ID

	found, err := eng.SearchByAttributes(ctx, `{"PHONE_NUMBER":"555-1212"}`, "", SearchDefaultFlags)
	require.NoError(t, err)
	require.Len(t, decode[struct {
		Entities []any `json:"RESOLVED_ENTITIES"`
	}](t, found).Entities, 2)
	require.Equal(t, SearchDefaultFlags.Native(), lib.LastFlags("Engine.SearchByAttributes"))

	_, err = eng.SearchByAttributes(ctx, `{`, "", SearchDefaultFlags)
	require.ErrorIs(t, err, ErrBadInput)

	why, err := eng.WhyEntities(ctx, id1, id2, WhyDefaultFlags)
	require.NoError(t, err)
	require.Contains(t, why, "WHY_RESULTS")

	why, err = eng.WhyRecords(ctx, "TEST", "1001", "TEST", "1002", WhyDefaultFlags)
	require.NoError(t, err)
	require.Contains(t, why, "WHY_RESULTS")

	how, err := eng.HowEntity(ctx, id1, HowDefaultFlags)
	require.NoError(t, err)
	require.Contains(t, how, "HOW_RESULTS")

	_, err = eng.HowEntity(ctx, 9999, HowDefaultFlags)
	require.ErrorIs(t, err, ErrNotFound)

	path, err := eng.FindPathByEntityID(ctx, id1, id1, 3, []int64{id2}, []string{"TEST"}, PathDefaultFlags)
	require.NoError(t, err)
	require.Contains(t, path, "ENTITY_PATHS")

	network, err := eng.FindNetworkByEntityID(ctx, []int64{id1, id2}, 2, 1, 10, NoFlags)
	require.NoError(t, err)
	require.Len(t, decode[struct {
		Entities []entityDoc `json:"ENTITIES"`
	}](t, network).Entities, 2)
}

func TestEngineRedoAndStats(t *testing.T) {
	ctx := context.Background()
	env, lib := newEnv(t)
	eng := engineOf(t, env)

	n, err := eng.CountRedoRecords(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	redo, err := eng.GetRedoRecord(ctx)
	require.NoError(t, err)
	require.Empty(t, redo)

	lib.QueueRedo(`{"REASON":"test"}`)
	n, err = eng.CountRedoRecords(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	redo, err = eng.GetRedoRecord(ctx)
	require.NoError(t, err)
	info, err := eng.ProcessRedoRecord(ctx, redo, NewFlags(WithInfo))
	require.NoError(t, err)
	require.JSONEq(t, `{"AFFECTED_ENTITIES":[]}`, info)

	_, err = eng.ProcessRedoRecord(ctx, "garbage", NoFlags)
	require.ErrorIs(t, err, ErrBadInput)

	stats, err := eng.GetStats(ctx)
	require.NoError(t, err)
	require.Contains(t, stats, `"redoneRecords":1`)

	stats, err = eng.GetStats(ctx)
	require.NoError(t, err)
	require.Contains(t, stats, `"redoneRecords":0`)

	require.NoError(t, eng.PrimeEngine(ctx))
	active, err := eng.ActiveConfigID(ctx)
	require.NoError(t, err)
	require.Equal(t, mocksz.BootstrapConfigID, active)
}

func TestEngineConstraintDocuments(t *testing.T) {
	require.Empty(t, entityIDsDocument(nil))
	require.JSONEq(t, `{"ENTITIES":[{"ENTITY_ID":1},{"ENTITY_ID":22}]}`, entityIDsDocument([]int64{1, 22}))
	require.Empty(t, dataSourcesDocument(nil))
	require.JSONEq(t, `{"DATA_SOURCES":["TEST","A\"B"]}`, dataSourcesDocument([]string{"TEST", `A"B`}))
}

func TestDiagnosticAndProduct(t *testing.T) {
	ctx := context.Background()
	env, _ := newEnv(t)
	eng := engineOf(t, env)
	loadRecords(t, eng)

	diag, err := env.Diagnostic(ctx)
	require.NoError(t, err)

	info, err := diag.RepositoryInfo(ctx)
	require.NoError(t, err)
	require.Contains(t, info, "dataStores")

	perf, err := diag.CheckRepositoryPerformance(ctx, 2)
	require.NoError(t, err)
	require.Contains(t, perf, `"insertTime":2000`)

	e1, err := eng.GetEntityByRecordID(ctx, "TEST", "1001", NoFlags)
	require.NoError(t, err)
	feature, err := diag.Feature(ctx, decode[entityDoc](t, e1).Entity.ID)
	require.NoError(t, err)
	require.Contains(t, feature, "LIB_FEAT_ID")

	_, err = diag.Feature(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, diag.PurgeRepository(ctx))
	_, err = eng.GetRecord(ctx, "TEST", "1001", NoFlags)
	require.ErrorIs(t, err, ErrNotFound)

	prod, err := env.Product(ctx)
	require.NoError(t, err)
	version, err := prod.Version(ctx)
	require.NoError(t, err)
	require.Contains(t, version, mocksz.ProductVersion)
	license, err := prod.License(ctx)
	require.NoError(t, err)
	require.Contains(t, license, "licenseType")
}
