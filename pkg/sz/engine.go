package sz

import (
	"context"
	"strconv"
	"strings"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Engine exposes the entity-resolution operations. Every method is a guarded
// operation of the owning environment.
//
// Mutating methods accept flags; when they include WithInfo the "with info"
// native variant is called and its document is returned, otherwise the
// returned string is empty.
type Engine struct {
	env       *Environment
	native    native.Engine
	destroyed bool
}

func (m *Engine) activeConfigID() (int64, error) {
	return callValue(m.native, m.native.GetActiveConfigID)
}

func (m *Engine) reinit(configID int64) error {
	return call(m.native, func() int64 { return m.native.Reinit(configID) })
}

// PrimeEngine loads the engine's caches ahead of the first real request.
func (m *Engine) PrimeEngine(ctx context.Context) error {
	return run(ctx, m.env, "Engine.PrimeEngine", func() error {
		return call(m.native, m.native.PrimeEngine)
	})
}

// ActiveConfigID returns the id of the configuration the engine is running.
func (m *Engine) ActiveConfigID(ctx context.Context) (int64, error) {
	return execute(ctx, m.env, "Engine.ActiveConfigID", m.activeConfigID)
}

// AddRecord loads a record, replacing any record with the same data source
// and id.
func (m *Engine) AddRecord(ctx context.Context, dataSourceCode, recordID, recordDefinition string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.AddRecord", func() (string, error) {
		if flags.Has(WithInfo) {
			return callValue(m.native, func() (string, int64) {
				return m.native.AddRecordWithInfo(dataSourceCode, recordID, recordDefinition, flags.Native())
			})
		}
		return "", call(m.native, func() int64 {
			return m.native.AddRecord(dataSourceCode, recordID, recordDefinition)
		})
	})
}

// DeleteRecord removes a record.
func (m *Engine) DeleteRecord(ctx context.Context, dataSourceCode, recordID string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.DeleteRecord", func() (string, error) {
		if flags.Has(WithInfo) {
			return callValue(m.native, func() (string, int64) {
				return m.native.DeleteRecordWithInfo(dataSourceCode, recordID, flags.Native())
			})
		}
		return "", call(m.native, func() int64 {
			return m.native.DeleteRecord(dataSourceCode, recordID)
		})
	})
}

// ReevaluateEntity re-resolves an entity.
func (m *Engine) ReevaluateEntity(ctx context.Context, entityID int64, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.ReevaluateEntity", func() (string, error) {
		if flags.Has(WithInfo) {
			return callValue(m.native, func() (string, int64) {
				return m.native.ReevaluateEntityWithInfo(entityID, flags.Native())
			})
		}
		return "", call(m.native, func() int64 {
			return m.native.ReevaluateEntity(entityID, flags.Native())
		})
	})
}

// ReevaluateRecord re-resolves the entity a record belongs to.
func (m *Engine) ReevaluateRecord(ctx context.Context, dataSourceCode, recordID string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.ReevaluateRecord", func() (string, error) {
		if flags.Has(WithInfo) {
			return callValue(m.native, func() (string, int64) {
				return m.native.ReevaluateRecordWithInfo(dataSourceCode, recordID, flags.Native())
			})
		}
		return "", call(m.native, func() int64 {
			return m.native.ReevaluateRecord(dataSourceCode, recordID, flags.Native())
		})
	})
}

// GetRecord returns a record document.
func (m *Engine) GetRecord(ctx context.Context, dataSourceCode, recordID string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.GetRecord", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.GetRecord(dataSourceCode, recordID, flags.Native())
		})
	})
}

// GetEntityByEntityID returns an entity document.
func (m *Engine) GetEntityByEntityID(ctx context.Context, entityID int64, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.GetEntityByEntityID", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.GetEntityByEntityID(entityID, flags.Native())
		})
	})
}

// GetEntityByRecordID returns the entity a record resolved to.
func (m *Engine) GetEntityByRecordID(ctx context.Context, dataSourceCode, recordID string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.GetEntityByRecordID", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.GetEntityByRecordID(dataSourceCode, recordID, flags.Native())
		})
	})
}

// SearchByAttributes finds entities matching the attributes document.
func (m *Engine) SearchByAttributes(ctx context.Context, attributes, searchProfile string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.SearchByAttributes", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.SearchByAttributes(attributes, searchProfile, flags.Native())
		})
	})
}

// WhyEntities explains why two entities are or are not related.
func (m *Engine) WhyEntities(ctx context.Context, entityID1, entityID2 int64, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.WhyEntities", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.WhyEntities(entityID1, entityID2, flags.Native())
		})
	})
}

// WhyRecords explains why two records did or did not resolve together.
func (m *Engine) WhyRecords(ctx context.Context, dataSourceCode1, recordID1, dataSourceCode2, recordID2 string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.WhyRecords", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.WhyRecords(dataSourceCode1, recordID1, dataSourceCode2, recordID2, flags.Native())
		})
	})
}

// HowEntity describes the resolution steps that built an entity.
func (m *Engine) HowEntity(ctx context.Context, entityID int64, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.HowEntity", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.HowEntityByEntityID(entityID, flags.Native())
		})
	})
}

// FindPathByEntityID finds a relationship path between two entities.
func (m *Engine) FindPathByEntityID(ctx context.Context, startEntityID, endEntityID int64, maxDegrees int, avoidEntityIDs []int64, requiredDataSources []string, flags Flags) (string, error) {
	avoid := entityIDsDocument(avoidEntityIDs)
	required := dataSourcesDocument(requiredDataSources)
	return execute(ctx, m.env, "Engine.FindPathByEntityID", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.FindPathByEntityID(startEntityID, endEntityID, int64(maxDegrees), avoid, required, flags.Native())
		})
	})
}

// FindNetworkByEntityID returns the network of entities around entityIDs.
func (m *Engine) FindNetworkByEntityID(ctx context.Context, entityIDs []int64, maxDegrees, buildOutDegrees, buildOutMaxEntities int, flags Flags) (string, error) {
	ids := entityIDsDocument(entityIDs)
	return execute(ctx, m.env, "Engine.FindNetworkByEntityID", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.FindNetworkByEntityID(ids, int64(maxDegrees), int64(buildOutDegrees), int64(buildOutMaxEntities), flags.Native())
		})
	})
}

// CountRedoRecords returns the number of pending redo records.
func (m *Engine) CountRedoRecords(ctx context.Context) (int64, error) {
	return execute(ctx, m.env, "Engine.CountRedoRecords", func() (int64, error) {
		return callValue(m.native, m.native.CountRedoRecords)
	})
}

// GetRedoRecord returns the next pending redo record, or "" when there is
// none.
func (m *Engine) GetRedoRecord(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "Engine.GetRedoRecord", func() (string, error) {
		return callValue(m.native, m.native.GetRedoRecord)
	})
}

// ProcessRedoRecord applies a redo record obtained from GetRedoRecord.
func (m *Engine) ProcessRedoRecord(ctx context.Context, redoRecord string, flags Flags) (string, error) {
	return execute(ctx, m.env, "Engine.ProcessRedoRecord", func() (string, error) {
		if flags.Has(WithInfo) {
			return callValue(m.native, func() (string, int64) {
				return m.native.ProcessRedoRecordWithInfo(redoRecord, flags.Native())
			})
		}
		return "", call(m.native, func() int64 { return m.native.ProcessRedoRecord(redoRecord) })
	})
}

// GetStats returns the engine's workload statistics and resets them.
func (m *Engine) GetStats(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "Engine.GetStats", func() (string, error) {
		return callValue(m.native, m.native.GetStats)
	})
}

func entityIDsDocument(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`{"ENTITIES":[`)
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"ENTITY_ID":`)
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('}')
	}
	b.WriteString("]}")
	return b.String()
}

func dataSourcesDocument(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	quoted := make([]string, len(codes))
	for i, c := range codes {
		quoted[i] = strconv.Quote(c)
	}
	return `{"DATA_SOURCES":[` + strings.Join(quoted, ",") + "]}"
}
