package mocksz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

type engine struct{ component }

var _ native.Engine = (*engine)(nil)

type exportCursor struct {
	chunks []string
	pos    int
}

func (e *engine) Init(_, settings string, _ int64) int64 {
	return e.do("Init", false, func() int64 {
		if e.l.defaultConfigID == 0 {
			return e.fail(CodeNoDefaultConfig, "no default configuration is set")
		}
		if rc := e.initLocked(settings); rc != 0 {
			return rc
		}
		e.l.activeConfigID = e.l.defaultConfigID
		return 0
	})
}

func (e *engine) InitWithConfigID(_, settings string, configID int64, _ int64) int64 {
	return e.do("InitWithConfigID", false, func() int64 {
		if _, ok := e.l.configs[configID]; !ok {
			return e.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		if rc := e.initLocked(settings); rc != 0 {
			return rc
		}
		e.l.activeConfigID = configID
		return 0
	})
}

func (e *engine) Destroy() int64 {
	return e.do("Destroy", true, func() int64 {
		e.l.activeConfigID = 0
		for h := range e.l.exportHandles {
			delete(e.l.exportHandles, h)
		}
		return e.destroyLocked()
	})
}

func (e *engine) Reinit(configID int64) int64 {
	return e.do("Reinit", true, func() int64 {
		if _, ok := e.l.configs[configID]; !ok {
			return e.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		e.l.activeConfigID = configID
		return 0
	})
}

func (e *engine) PrimeEngine() int64 {
	return e.do("PrimeEngine", true, func() int64 { return 0 })
}

func (e *engine) GetActiveConfigID() (id int64, rc int64) {
	rc = e.do("GetActiveConfigID", true, func() int64 {
		id = e.l.activeConfigID
		return 0
	})
	return id, rc
}

// checkDataSource fails with CodeUnknownDataSource when code is not declared
// by the active configuration.
func (e *engine) checkDataSource(code string) int64 {
	cfg, ok := e.l.configs[e.l.activeConfigID]
	if !ok || !cfg.doc.has(code) {
		return e.fail(CodeUnknownDataSource, "Data source code [%s] does not exist.", code)
	}
	return 0
}

func (e *engine) lookupRecord(dataSourceCode, recordID string) (*record, int64) {
	if rc := e.checkDataSource(dataSourceCode); rc != 0 {
		return nil, rc
	}
	r, ok := e.l.records[recordKey{strings.ToUpper(dataSourceCode), recordID}]
	if !ok {
		return nil, e.fail(CodeNotFound, "Unknown record: dsrc[%s], record[%s]", dataSourceCode, recordID)
	}
	return r, 0
}

func (e *engine) lookupEntity(entityID int64) int64 {
	if _, ok := e.l.entities[entityID]; !ok {
		return e.fail(CodeEntityNotFound, "Unknown resolved entity value '%d'", entityID)
	}
	return 0
}

func (e *engine) addLocked(dataSourceCode, recordID, definition string) (int64, int64) {
	if rc := e.checkDataSource(dataSourceCode); rc != 0 {
		return 0, rc
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(definition), &data); err != nil {
		return 0, e.fail(CodeBadJSON, "invalid record definition: %v", err)
	}
	key := recordKey{strings.ToUpper(dataSourceCode), recordID}
	if r, ok := e.l.records[key]; ok {
		r.data = data
		e.l.stats.added++
		return r.entityID, 0
	}
	id := e.l.nextEntityID
	e.l.nextEntityID++
	e.l.records[key] = &record{key: key, entityID: id, data: data}
	e.l.entities[id] = key
	e.l.stats.added++
	return id, 0
}

func (e *engine) AddRecord(dataSourceCode, recordID, recordDefinition string) int64 {
	return e.do("AddRecord", true, func() int64 {
		_, rc := e.addLocked(dataSourceCode, recordID, recordDefinition)
		return rc
	})
}

func (e *engine) AddRecordWithInfo(dataSourceCode, recordID, recordDefinition string, flags int64) (info string, rc int64) {
	rc = e.do("AddRecordWithInfo", true, func() int64 {
		e.noteFlags("AddRecordWithInfo", flags)
		id, rc := e.addLocked(dataSourceCode, recordID, recordDefinition)
		if rc != 0 {
			return rc
		}
		info = withInfo(dataSourceCode, recordID, id)
		return 0
	})
	return info, rc
}

func (e *engine) deleteLocked(dataSourceCode, recordID string) (int64, int64) {
	if rc := e.checkDataSource(dataSourceCode); rc != 0 {
		return 0, rc
	}
	key := recordKey{strings.ToUpper(dataSourceCode), recordID}
	r, ok := e.l.records[key]
	if !ok {
		return 0, 0
	}
	delete(e.l.records, key)
	delete(e.l.entities, r.entityID)
	e.l.stats.deleted++
	return r.entityID, 0
}

func (e *engine) DeleteRecord(dataSourceCode, recordID string) int64 {
	return e.do("DeleteRecord", true, func() int64 {
		_, rc := e.deleteLocked(dataSourceCode, recordID)
		return rc
	})
}

func (e *engine) DeleteRecordWithInfo(dataSourceCode, recordID string, flags int64) (info string, rc int64) {
	rc = e.do("DeleteRecordWithInfo", true, func() int64 {
		e.noteFlags("DeleteRecordWithInfo", flags)
		id, rc := e.deleteLocked(dataSourceCode, recordID)
		if rc != 0 {
			return rc
		}
		info = withInfo(dataSourceCode, recordID, id)
		return 0
	})
	return info, rc
}

func (e *engine) ReevaluateEntity(entityID int64, flags int64) int64 {
	return e.do("ReevaluateEntity", true, func() int64 {
		e.noteFlags("ReevaluateEntity", flags)
		if _, ok := e.l.entities[entityID]; ok {
			e.l.stats.reevaluated++
		}
		return 0
	})
}

func (e *engine) ReevaluateEntityWithInfo(entityID int64, flags int64) (info string, rc int64) {
	rc = e.do("ReevaluateEntityWithInfo", true, func() int64 {
		e.noteFlags("ReevaluateEntityWithInfo", flags)
		key, ok := e.l.entities[entityID]
		if !ok {
			info = "{}"
			return 0
		}
		e.l.stats.reevaluated++
		info = withInfo(key.dataSource, key.recordID, entityID)
		return 0
	})
	return info, rc
}

func (e *engine) ReevaluateRecord(dataSourceCode, recordID string, flags int64) int64 {
	return e.do("ReevaluateRecord", true, func() int64 {
		e.noteFlags("ReevaluateRecord", flags)
		if _, rc := e.lookupRecord(dataSourceCode, recordID); rc != 0 {
			return rc
		}
		e.l.stats.reevaluated++
		return 0
	})
}

func (e *engine) ReevaluateRecordWithInfo(dataSourceCode, recordID string, flags int64) (info string, rc int64) {
	rc = e.do("ReevaluateRecordWithInfo", true, func() int64 {
		e.noteFlags("ReevaluateRecordWithInfo", flags)
		r, rc := e.lookupRecord(dataSourceCode, recordID)
		if rc != 0 {
			return rc
		}
		e.l.stats.reevaluated++
		info = withInfo(dataSourceCode, recordID, r.entityID)
		return 0
	})
	return info, rc
}

func withInfo(dataSourceCode, recordID string, entityID int64) string {
	ids := []int64{}
	if entityID != 0 {
		ids = append(ids, entityID)
	}
	return marshal(map[string]any{
		"DATA_SOURCE":       strings.ToUpper(dataSourceCode),
		"RECORD_ID":         recordID,
		"AFFECTED_ENTITIES": affected(ids...),
	})
}

func (e *engine) GetRecord(dataSourceCode, recordID string, flags int64) (doc string, rc int64) {
	rc = e.do("GetRecord", true, func() int64 {
		e.noteFlags("GetRecord", flags)
		r, rc := e.lookupRecord(dataSourceCode, recordID)
		if rc != 0 {
			return rc
		}
		out := r.summary()
		out["JSON_DATA"] = r.data
		doc = marshal(out)
		return 0
	})
	return doc, rc
}

func (e *engine) GetEntityByEntityID(entityID int64, flags int64) (doc string, rc int64) {
	rc = e.do("GetEntityByEntityID", true, func() int64 {
		e.noteFlags("GetEntityByEntityID", flags)
		if rc := e.lookupEntity(entityID); rc != 0 {
			return rc
		}
		doc = marshal(map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(entityID)})
		return 0
	})
	return doc, rc
}

func (e *engine) GetEntityByRecordID(dataSourceCode, recordID string, flags int64) (doc string, rc int64) {
	rc = e.do("GetEntityByRecordID", true, func() int64 {
		e.noteFlags("GetEntityByRecordID", flags)
		r, rc := e.lookupRecord(dataSourceCode, recordID)
		if rc != 0 {
			return rc
		}
		doc = marshal(map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(r.entityID)})
		return 0
	})
	return doc, rc
}

// SearchByAttributes matches entities whose record carries every attribute
// of the query with an equal string value.
func (e *engine) SearchByAttributes(attributes, _ string, flags int64) (doc string, rc int64) {
	rc = e.do("SearchByAttributes", true, func() int64 {
		e.noteFlags("SearchByAttributes", flags)
		var query map[string]any
		if err := json.Unmarshal([]byte(attributes), &query); err != nil {
			return e.fail(CodeBadJSON, "invalid search attributes: %v", err)
		}
		matches := []any{}
		for _, id := range e.l.sortedEntityIDs() {
			r := e.l.records[e.l.entities[id]]
			if matchesAll(r.data, query) {
				matches = append(matches, map[string]any{"ENTITY": map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(id)}})
			}
		}
		doc = marshal(map[string]any{"RESOLVED_ENTITIES": matches})
		return 0
	})
	return doc, rc
}

func matchesAll(data, query map[string]any) bool {
	if len(query) == 0 {
		return false
	}
	for k, want := range query {
		got, ok := data[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (e *engine) WhyEntities(entityID1, entityID2 int64, flags int64) (doc string, rc int64) {
	rc = e.do("WhyEntities", true, func() int64 {
		e.noteFlags("WhyEntities", flags)
		for _, id := range []int64{entityID1, entityID2} {
			if rc := e.lookupEntity(id); rc != 0 {
				return rc
			}
		}
		doc = marshal(map[string]any{
			"WHY_RESULTS": []any{map[string]any{
				"ENTITY_ID":   entityID1,
				"ENTITY_ID_2": entityID2,
				"MATCH_INFO":  map[string]any{"WHY_KEY": ""},
			}},
			"ENTITIES": []any{
				map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(entityID1)},
				map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(entityID2)},
			},
		})
		return 0
	})
	return doc, rc
}

func (e *engine) WhyRecords(dataSourceCode1, recordID1, dataSourceCode2, recordID2 string, flags int64) (doc string, rc int64) {
	rc = e.do("WhyRecords", true, func() int64 {
		e.noteFlags("WhyRecords", flags)
		r1, rc := e.lookupRecord(dataSourceCode1, recordID1)
		if rc != 0 {
			return rc
		}
		r2, rc := e.lookupRecord(dataSourceCode2, recordID2)
		if rc != 0 {
			return rc
		}
		doc = marshal(map[string]any{
			"WHY_RESULTS": []any{map[string]any{
				"INTERNAL_ID":   r1.entityID,
				"ENTITY_ID":     r1.entityID,
				"INTERNAL_ID_2": r2.entityID,
				"ENTITY_ID_2":   r2.entityID,
				"MATCH_INFO":    map[string]any{"WHY_KEY": ""},
			}},
		})
		return 0
	})
	return doc, rc
}

func (e *engine) HowEntityByEntityID(entityID int64, flags int64) (doc string, rc int64) {
	rc = e.do("HowEntityByEntityID", true, func() int64 {
		e.noteFlags("HowEntityByEntityID", flags)
		if rc := e.lookupEntity(entityID); rc != 0 {
			return rc
		}
		doc = marshal(map[string]any{"HOW_RESULTS": map[string]any{
			"RESOLUTION_STEPS": []any{},
			"FINAL_STATE":      map[string]any{"NEED_REEVALUATION": 0, "VIRTUAL_ENTITIES": []any{}},
		}})
		return 0
	})
	return doc, rc
}

// FindPathByEntityID models a repository without relationships: the only
// path is from an entity to itself.
func (e *engine) FindPathByEntityID(startEntityID, endEntityID int64, _ int64, avoid, required string, flags int64) (doc string, rc int64) {
	rc = e.do("FindPathByEntityID", true, func() int64 {
		e.noteFlags("FindPathByEntityID", flags)
		for _, d := range []string{avoid, required} {
			if d != "" && !json.Valid([]byte(d)) {
				return e.fail(CodeBadJSON, "invalid path constraint document")
			}
		}
		for _, id := range []int64{startEntityID, endEntityID} {
			if rc := e.lookupEntity(id); rc != 0 {
				return rc
			}
		}
		path := []int64{}
		if startEntityID == endEntityID {
			path = append(path, startEntityID)
		}
		doc = marshal(map[string]any{
			"ENTITY_PATHS": []any{map[string]any{
				"START_ENTITY_ID": startEntityID,
				"END_ENTITY_ID":   endEntityID,
				"ENTITIES":        path,
			}},
		})
		return 0
	})
	return doc, rc
}

func (e *engine) FindNetworkByEntityID(entityIDs string, _, _, _ int64, flags int64) (doc string, rc int64) {
	rc = e.do("FindNetworkByEntityID", true, func() int64 {
		e.noteFlags("FindNetworkByEntityID", flags)
		var query struct {
			Entities []struct {
				ID int64 `json:"ENTITY_ID"`
			} `json:"ENTITIES"`
		}
		if err := json.Unmarshal([]byte(entityIDs), &query); err != nil {
			return e.fail(CodeBadJSON, "invalid entity list: %v", err)
		}
		entities := []any{}
		for _, q := range query.Entities {
			if rc := e.lookupEntity(q.ID); rc != 0 {
				return rc
			}
			entities = append(entities, map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(q.ID)})
		}
		doc = marshal(map[string]any{"ENTITY_PATHS": []any{}, "ENTITIES": entities})
		return 0
	})
	return doc, rc
}

func (e *engine) CountRedoRecords() (n int64, rc int64) {
	rc = e.do("CountRedoRecords", true, func() int64 {
		n = int64(len(e.l.redo))
		return 0
	})
	return n, rc
}

func (e *engine) GetRedoRecord() (redo string, rc int64) {
	rc = e.do("GetRedoRecord", true, func() int64 {
		if len(e.l.redo) > 0 {
			redo = e.l.redo[0]
			e.l.redo = e.l.redo[1:]
		}
		return 0
	})
	return redo, rc
}

func (e *engine) processRedoLocked(redo string) int64 {
	if !json.Valid([]byte(redo)) {
		return e.fail(CodeBadJSON, "invalid redo record")
	}
	e.l.stats.redone++
	return 0
}

func (e *engine) ProcessRedoRecord(redoRecord string) int64 {
	return e.do("ProcessRedoRecord", true, func() int64 { return e.processRedoLocked(redoRecord) })
}

func (e *engine) ProcessRedoRecordWithInfo(redoRecord string, flags int64) (info string, rc int64) {
	rc = e.do("ProcessRedoRecordWithInfo", true, func() int64 {
		e.noteFlags("ProcessRedoRecordWithInfo", flags)
		if rc := e.processRedoLocked(redoRecord); rc != 0 {
			return rc
		}
		info = marshal(map[string]any{"AFFECTED_ENTITIES": affected()})
		return 0
	})
	return info, rc
}

func (e *engine) openExportLocked(chunks []string) native.Handle {
	if len(e.l.exportChunks) > 0 {
		chunks = append([]string(nil), e.l.exportChunks...)
	}
	h := e.l.allocHandle(FamilyExport)
	e.l.exportHandles[h] = &exportCursor{chunks: chunks}
	return h
}

func (e *engine) ExportJSONEntityReport(flags int64) (h native.Handle, rc int64) {
	rc = e.do("ExportJSONEntityReport", true, func() int64 {
		e.noteFlags("ExportJSONEntityReport", flags)
		var chunks []string
		for _, id := range e.l.sortedEntityIDs() {
			chunks = append(chunks, marshal(map[string]any{"RESOLVED_ENTITY": e.l.entityLocked(id)})+"\n")
		}
		h = e.openExportLocked(chunks)
		return 0
	})
	return h, rc
}

func (e *engine) ExportCSVEntityReport(csvColumnList string, flags int64) (h native.Handle, rc int64) {
	rc = e.do("ExportCSVEntityReport", true, func() int64 {
		e.noteFlags("ExportCSVEntityReport", flags)
		columns := csvColumnList
		if columns == "" || columns == "*" {
			columns = "RESOLVED_ENTITY_ID,DATA_SOURCE,RECORD_ID"
		}
		chunks := []string{columns + "\n"}
		for _, id := range e.l.sortedEntityIDs() {
			key := e.l.entities[id]
			chunks = append(chunks, fmt.Sprintf("%d,%q,%q\n", id, key.dataSource, key.recordID))
		}
		h = e.openExportLocked(chunks)
		return 0
	})
	return h, rc
}

func (e *engine) FetchNext(exportHandle native.Handle) (chunk string, rc int64) {
	rc = e.do("FetchNext", true, func() int64 {
		cur, ok := e.l.exportHandles[exportHandle]
		if !ok {
			return e.fail(CodeInvalidHandle, "invalid export handle %d", exportHandle)
		}
		if cur.pos < len(cur.chunks) {
			chunk = cur.chunks[cur.pos]
			cur.pos++
		}
		return 0
	})
	return chunk, rc
}

func (e *engine) CloseExport(exportHandle native.Handle) int64 {
	return e.do("CloseExport", true, func() int64 {
		if _, ok := e.l.exportHandles[exportHandle]; !ok {
			return e.fail(CodeInvalidHandle, "invalid export handle %d", exportHandle)
		}
		delete(e.l.exportHandles, exportHandle)
		e.l.closed[FamilyExport]++
		return 0
	})
}

func (e *engine) GetStats() (doc string, rc int64) {
	rc = e.do("GetStats", true, func() int64 {
		s := e.l.stats
		e.l.stats = workload{}
		doc = marshal(map[string]any{"workload": map[string]any{
			"addedRecords":     s.added,
			"deletedRecords":   s.deleted,
			"reevaluations":    s.reevaluated,
			"redoneRecords":    s.redone,
			"activeConfigID":   e.l.activeConfigID,
			"pendingRedoCount": len(e.l.redo),
		}})
		return 0
	})
	return doc, rc
}
