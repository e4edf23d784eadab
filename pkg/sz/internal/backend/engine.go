//go:build linux || darwin

package backend

import "github.com/szsafe/szsafe-go/pkg/sz/native"

type engine struct {
	errorState

	init             func(instanceName, settings string, verbose int64) int64
	initWithConfigID func(instanceName, settings string, configID, verbose int64) int64
	destroy          func() int64
	reinit           func(configID int64) int64
	primeEngine      func() int64
	getActiveConfig  func(out *int64) int64

	addRecord                func(ds, id, def string) int64
	addRecordWithInfo        func(ds, id, def string, flags int64, out **byte) int64
	deleteRecord             func(ds, id string) int64
	deleteRecordWithInfo     func(ds, id string, flags int64, out **byte) int64
	reevaluateEntity         func(entityID, flags int64) int64
	reevaluateEntityWithInfo func(entityID, flags int64, out **byte) int64
	reevaluateRecord         func(ds, id string, flags int64) int64
	reevaluateRecordWithInfo func(ds, id string, flags int64, out **byte) int64

	getRecord             func(ds, id string, flags int64, out **byte) int64
	getEntityByEntityID   func(entityID, flags int64, out **byte) int64
	getEntityByRecordID   func(ds, id string, flags int64, out **byte) int64
	searchByAttributes    func(attributes, profile string, flags int64, out **byte) int64
	whyEntities           func(id1, id2, flags int64, out **byte) int64
	whyRecords            func(ds1, id1, ds2, id2 string, flags int64, out **byte) int64
	howEntityByEntityID   func(entityID, flags int64, out **byte) int64
	findPathByEntityID    func(start, end, maxDegrees int64, avoid, required string, flags int64, out **byte) int64
	findNetworkByEntityID func(ids string, maxDegrees, buildOutDegrees, buildOutMax, flags int64, out **byte) int64

	countRedoRecords          func(out *int64) int64
	getRedoRecord             func(out **byte) int64
	processRedoRecord         func(redo string) int64
	processRedoRecordWithInfo func(redo string, flags int64, out **byte) int64

	exportJSON  func(flags int64, out *uintptr) int64
	exportCSV   func(columns string, flags int64, out *uintptr) int64
	fetchNext   func(h uintptr, out **byte) int64
	closeExport func(h uintptr) int64

	getStats func(out **byte) int64
}

var _ native.Engine = (*engine)(nil)

func (e *engine) symbols() []symbol {
	return append(e.errorSymbols("Sz_"),
		symbol{"Sz_init", &e.init},
		symbol{"Sz_initWithConfigID", &e.initWithConfigID},
		symbol{"Sz_destroy", &e.destroy},
		symbol{"Sz_reinit", &e.reinit},
		symbol{"Sz_primeEngine", &e.primeEngine},
		symbol{"Sz_getActiveConfigID", &e.getActiveConfig},
		symbol{"Sz_addRecord", &e.addRecord},
		symbol{"Sz_addRecordWithInfo", &e.addRecordWithInfo},
		symbol{"Sz_deleteRecord", &e.deleteRecord},
		symbol{"Sz_deleteRecordWithInfo", &e.deleteRecordWithInfo},
		symbol{"Sz_reevaluateEntity", &e.reevaluateEntity},
		symbol{"Sz_reevaluateEntityWithInfo", &e.reevaluateEntityWithInfo},
		symbol{"Sz_reevaluateRecord", &e.reevaluateRecord},
		symbol{"Sz_reevaluateRecordWithInfo", &e.reevaluateRecordWithInfo},
		symbol{"Sz_getRecord", &e.getRecord},
		symbol{"Sz_getEntityByEntityID", &e.getEntityByEntityID},
		symbol{"Sz_getEntityByRecordID", &e.getEntityByRecordID},
		symbol{"Sz_searchByAttributes", &e.searchByAttributes},
		symbol{"Sz_whyEntities", &e.whyEntities},
		symbol{"Sz_whyRecords", &e.whyRecords},
		symbol{"Sz_howEntityByEntityID", &e.howEntityByEntityID},
		symbol{"Sz_findPathByEntityID", &e.findPathByEntityID},
		symbol{"Sz_findNetworkByEntityID", &e.findNetworkByEntityID},
		symbol{"Sz_countRedoRecords", &e.countRedoRecords},
		symbol{"Sz_getRedoRecord", &e.getRedoRecord},
		symbol{"Sz_processRedoRecord", &e.processRedoRecord},
		symbol{"Sz_processRedoRecordWithInfo", &e.processRedoRecordWithInfo},
		symbol{"Sz_exportJSONEntityReport", &e.exportJSON},
		symbol{"Sz_exportCSVEntityReport", &e.exportCSV},
		symbol{"Sz_fetchNext", &e.fetchNext},
		symbol{"Sz_closeExportReport", &e.closeExport},
		symbol{"Sz_getStats", &e.getStats},
	)
}

func (e *engine) Init(instanceName, settings string, verbose int64) int64 {
	return e.init(instanceName, settings, verbose)
}

func (e *engine) InitWithConfigID(instanceName, settings string, configID, verbose int64) int64 {
	return e.initWithConfigID(instanceName, settings, configID, verbose)
}

func (e *engine) Destroy() int64                    { return e.destroy() }
func (e *engine) Reinit(configID int64) int64       { return e.reinit(configID) }
func (e *engine) PrimeEngine() int64                { return e.primeEngine() }
func (e *engine) GetActiveConfigID() (int64, int64) { return int64Out(e.getActiveConfig) }

func (e *engine) AddRecord(ds, id, def string) int64 { return e.addRecord(ds, id, def) }

func (e *engine) AddRecordWithInfo(ds, id, def string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.addRecordWithInfo(ds, id, def, flags, out) })
}

func (e *engine) DeleteRecord(ds, id string) int64 { return e.deleteRecord(ds, id) }

func (e *engine) DeleteRecordWithInfo(ds, id string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.deleteRecordWithInfo(ds, id, flags, out) })
}

func (e *engine) ReevaluateEntity(entityID, flags int64) int64 {
	return e.reevaluateEntity(entityID, flags)
}

func (e *engine) ReevaluateEntityWithInfo(entityID, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.reevaluateEntityWithInfo(entityID, flags, out) })
}

func (e *engine) ReevaluateRecord(ds, id string, flags int64) int64 {
	return e.reevaluateRecord(ds, id, flags)
}

func (e *engine) ReevaluateRecordWithInfo(ds, id string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.reevaluateRecordWithInfo(ds, id, flags, out) })
}

func (e *engine) GetRecord(ds, id string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.getRecord(ds, id, flags, out) })
}

func (e *engine) GetEntityByEntityID(entityID, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.getEntityByEntityID(entityID, flags, out) })
}

func (e *engine) GetEntityByRecordID(ds, id string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.getEntityByRecordID(ds, id, flags, out) })
}

func (e *engine) SearchByAttributes(attributes, profile string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.searchByAttributes(attributes, profile, flags, out) })
}

func (e *engine) WhyEntities(id1, id2, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.whyEntities(id1, id2, flags, out) })
}

func (e *engine) WhyRecords(ds1, id1, ds2, id2 string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.whyRecords(ds1, id1, ds2, id2, flags, out) })
}

func (e *engine) HowEntityByEntityID(entityID, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.howEntityByEntityID(entityID, flags, out) })
}

func (e *engine) FindPathByEntityID(start, end, maxDegrees int64, avoid, required string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 {
		return e.findPathByEntityID(start, end, maxDegrees, avoid, required, flags, out)
	})
}

func (e *engine) FindNetworkByEntityID(ids string, maxDegrees, buildOutDegrees, buildOutMax, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 {
		return e.findNetworkByEntityID(ids, maxDegrees, buildOutDegrees, buildOutMax, flags, out)
	})
}

func (e *engine) CountRedoRecords() (int64, int64)    { return int64Out(e.countRedoRecords) }
func (e *engine) GetRedoRecord() (string, int64)      { return e.lib.text(e.getRedoRecord) }
func (e *engine) ProcessRedoRecord(redo string) int64 { return e.processRedoRecord(redo) }

func (e *engine) ProcessRedoRecordWithInfo(redo string, flags int64) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.processRedoRecordWithInfo(redo, flags, out) })
}

func (e *engine) ExportJSONEntityReport(flags int64) (native.Handle, int64) {
	return handleOut(func(out *uintptr) int64 { return e.exportJSON(flags, out) })
}

func (e *engine) ExportCSVEntityReport(columns string, flags int64) (native.Handle, int64) {
	return handleOut(func(out *uintptr) int64 { return e.exportCSV(columns, flags, out) })
}

func (e *engine) FetchNext(h native.Handle) (string, int64) {
	return e.lib.text(func(out **byte) int64 { return e.fetchNext(uintptr(h), out) })
}

func (e *engine) CloseExport(h native.Handle) int64 { return e.closeExport(uintptr(h)) }

func (e *engine) GetStats() (string, int64) { return e.lib.text(e.getStats) }
