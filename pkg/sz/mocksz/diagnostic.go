package mocksz

import "github.com/szsafe/szsafe-go/pkg/sz/native"

type diagnostic struct{ component }

var _ native.Diagnostic = (*diagnostic)(nil)

func (d *diagnostic) Init(_, settings string, _ int64) int64 {
	return d.do("Init", false, func() int64 { return d.initLocked(settings) })
}

func (d *diagnostic) InitWithConfigID(_, settings string, configID int64, _ int64) int64 {
	return d.do("InitWithConfigID", false, func() int64 {
		if _, ok := d.l.configs[configID]; !ok {
			return d.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		return d.initLocked(settings)
	})
}

func (d *diagnostic) Destroy() int64 {
	return d.do("Destroy", true, d.destroyLocked)
}

func (d *diagnostic) Reinit(configID int64) int64 {
	return d.do("Reinit", true, func() int64 {
		if _, ok := d.l.configs[configID]; !ok {
			return d.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		return 0
	})
}

func (d *diagnostic) CheckRepositoryPerformance(secondsToRun int64) (doc string, rc int64) {
	rc = d.do("CheckRepositoryPerformance", true, func() int64 {
		doc = marshal(map[string]any{"numRecordsInserted": 0, "insertTime": secondsToRun * 1000})
		return 0
	})
	return doc, rc
}

func (d *diagnostic) GetRepositoryInfo() (doc string, rc int64) {
	rc = d.do("GetRepositoryInfo", true, func() int64 {
		doc = marshal(map[string]any{"dataStores": []any{
			map[string]any{"id": "CORE", "type": "memory", "location": "mocksz"},
		}})
		return 0
	})
	return doc, rc
}

// GetFeature reports one feature per stored entity, sharing its id.
func (d *diagnostic) GetFeature(featureID int64) (doc string, rc int64) {
	rc = d.do("GetFeature", true, func() int64 {
		if _, ok := d.l.entities[featureID]; !ok {
			return d.fail(CodeEntityNotFound, "Unknown feature value '%d'", featureID)
		}
		doc = marshal(map[string]any{"LIB_FEAT_ID": featureID, "FTYPE_CODE": "RECORD_KEY", "ELEMENTS": []any{}})
		return 0
	})
	return doc, rc
}

func (d *diagnostic) PurgeRepository() int64 {
	return d.do("PurgeRepository", true, func() int64 {
		d.l.records = make(map[recordKey]*record)
		d.l.entities = make(map[int64]recordKey)
		d.l.redo = nil
		return 0
	})
}

type product struct{ component }

var _ native.Product = (*product)(nil)

func (p *product) Init(_, settings string, _ int64) int64 {
	return p.do("Init", false, func() int64 { return p.initLocked(settings) })
}

func (p *product) Destroy() int64 {
	return p.do("Destroy", true, p.destroyLocked)
}

func (p *product) GetLicense() (doc string, rc int64) {
	rc = p.do("GetLicense", true, func() int64 {
		doc = marshal(map[string]any{"customer": "mocksz", "licenseType": "EVAL (Solely for non-productive use)"})
		return 0
	})
	return doc, rc
}

// ProductVersion is the version the fake reports.
const ProductVersion = "4.0.0"

func (p *product) GetVersion() (doc string, rc int64) {
	rc = p.do("GetVersion", true, func() int64 {
		doc = marshal(map[string]any{"PRODUCT_NAME": "mocksz", "VERSION": ProductVersion})
		return 0
	})
	return doc, rc
}
