package mocksz

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

type config struct{ component }

var _ native.Config = (*config)(nil)

func (c *config) Init(_, settings string, _ int64) int64 {
	return c.do("Init", false, func() int64 { return c.initLocked(settings) })
}

func (c *config) Destroy() int64 {
	return c.do("Destroy", true, c.destroyLocked)
}

func (c *config) openLocked(doc *configDocument) native.Handle {
	h := c.l.allocHandle(FamilyConfig)
	c.l.configHandles[h] = doc
	return h
}

func (c *config) handleLocked(h native.Handle) (*configDocument, int64) {
	doc, ok := c.l.configHandles[h]
	if !ok {
		return nil, c.fail(CodeInvalidHandle, "invalid config handle %d", h)
	}
	return doc, 0
}

func (c *config) Create() (h native.Handle, rc int64) {
	rc = c.do("Create", true, func() int64 {
		h = c.openLocked(templateDocument())
		return 0
	})
	return h, rc
}

func (c *config) Load(configDefinition string) (h native.Handle, rc int64) {
	rc = c.do("Load", true, func() int64 {
		doc, err := parseConfig(configDefinition)
		if err != nil {
			return c.fail(CodeBadJSON, "invalid configuration definition: %v", err)
		}
		h = c.openLocked(doc)
		return 0
	})
	return h, rc
}

func (c *config) Export(configHandle native.Handle) (def string, rc int64) {
	rc = c.do("Export", true, func() int64 {
		doc, rc := c.handleLocked(configHandle)
		if rc != 0 {
			return rc
		}
		def = doc.String()
		return 0
	})
	return def, rc
}

func (c *config) Close(configHandle native.Handle) int64 {
	return c.do("Close", true, func() int64 {
		if _, rc := c.handleLocked(configHandle); rc != 0 {
			return rc
		}
		delete(c.l.configHandles, configHandle)
		c.l.closed[FamilyConfig]++
		return 0
	})
}

func (c *config) GetDataSourceRegistry(configHandle native.Handle) (doc string, rc int64) {
	rc = c.do("GetDataSourceRegistry", true, func() int64 {
		cfg, rc := c.handleLocked(configHandle)
		if rc != 0 {
			return rc
		}
		sources := append([]dataSource(nil), cfg.Config.DataSources...)
		sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
		doc = marshal(map[string]any{"DATA_SOURCES": sources})
		return 0
	})
	return doc, rc
}

func (c *config) parseDataSource(document string) (string, int64) {
	var ds dataSource
	if err := json.Unmarshal([]byte(document), &ds); err != nil || ds.Code == "" {
		return "", c.fail(CodeBadJSON, "invalid data source document %q", document)
	}
	return strings.ToUpper(ds.Code), 0
}

func (c *config) RegisterDataSource(configHandle native.Handle, dataSourceDocument string) (result string, rc int64) {
	rc = c.do("RegisterDataSource", true, func() int64 {
		cfg, rc := c.handleLocked(configHandle)
		if rc != 0 {
			return rc
		}
		code, rc := c.parseDataSource(dataSourceDocument)
		if rc != 0 {
			return rc
		}
		if cfg.has(code) {
			return c.fail(CodeDataSourceExists, "Data source code [%s] already exists.", code)
		}
		var next int64 = 1
		for _, ds := range cfg.Config.DataSources {
			if ds.ID >= next {
				next = ds.ID + 1
			}
		}
		cfg.Config.DataSources = append(cfg.Config.DataSources, dataSource{ID: next, Code: code})
		result = marshal(map[string]any{"DSRC_ID": next})
		return 0
	})
	return result, rc
}

func (c *config) UnregisterDataSource(configHandle native.Handle, dataSourceDocument string) (result string, rc int64) {
	rc = c.do("UnregisterDataSource", true, func() int64 {
		cfg, rc := c.handleLocked(configHandle)
		if rc != 0 {
			return rc
		}
		code, rc := c.parseDataSource(dataSourceDocument)
		if rc != 0 {
			return rc
		}
		kept := cfg.Config.DataSources[:0]
		found := false
		for _, ds := range cfg.Config.DataSources {
			if strings.EqualFold(ds.Code, code) {
				found = true
				continue
			}
			kept = append(kept, ds)
		}
		if !found {
			return c.fail(CodeDataSourceMissing, "Data source code [%s] does not exist.", code)
		}
		cfg.Config.DataSources = kept
		result = "{}"
		return 0
	})
	return result, rc
}
