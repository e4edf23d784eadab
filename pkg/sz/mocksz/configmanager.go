package mocksz

import (
	"sort"
	"time"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

type configManager struct{ component }

var _ native.ConfigManager = (*configManager)(nil)

func (m *configManager) Init(_, settings string, _ int64) int64 {
	return m.do("Init", false, func() int64 { return m.initLocked(settings) })
}

func (m *configManager) Destroy() int64 {
	return m.do("Destroy", true, m.destroyLocked)
}

func (m *configManager) RegisterConfig(configDefinition, configComment string) (id int64, rc int64) {
	rc = m.do("RegisterConfig", true, func() int64 {
		doc, err := parseConfig(configDefinition)
		if err != nil {
			return m.fail(CodeBadJSON, "invalid configuration definition: %v", err)
		}
		id = m.l.registerLocked(doc, configComment)
		return 0
	})
	return id, rc
}

func (m *configManager) GetConfig(configID int64) (def string, rc int64) {
	rc = m.do("GetConfig", true, func() int64 {
		cfg, ok := m.l.configs[configID]
		if !ok {
			return m.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		def = cfg.doc.String()
		return 0
	})
	return def, rc
}

func (m *configManager) GetConfigRegistry() (doc string, rc int64) {
	rc = m.do("GetConfigRegistry", true, func() int64 {
		ids := make([]int64, 0, len(m.l.configs))
		for id := range m.l.configs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		entries := make([]any, 0, len(ids))
		for _, id := range ids {
			cfg := m.l.configs[id]
			entries = append(entries, map[string]any{
				"CONFIG_ID":      id,
				"CONFIG_COMMENT": cfg.comment,
				"SYS_CREATE_DT":  cfg.created.Format(time.DateTime),
			})
		}
		doc = marshal(map[string]any{"CONFIGS": entries})
		return 0
	})
	return doc, rc
}

func (m *configManager) GetDefaultConfigID() (id int64, rc int64) {
	rc = m.do("GetDefaultConfigID", true, func() int64 {
		id = m.l.defaultConfigID
		return 0
	})
	return id, rc
}

func (m *configManager) ReplaceDefaultConfigID(currentDefaultConfigID, newDefaultConfigID int64) int64 {
	return m.do("ReplaceDefaultConfigID", true, func() int64 {
		if m.l.defaultConfigID != currentDefaultConfigID {
			return m.fail(CodeReplaceConflict,
				"Current configuration ID does not match specified data [%d] != [%d]",
				m.l.defaultConfigID, currentDefaultConfigID)
		}
		if _, ok := m.l.configs[newDefaultConfigID]; !ok {
			return m.fail(CodeConfigNotFound, "configuration %d is not registered", newDefaultConfigID)
		}
		m.l.defaultConfigID = newDefaultConfigID
		return 0
	})
}

func (m *configManager) SetDefaultConfigID(configID int64) int64 {
	return m.do("SetDefaultConfigID", true, func() int64 {
		if _, ok := m.l.configs[configID]; !ok {
			return m.fail(CodeConfigNotFound, "configuration %d is not registered", configID)
		}
		m.l.defaultConfigID = configID
		return 0
	})
}
