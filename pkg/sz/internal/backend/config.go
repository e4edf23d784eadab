//go:build linux || darwin

package backend

import "github.com/szsafe/szsafe-go/pkg/sz/native"

type config struct {
	errorState

	init                  func(instanceName, settings string, verbose int64) int64
	destroy               func() int64
	create                func(out *uintptr) int64
	load                  func(definition string, out *uintptr) int64
	export                func(h uintptr, out **byte) int64
	close                 func(h uintptr) int64
	getDataSourceRegistry func(h uintptr, out **byte) int64
	registerDataSource    func(h uintptr, doc string, out **byte) int64
	unregisterDataSource  func(h uintptr, doc string, out **byte) int64
}

var _ native.Config = (*config)(nil)

func (c *config) symbols() []symbol {
	return append(c.errorSymbols("SzConfig_"),
		symbol{"SzConfig_init", &c.init},
		symbol{"SzConfig_destroy", &c.destroy},
		symbol{"SzConfig_create", &c.create},
		symbol{"SzConfig_load", &c.load},
		symbol{"SzConfig_export", &c.export},
		symbol{"SzConfig_close", &c.close},
		symbol{"SzConfig_getDataSourceRegistry", &c.getDataSourceRegistry},
		symbol{"SzConfig_registerDataSource", &c.registerDataSource},
		symbol{"SzConfig_unregisterDataSource", &c.unregisterDataSource},
	)
}

func (c *config) Init(instanceName, settings string, verbose int64) int64 {
	return c.init(instanceName, settings, verbose)
}

func (c *config) Destroy() int64 { return c.destroy() }

func (c *config) Create() (native.Handle, int64) { return handleOut(c.create) }

func (c *config) Load(definition string) (native.Handle, int64) {
	return handleOut(func(out *uintptr) int64 { return c.load(definition, out) })
}

func (c *config) Export(h native.Handle) (string, int64) {
	return c.lib.text(func(out **byte) int64 { return c.export(uintptr(h), out) })
}

func (c *config) Close(h native.Handle) int64 { return c.close(uintptr(h)) }

func (c *config) GetDataSourceRegistry(h native.Handle) (string, int64) {
	return c.lib.text(func(out **byte) int64 { return c.getDataSourceRegistry(uintptr(h), out) })
}

func (c *config) RegisterDataSource(h native.Handle, doc string) (string, int64) {
	return c.lib.text(func(out **byte) int64 { return c.registerDataSource(uintptr(h), doc, out) })
}

func (c *config) UnregisterDataSource(h native.Handle, doc string) (string, int64) {
	return c.lib.text(func(out **byte) int64 { return c.unregisterDataSource(uintptr(h), doc, out) })
}

type configManager struct {
	errorState

	init                   func(instanceName, settings string, verbose int64) int64
	destroy                func() int64
	registerConfig         func(definition, comment string, out *int64) int64
	getConfig              func(configID int64, out **byte) int64
	getConfigRegistry      func(out **byte) int64
	getDefaultConfigID     func(out *int64) int64
	replaceDefaultConfigID func(current, next int64) int64
	setDefaultConfigID     func(configID int64) int64
}

var _ native.ConfigManager = (*configManager)(nil)

func (m *configManager) symbols() []symbol {
	return append(m.errorSymbols("SzConfigMgr_"),
		symbol{"SzConfigMgr_init", &m.init},
		symbol{"SzConfigMgr_destroy", &m.destroy},
		symbol{"SzConfigMgr_registerConfig", &m.registerConfig},
		symbol{"SzConfigMgr_getConfig", &m.getConfig},
		symbol{"SzConfigMgr_getConfigRegistry", &m.getConfigRegistry},
		symbol{"SzConfigMgr_getDefaultConfigID", &m.getDefaultConfigID},
		symbol{"SzConfigMgr_replaceDefaultConfigID", &m.replaceDefaultConfigID},
		symbol{"SzConfigMgr_setDefaultConfigID", &m.setDefaultConfigID},
	)
}

func (m *configManager) Init(instanceName, settings string, verbose int64) int64 {
	return m.init(instanceName, settings, verbose)
}

func (m *configManager) Destroy() int64 { return m.destroy() }

func (m *configManager) RegisterConfig(definition, comment string) (int64, int64) {
	return int64Out(func(out *int64) int64 { return m.registerConfig(definition, comment, out) })
}

func (m *configManager) GetConfig(configID int64) (string, int64) {
	return m.lib.text(func(out **byte) int64 { return m.getConfig(configID, out) })
}

func (m *configManager) GetConfigRegistry() (string, int64) { return m.lib.text(m.getConfigRegistry) }

func (m *configManager) GetDefaultConfigID() (int64, int64) { return int64Out(m.getDefaultConfigID) }

func (m *configManager) ReplaceDefaultConfigID(current, next int64) int64 {
	return m.replaceDefaultConfigID(current, next)
}

func (m *configManager) SetDefaultConfigID(configID int64) int64 {
	return m.setDefaultConfigID(configID)
}
