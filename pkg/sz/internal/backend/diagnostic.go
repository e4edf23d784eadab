//go:build linux || darwin

package backend

import "github.com/szsafe/szsafe-go/pkg/sz/native"

type diagnostic struct {
	errorState

	init                       func(instanceName, settings string, verbose int64) int64
	initWithConfigID           func(instanceName, settings string, configID, verbose int64) int64
	destroy                    func() int64
	reinit                     func(configID int64) int64
	checkRepositoryPerformance func(seconds int64, out **byte) int64
	getRepositoryInfo          func(out **byte) int64
	getFeature                 func(featureID int64, out **byte) int64
	purgeRepository            func() int64
}

var _ native.Diagnostic = (*diagnostic)(nil)

func (d *diagnostic) symbols() []symbol {
	return append(d.errorSymbols("SzDiagnostic_"),
		symbol{"SzDiagnostic_init", &d.init},
		symbol{"SzDiagnostic_initWithConfigID", &d.initWithConfigID},
		symbol{"SzDiagnostic_destroy", &d.destroy},
		symbol{"SzDiagnostic_reinit", &d.reinit},
		symbol{"SzDiagnostic_checkRepositoryPerformance", &d.checkRepositoryPerformance},
		symbol{"SzDiagnostic_getRepositoryInfo", &d.getRepositoryInfo},
		symbol{"SzDiagnostic_getFeature", &d.getFeature},
		symbol{"SzDiagnostic_purgeRepository", &d.purgeRepository},
	)
}

func (d *diagnostic) Init(instanceName, settings string, verbose int64) int64 {
	return d.init(instanceName, settings, verbose)
}

func (d *diagnostic) InitWithConfigID(instanceName, settings string, configID, verbose int64) int64 {
	return d.initWithConfigID(instanceName, settings, configID, verbose)
}

func (d *diagnostic) Destroy() int64              { return d.destroy() }
func (d *diagnostic) Reinit(configID int64) int64 { return d.reinit(configID) }
func (d *diagnostic) PurgeRepository() int64      { return d.purgeRepository() }

func (d *diagnostic) CheckRepositoryPerformance(seconds int64) (string, int64) {
	return d.lib.text(func(out **byte) int64 { return d.checkRepositoryPerformance(seconds, out) })
}

func (d *diagnostic) GetRepositoryInfo() (string, int64) { return d.lib.text(d.getRepositoryInfo) }

func (d *diagnostic) GetFeature(featureID int64) (string, int64) {
	return d.lib.text(func(out **byte) int64 { return d.getFeature(featureID, out) })
}

type product struct {
	errorState

	init       func(instanceName, settings string, verbose int64) int64
	destroy    func() int64
	getLicense func(out **byte) int64
	getVersion func(out **byte) int64
}

var _ native.Product = (*product)(nil)

func (p *product) symbols() []symbol {
	return append(p.errorSymbols("SzProduct_"),
		symbol{"SzProduct_init", &p.init},
		symbol{"SzProduct_destroy", &p.destroy},
		symbol{"SzProduct_getLicense", &p.getLicense},
		symbol{"SzProduct_getVersion", &p.getVersion},
	)
}

func (p *product) Init(instanceName, settings string, verbose int64) int64 {
	return p.init(instanceName, settings, verbose)
}

func (p *product) Destroy() int64              { return p.destroy() }
func (p *product) GetLicense() (string, int64) { return p.lib.text(p.getLicense) }
func (p *product) GetVersion() (string, int64) { return p.lib.text(p.getVersion) }
