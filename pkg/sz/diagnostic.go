package sz

import (
	"context"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Diagnostic exposes repository inspection and maintenance operations.
type Diagnostic struct {
	env       *Environment
	native    native.Diagnostic
	destroyed bool
}

func (m *Diagnostic) reinit(configID int64) error {
	return call(m.native, func() int64 { return m.native.Reinit(configID) })
}

// CheckRepositoryPerformance runs a write benchmark against the repository
// for roughly secondsToRun seconds and returns the results document.
func (m *Diagnostic) CheckRepositoryPerformance(ctx context.Context, secondsToRun int) (string, error) {
	return execute(ctx, m.env, "Diagnostic.CheckRepositoryPerformance", func() (string, error) {
		return callValue(m.native, func() (string, int64) {
			return m.native.CheckRepositoryPerformance(int64(secondsToRun))
		})
	})
}

// RepositoryInfo describes the repository's data stores.
func (m *Diagnostic) RepositoryInfo(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "Diagnostic.RepositoryInfo", func() (string, error) {
		return callValue(m.native, m.native.GetRepositoryInfo)
	})
}

// Feature returns the document of a resolved feature.
func (m *Diagnostic) Feature(ctx context.Context, featureID int64) (string, error) {
	return execute(ctx, m.env, "Diagnostic.Feature", func() (string, error) {
		return callValue(m.native, func() (string, int64) { return m.native.GetFeature(featureID) })
	})
}

// PurgeRepository deletes every record and entity. It is irreversible.
func (m *Diagnostic) PurgeRepository(ctx context.Context) error {
	return run(ctx, m.env, "Diagnostic.PurgeRepository", func() error {
		return call(m.native, m.native.PurgeRepository)
	})
}
