package sz

import (
	"context"

	"github.com/szsafe/szsafe-go/pkg/sz/native"
)

// Product reports license and version details of the native library.
type Product struct {
	env       *Environment
	native    native.Product
	destroyed bool
}

// License returns the license document.
func (m *Product) License(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "Product.License", func() (string, error) {
		return callValue(m.native, m.native.GetLicense)
	})
}

// Version returns the native version document.
func (m *Product) Version(ctx context.Context) (string, error) {
	return execute(ctx, m.env, "Product.Version", func() (string, error) {
		return callValue(m.native, m.native.GetVersion)
	})
}
