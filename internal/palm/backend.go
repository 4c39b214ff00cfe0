//go:build !opencv

package palm

// Backend names the extractor compiled into this binary.
const Backend = "go"

func newDefault() Extractor {
	return Pipeline{}
}
