package loader

import (
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfcpuConfigOnce sync.Once

// pdfConfiguration returns a pdfcpu configuration that never touches the
// user config directory.
func pdfConfiguration() *model.Configuration {
	pdfcpuConfigOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// ValidatePDF checks the structure of the PDF at path and returns its page
// count.
func ValidatePDF(path string) (int, error) {
	conf := pdfConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("invalid pdf: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pdf pages: %w", err)
	}
	return pages, nil
}
