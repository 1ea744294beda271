package detector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// Spec describes a detector backend.
type Spec struct {
	Name           string
	PackagesNeeded []string
	New            func(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (domain.Detector, error)
}

// Known lists the backends in order of preference.
var Known = []Spec{
	{Name: AskalonoName, PackagesNeeded: []string{"askalono-cli"}, New: func(dc map[string]string, cfg domain.LicenseConfig, opts ...Option) (domain.Detector, error) {
		return NewAskalono(dc, cfg, opts...)
	}},
	{Name: TrivyName, PackagesNeeded: []string{"trivy"}, New: func(dc map[string]string, cfg domain.LicenseConfig, opts ...Option) (domain.Detector, error) {
		return NewTrivy(dc, cfg, opts...)
	}},
	{Name: ScancodeName, PackagesNeeded: []string{"scancode-toolkit"}, New: func(dc map[string]string, cfg domain.LicenseConfig, opts ...Option) (domain.Detector, error) {
		return NewScancode(dc, cfg, opts...)
	}},
	{Name: BuiltinName, New: func(dc map[string]string, cfg domain.LicenseConfig, opts ...Option) (domain.Detector, error) {
		return NewBuiltin(dc, cfg, opts...)
	}},
}

// Names returns the known detector names in order.
func Names() []string {
	names := make([]string, len(Known))
	for i, s := range Known {
		names[i] = s.Name
	}
	return names
}

// Registry is the result of probing every backend.
type Registry struct {
	Available []domain.Detector
	// Missing maps unavailable backends to the reason.
	Missing map[string]error
}

// Load instantiates every known backend. Backends that are not installed
// end up in Missing; any other construction error is returned.
func Load(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (*Registry, error) {
	reg := &Registry{Missing: make(map[string]error)}
	for _, spec := range Known {
		d, err := spec.New(detectorConfig, cfg, opts...)
		if err != nil {
			var notAvail *domain.DetectorNotAvailableError
			if errors.As(err, &notAvail) {
				reg.Missing[spec.Name] = err
				continue
			}
			return nil, err
		}
		reg.Available = append(reg.Available, d)
	}
	return reg, nil
}

// Choose returns the named backend, or the first available one when name
// is empty.
func (r *Registry) Choose(name string) (domain.Detector, error) {
	if name == "" {
		if len(r.Available) == 0 {
			return nil, domain.ErrNoDetector
		}
		return r.Available[0], nil
	}
	for _, d := range r.Available {
		if d.Name() == name {
			return d, nil
		}
	}
	if err, ok := r.Missing[name]; ok {
		return nil, err
	}
	return nil, &domain.ConfigError{
		Source: "detector",
		Msg:    fmt.Sprintf("unknown detector %q (choose from %s)", name, strings.Join(Names(), ", ")),
	}
}

// PackagesFor returns the packages needed by the named backend. An empty
// name picks the first available backend, falling back to the first
// missing one so that build requirements can be generated on a bare system.
func (r *Registry) PackagesFor(name string) ([]string, error) {
	if name == "" {
		if len(r.Available) > 0 {
			return r.Available[0].PackagesNeeded(), nil
		}
		for _, spec := range Known {
			if _, ok := r.Missing[spec.Name]; ok {
				return spec.PackagesNeeded, nil
			}
		}
		return nil, domain.ErrNoDetector
	}
	for _, spec := range Known {
		if spec.Name == name {
			return spec.PackagesNeeded, nil
		}
	}
	return nil, &domain.ConfigError{Source: "detector", Msg: fmt.Sprintf("unknown detector %q", name)}
}
