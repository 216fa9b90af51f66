package filter

import (
	"fmt"

	"github.com/simwire/simwire/internal/bus"
	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/jsoncodec"
	"github.com/simwire/simwire/internal/bus/ops"
)

// ConfigDocument is the JSON shape consumed by LoadConfig.
type ConfigDocument struct {
	Filters []ConfigEntry `json:"filters"`
}

// ConfigEntry describes one filter to register.
type ConfigEntry struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
	// Side selects where the filter attaches: "source" (the default),
	// "destination", or "cloning".
	Side string `json:"side"`

	Properties       map[string]float64 `json:"properties"`
	StringProperties map[string]string  `json:"string_properties"`

	// Cloning-only fan-out sets.
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
	Delivery     []string `json:"delivery"`
}

// LoadConfig parses a JSON filter configuration and registers every entry
// on the core. The first invalid entry aborts the load with a
// ConfigValidationError; filters registered before it stay registered.
func LoadConfig(core *bus.Core, data []byte) ([]Filter, error) {
	if core == nil {
		return nil, errs.ErrCoreRequired
	}
	var doc ConfigDocument
	if err := jsoncodec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing filter config: %w", err)
	}

	filters := make([]Filter, 0, len(doc.Filters))
	for i, entry := range doc.Filters {
		f, err := loadEntry(core, i, entry)
		if err != nil {
			return filters, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func loadEntry(core *bus.Core, index int, entry ConfigEntry) (Filter, error) {
	if entry.Side == "cloning" || ops.ParseType(entry.Type) == ops.Clone {
		return loadCloningEntry(core, index, entry)
	}

	t := ops.ParseType(entry.Type)
	if t == ops.Unrecognized || t == ops.Custom {
		return nil, &errs.ConfigValidationError{Index: index, Field: "type", Err: errs.ErrUnrecognizedType}
	}
	if entry.Target == "" {
		return nil, &errs.ConfigValidationError{Index: index, Field: "target", Err: errs.ErrTargetRequired}
	}

	var f Filter
	var err error
	switch entry.Side {
	case "", "source":
		f, err = MakeSourceFilter(t, core, entry.Target, entry.Name)
	case "destination":
		f, err = MakeDestinationFilter(t, core, entry.Target, entry.Name)
	default:
		return nil, &errs.ConfigValidationError{Index: index, Field: "side", Err: fmt.Errorf("unknown side %q", entry.Side)}
	}
	if err != nil {
		return nil, &errs.ConfigValidationError{Index: index, Field: "type", Err: err}
	}

	for property, val := range entry.Properties {
		if err := f.Set(property, val); err != nil {
			return nil, &errs.ConfigValidationError{Index: index, Field: property, Err: err}
		}
	}
	for property, val := range entry.StringProperties {
		if err := f.SetString(property, val); err != nil {
			return nil, &errs.ConfigValidationError{Index: index, Field: property, Err: err}
		}
	}
	return f, nil
}

func loadCloningEntry(core *bus.Core, index int, entry ConfigEntry) (Filter, error) {
	cf, err := NewCloningFilter(core, entry.Name)
	if err != nil {
		return nil, &errs.ConfigValidationError{Index: index, Field: "name", Err: err}
	}
	for _, src := range entry.Sources {
		if err := cf.AddSourceTarget(src); err != nil {
			return nil, &errs.ConfigValidationError{Index: index, Field: "sources", Err: err}
		}
	}
	for _, dst := range entry.Destinations {
		if err := cf.AddDestinationTarget(dst); err != nil {
			return nil, &errs.ConfigValidationError{Index: index, Field: "destinations", Err: err}
		}
	}
	for _, del := range entry.Delivery {
		cf.AddDeliveryEndpoint(del)
	}
	return cf, nil
}
