package bus

import (
	"fmt"
)

type interfaceKind int

const (
	kindEndpoint interfaceKind = iota
	kindSourceFilter
	kindDestFilter
	kindCloningFilter
)

func (k interfaceKind) String() string {
	switch k {
	case kindEndpoint:
		return "endpoint"
	case kindSourceFilter:
		return "source_filter"
	case kindDestFilter:
		return "destination_filter"
	case kindCloningFilter:
		return "cloning_filter"
	default:
		return "unknown"
	}
}

// basicHandle holds the identity fields shared by every registered interface
// point. Filter handles additionally have a routing record in the core's
// record table.
type basicHandle struct {
	handle  Handle
	fed     FederateID
	kind    interfaceKind
	name    string
	target  string
	typeIn  string
	typeOut string
}

// handleManager owns the handle table and the name search indexes. It is not
// internally synchronized; the core serializes access through its registry
// lock.
type handleManager struct {
	handles   []*basicHandle
	endpoints map[string]int
	filters   map[string]int

	endpointCount int
	filterCount   int
}

func newHandleManager() *handleManager {
	return &handleManager{
		endpoints: make(map[string]int),
		filters:   make(map[string]int),
	}
}

// addHandle allocates the next handle and indexes it by name. An empty name
// gets an auto-generated one.
func (hm *handleManager) addHandle(fed FederateID, kind interfaceKind, name, target, typeIn, typeOut string) *basicHandle {
	local := Handle(len(hm.handles))
	if name == "" {
		name = hm.generateName(kind)
	}
	info := &basicHandle{
		handle:  local,
		fed:     fed,
		kind:    kind,
		name:    name,
		target:  target,
		typeIn:  typeIn,
		typeOut: typeOut,
	}
	hm.handles = append(hm.handles, info)
	hm.addSearchFields(info, len(hm.handles)-1)
	return info
}

func (hm *handleManager) getHandleInfo(h Handle) *basicHandle {
	if h < 0 || int(h) >= len(hm.handles) {
		return nil
	}
	return hm.handles[h]
}

func (hm *handleManager) getEndpoint(name string) *basicHandle {
	idx, ok := hm.endpoints[name]
	if !ok {
		return nil
	}
	return hm.handles[idx]
}

func (hm *handleManager) getFilter(name string) *basicHandle {
	idx, ok := hm.filters[name]
	if !ok {
		return nil
	}
	return hm.handles[idx]
}

func (hm *handleManager) addSearchFields(info *basicHandle, index int) {
	switch info.kind {
	case kindEndpoint:
		hm.endpoints[info.name] = index
	case kindSourceFilter, kindDestFilter, kindCloningFilter:
		if info.name != "" {
			hm.filters[info.name] = index
		}
	}
}

func (hm *handleManager) generateName(kind interfaceKind) string {
	switch kind {
	case kindEndpoint:
		hm.endpointCount++
		return fmt.Sprintf("_endpoint_%d", hm.endpointCount)
	default:
		hm.filterCount++
		return fmt.Sprintf("_filter_%d", hm.filterCount)
	}
}
