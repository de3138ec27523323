package publishers

// Filter selects the fetch events a publisher receives. The zero Filter matches everything.
type Filter struct {
	endpoints map[string]struct{}
	outcomes  map[string]struct{}
}

// NewFilter builds a filter from endpoint ids and outcomes. An empty list leaves that dimension open.
func NewFilter(endpointIDs, outcomes []string) Filter {
	return Filter{endpoints: toSet(endpointIDs), outcomes: toSet(outcomes)}
}

// Match reports whether evt passes both the endpoint and the outcome restriction.
func (f Filter) Match(evt Event) bool {
	if len(f.endpoints) > 0 {
		if _, ok := f.endpoints[evt.EndpointID]; !ok {
			return false
		}
	}
	if len(f.outcomes) > 0 {
		if _, ok := f.outcomes[evt.Outcome()]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
