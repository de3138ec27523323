package httpclient

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// encodeParams converts params into query values. Slices become repeated keys and nil values are dropped.
func encodeParams(params Params) (url.Values, error) {
	if len(params) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(url.Values, len(params))
	for _, key := range keys {
		raw := params[key]
		if raw == nil {
			continue
		}

		rv := reflect.ValueOf(raw)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				s, err := cast.ToStringE(rv.Index(i).Interface())
				if err != nil {
					return nil, fmt.Errorf("param %q[%d]: %w", key, i, err)
				}
				values.Add(key, s)
			}
			continue
		}

		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", key, err)
		}
		values.Set(key, s)
	}
	return values, nil
}
