package filter

import (
	"strconv"
	"strings"

	"github.com/corvidsec/eventsleuth/record"
)

// idRange is an inclusive [Low, High] range of event ids.
type idRange struct {
	Low, High uint32
}

func (r idRange) contains(id uint32) bool {
	return id >= r.Low && id <= r.High
}

// EventIDPredicate is a compiled event-id spec: a record's id matches
// if it falls in includes (or includes is empty) and not in excludes.
type EventIDPredicate struct {
	raw      string
	includes []idRange
	excludes []idRange
}

// Raw returns the textual spec this predicate was compiled from, kept
// so preset serialisation round-trips losslessly (spec.md §3).
func (p EventIDPredicate) Raw() string { return p.raw }

// Match reports whether id satisfies this predicate.
func (p EventIDPredicate) Match(id uint32) bool {
	if len(p.includes) == 0 {
		return !inAny(p.excludes, id)
	}
	return inAny(p.includes, id) && !inAny(p.excludes, id)
}

func inAny(ranges []idRange, id uint32) bool {
	for _, r := range ranges {
		if r.contains(id) {
			return true
		}
	}
	return false
}

// CompileEventIDSpec compiles a comma-separated event-id spec per
// spec.md §4.4: "N" includes id N, "N-M" an inclusive range requiring
// N<=M, "!" negates either form, an empty spec matches all ids.
func CompileEventIDSpec(spec string) (EventIDPredicate, error) {
	pred := EventIDPredicate{raw: spec}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return pred, nil
	}

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		exclude := strings.HasPrefix(token, "!")
		if exclude {
			token = token[1:]
		}
		r, err := parseRange(token)
		if err != nil {
			return EventIDPredicate{}, err
		}
		if exclude {
			pred.excludes = append(pred.excludes, r)
		} else {
			pred.includes = append(pred.includes, r)
		}
	}
	return pred, nil
}

func parseRange(token string) (idRange, error) {
	low, high, found := strings.Cut(token, "-")
	loVal, err := strconv.ParseUint(strings.TrimSpace(low), 10, 32)
	if err != nil {
		return idRange{}, &record.FilterParseError{Context: "invalid event id token: " + token}
	}
	if !found {
		return idRange{Low: uint32(loVal), High: uint32(loVal)}, nil
	}
	hiVal, err := strconv.ParseUint(strings.TrimSpace(high), 10, 32)
	if err != nil {
		return idRange{}, &record.FilterParseError{Context: "invalid event id token: " + token}
	}
	if loVal > hiVal {
		return idRange{}, &record.FilterParseError{Context: "invalid range (low > high): " + token}
	}
	return idRange{Low: uint32(loVal), High: uint32(hiVal)}, nil
}
