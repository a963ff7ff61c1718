package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Module option parsing
// ============================================================================
//
// The host hands the adapter an opaque option string of the form
// "key=value[,key=value...]". Recognized keys live in moduleVars; anything
// else fails initialization. This is the legacy host-facing surface; the
// daemon's own configuration goes through the YAML config instead.
//
// ============================================================================

// moduleVar binds an option key to its parser callback. The arg value is
// passed through to the callback so one callback can serve several keys.
type moduleVar struct {
	key string
	arg int
	fn  func(a *Adapter, value string, arg int) error
}

const grabEventsWanted = 1

var moduleVars = []moduleVar{
	{key: "grab_events", arg: grabEventsWanted, fn: parseGrab},
}

// parseGrab parses the grab_events option: any non-zero integer enables the
// events-wanted flag. Base is auto-detected (0x.., 0.., decimal).
func parseGrab(a *Adapter, value string, arg int) error {
	v, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", value, err)
	}

	switch arg {
	case grabEventsWanted:
		if v != 0 {
			a.grabEvents = true
		}
	default:
		return fmt.Errorf("unknown option variant %d", arg)
	}
	return nil
}

// parseModuleParams applies an option string to the adapter. An empty string
// is valid and leaves all options at their defaults. Unknown keys and
// unparsable values are fatal; the caller must discard the adapter on error.
func parseModuleParams(a *Adapter, vars []moduleVar, params string) error {
	params = strings.TrimSpace(params)
	if params == "" {
		return nil
	}

	for _, kv := range strings.Split(params, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}

		key, value, found := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !found {
			return fmt.Errorf("module option %q: missing '='", kv)
		}

		matched := false
		for _, mv := range vars {
			if mv.key != key {
				continue
			}
			matched = true
			if err := mv.fn(a, strings.TrimSpace(value), mv.arg); err != nil {
				return fmt.Errorf("module option %q: %w", key, err)
			}
			break
		}
		if !matched {
			return fmt.Errorf("unknown module option %q", key)
		}
	}
	return nil
}
