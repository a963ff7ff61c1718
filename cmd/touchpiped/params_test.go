package main

import "testing"

// TestParseModuleParams_GrabEvents covers the grab_events value matrix.
func TestParseModuleParams_GrabEvents(t *testing.T) {
	cases := []struct {
		params  string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"grab_events=1", true, false},
		{"grab_events=0", false, false},
		// base is auto-detected, whitespace tolerated
		{"grab_events=0x1", true, false},
		{"grab_events=010", true, false},
		{" grab_events = 1 ", true, false},
		// once set, the flag stays set
		{"grab_events=1,grab_events=0", true, false},
		{"grab_events=junk", false, true},
		{"grab_events=-1", false, true},
		// missing '='
		{"grab_events", false, true},
		{"no_such_option=1", false, true},
	}

	for _, tc := range cases {
		a := &Adapter{logger: testLogger(), alloc: defaultAlloc}
		err := parseModuleParams(a, moduleVars, tc.params)

		if tc.wantErr {
			if err == nil {
				t.Errorf("params %q: expected error, got none", tc.params)
			}
			continue
		}
		if err != nil {
			t.Errorf("params %q: unexpected error: %v", tc.params, err)
			continue
		}
		if a.grabEvents != tc.want {
			t.Errorf("params %q: grabEvents=%v, want %v", tc.params, a.grabEvents, tc.want)
		}
	}
}
