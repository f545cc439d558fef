package app

import "testing"

func TestKeyCollection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		args []any
		want string
	}{
		{args: []any{"get", "cache:route:walking:1,2:3,4"}, want: "cache"},
		{args: []any{"geoadd", "navigation:positions", 1.0, 2.0, "s1"}, want: "navigation"},
		{args: []any{"set", "lock:certificate:tpl:ana"}, want: "lock"},
		{args: []any{"ping"}, want: "redis"},
		{args: []any{"mget", 42}, want: "redis"},
	}

	for _, tc := range testCases {
		if got := keyCollection(tc.args); got != tc.want {
			t.Errorf("keyCollection(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}
