package compileinfo

import "testing"

func TestShort(t *testing.T) {
	cases := []struct {
		info CompileInfo
		want string
	}{
		{CompileInfo{}, "devel"},
		{CompileInfo{Version: "(devel)"}, "devel"},
		{CompileInfo{Version: "v0.1.0"}, "v0.1.0"},
		{CompileInfo{Version: "v0.1.0", Commit: "abc123"}, "abc123"},
		{CompileInfo{Commit: "abc123", Modified: true}, "abc123+modified"},
	}

	for _, c := range cases {
		if got := c.info.Short(); got != c.want {
			t.Errorf("%+v: expected %s, got %s", c.info, c.want, got)
		}
	}
}
