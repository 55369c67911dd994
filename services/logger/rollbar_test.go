package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

func newTestLogger() (*RollbarLogger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return NewRollbarLogger(log.New(buf, "", 0), core.NewTestConfig()), buf
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newTestLogger()
	err := errors.New("boom")
	extra := map[string]interface{}{"task": "t1"}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "msg only", args: nil, want: []interface{}{"msg"}},
		{name: "error & extras", args: []interface{}{err, extra}, want: []interface{}{"msg", err, extra}},
		{name: "user dropped", args: []interface{}{user.User{ID: "u1"}, err}, want: []interface{}{"msg", err}},
		{name: "principal dropped", args: []interface{}{session.Principal{ID: "p1", Role: user.RoleAdmin}}, want: []interface{}{"msg"}},
		{name: "principal ptr dropped", args: []interface{}{&session.Principal{ID: "p1"}, extra}, want: []interface{}{"msg", extra}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	l, buf := newTestLogger()

	l.Warn("profile lookup failed", errors.New("unreachable"), session.Principal{ID: "p1"})

	assert.Contains(t, buf.String(), "[WARN] profile lookup failed")
	assert.Contains(t, buf.String(), "unreachable")
}
