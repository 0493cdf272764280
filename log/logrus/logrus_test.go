package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/blobcontainer"
)

func TestFieldsReachLogrus(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	boom := errors.New("boom")
	l.Error("blob container unavailable", blobcontainer.Fields{"container": "assets", "op": "create", "err": boom})

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Data["component"] != "blobcontainer" || e.Data["container"] != "assets" || e.Data["op"] != "create" {
		t.Fatalf("data=%v", e.Data)
	}
	if e.Data[logrus.ErrorKey] != boom {
		t.Fatalf("err not lifted: %v", e.Data)
	}
}
