package core

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
)

// isolateRegistry empties the registry for one test and restores the
// targets registered by other packages afterwards.
func isolateRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registryMu.Unlock()

	Clear()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	isolateRegistry(t)

	Register(gadgetDef())
	second := gadgetDef()
	second.Info.Key = "another"
	second.Columns = []string{"x"}
	Register(second)

	def, ok := Get("gadget")
	if !ok {
		t.Fatal("gadget not registered")
	}
	if want := []string{"name", "count", "price", "retired_at"}; !reflect.DeepEqual(def.Columns, want) {
		t.Errorf("derived Columns = %v, want %v", def.Columns, want)
	}
	if d, _ := Get("another"); !reflect.DeepEqual(d.Columns, []string{"x"}) {
		t.Errorf("explicit Columns overwritten: %v", d.Columns)
	}

	all := All()
	if len(all) != 2 || all[0].Info.Key != "another" || all[1].Info.Key != "gadget" {
		t.Errorf("All() not sorted by key: %+v", all)
	}

	_, err := Lookup("invoice")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("Lookup err = %v, want ErrConfig", err)
	}
	if got := MapError(err).Code; got != "CFG003" {
		t.Errorf("code = %q, want CFG003", got)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	isolateRegistry(t)

	Register(gadgetDef())
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(gadgetDef())
}
