package pdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPutMaxNumber(t *testing.T) {
	d := NewData(V1_7)
	if d.MaxNumber() != 0 {
		t.Errorf("empty document has MaxNumber %d", d.MaxNumber())
	}
	d.Put(NewReference(5, 0), Integer(1))
	d.Put(NewReference(3, 2), Integer(2))
	if d.MaxNumber() != 5 {
		t.Errorf("wrong MaxNumber %d", d.MaxNumber())
	}

	ref := d.Alloc()
	if ref != NewReference(6, 0) {
		t.Errorf("wrong allocated reference %s", ref)
	}

	d.Put(NewReference(5, 0), nil)
	if d.Has(NewReference(5, 0)) || d.Len() != 1 {
		t.Error("object not deleted")
	}

	want := []Reference{NewReference(3, 2)}
	if diff := cmp.Diff(want, d.Refs()); diff != "" {
		t.Errorf("unexpected references (-want +got):\n%s", diff)
	}
}

func TestRefsOrder(t *testing.T) {
	d := NewData(V1_7)
	for _, ref := range []Reference{
		NewReference(10, 0), NewReference(2, 1), NewReference(2, 0), NewReference(300, 0),
	} {
		d.Put(ref, Boolean(true))
	}
	want := []Reference{
		NewReference(2, 0), NewReference(2, 1), NewReference(10, 0), NewReference(300, 0),
	}
	if diff := cmp.Diff(want, d.Refs()); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	d1 := makeTestDocument(V1_7)
	d2 := d1.Clone()

	d2.Put(NewReference(3, 0), Dict{"Type": Name("Page")})
	d2.Put(d2.Alloc(), Integer(7))
	d2.Trailer["Info"] = nil

	obj, _ := d1.Get(NewReference(3, 0))
	if dict, ok := obj.(Dict); !ok || dict["Parent"] == nil {
		t.Error("original object replaced")
	}
	if d1.Len() != 6 || d1.MaxNumber() != 6 {
		t.Errorf("original document modified: %d objects, max %d", d1.Len(), d1.MaxNumber())
	}
	if d1.Trailer["Info"] == nil {
		t.Error("original trailer modified")
	}
}

func TestResolve(t *testing.T) {
	d := NewData(V1_7)
	a := NewReference(1, 0)
	b := NewReference(2, 0)
	d.Put(a, b)
	d.Put(b, Dict{"X": Integer(1)})

	dict, err := GetDict(d, a)
	if err != nil {
		t.Fatal(err)
	}
	if dict["X"] != Integer(1) {
		t.Errorf("wrong dict %v", dict)
	}

	missing, err := GetDict(d, NewReference(99, 0))
	if err != nil || missing != nil {
		t.Errorf("missing object: %v %v", missing, err)
	}

	_, err = GetArray(d, a)
	if err == nil {
		t.Error("dict accepted as array")
	}

	// a reference cycle
	d.Put(b, a)
	_, err = Resolve(d, a)
	if err == nil {
		t.Error("reference cycle not detected")
	}
}

func TestGetNumber(t *testing.T) {
	d := NewData(V1_7)
	ref := NewReference(1, 0)
	d.Put(ref, Real(1.5))

	for _, test := range []struct {
		in   Object
		want float64
		ok   bool
	}{
		{Integer(3), 3, true},
		{Real(-0.5), -0.5, true},
		{ref, 1.5, true},
		{Name("x"), 0, false},
		{nil, 0, false},
	} {
		got, err := GetNumber(d, test.in)
		if test.ok != (err == nil) || got != test.want {
			t.Errorf("%v: got %g, %v", test.in, got, err)
		}
	}
}

func TestCatalog(t *testing.T) {
	d := NewData(V1_7)
	if _, err := d.Catalog(); err == nil {
		t.Error("missing catalog not detected")
	}
	d.SetRoot(NewReference(1, 0))
	d.Put(NewReference(1, 0), Integer(1))
	if _, err := d.Catalog(); err == nil {
		t.Error("invalid catalog not detected")
	}
}
