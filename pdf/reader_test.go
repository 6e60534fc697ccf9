package pdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeTestDocument returns a small, valid document with two pages.
func makeTestDocument(v Version) *Data {
	d := NewData(v)

	catalog := NewReference(1, 0)
	pages := NewReference(2, 0)
	page1 := NewReference(3, 0)
	page2 := NewReference(4, 0)
	content := NewReference(5, 0)
	info := NewReference(6, 0)

	d.Put(catalog, Dict{
		"Type":  Name("Catalog"),
		"Pages": pages,
	})
	d.Put(pages, Dict{
		"Type":     Name("Pages"),
		"Kids":     Array{page1, page2},
		"Count":    Integer(2),
		"MediaBox": Array{Integer(0), Integer(0), Integer(200), Integer(100)},
	})
	d.Put(page1, Dict{
		"Type":     Name("Page"),
		"Parent":   pages,
		"Contents": content,
	})
	d.Put(page2, Dict{
		"Type":   Name("Page"),
		"Parent": pages,
		"Rotate": Integer(90),
	})
	d.Put(content, &Stream{
		Dict: Dict{"Length": Integer(5)},
		Data: []byte("0 g\nf"),
	})
	d.Put(info, Dict{
		"Title": TextString("Test Document"),
	})

	d.SetRoot(catalog)
	d.Trailer["Info"] = info
	d.Trailer["ID"] = Array{String("0123456789abcdef"), String("0123456789abcdef")}
	return d
}

func compareData(t *testing.T, want, got *Data) {
	t.Helper()

	if got.Version != want.Version {
		t.Errorf("wrong version: %s != %s", got.Version, want.Version)
	}
	if d := cmp.Diff(want.Trailer, got.Trailer); d != "" {
		t.Errorf("unexpected trailer (-want +got):\n%s", d)
	}
	if d := cmp.Diff(want.Refs(), got.Refs()); d != "" {
		t.Errorf("unexpected references (-want +got):\n%s", d)
		return
	}
	for _, ref := range want.Refs() {
		a, _ := want.Get(ref)
		b, _ := got.Get(ref)
		if d := cmp.Diff(a, b); d != "" {
			t.Errorf("object %s differs (-want +got):\n%s", ref, d)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		version Version
		xref    XRefFormat
	}{
		{V1_4, XRefAuto},
		{V1_4, XRefTable},
		{V1_7, XRefAuto},
		{V1_7, XRefTable},
		{V1_7, XRefStream},
		{V2_0, XRefStream},
	}
	for _, test := range cases {
		t.Run(test.version.String(), func(t *testing.T) {
			d1 := makeTestDocument(test.version)
			buf, err := d1.Bytes(&WriterOptions{XRef: test.xref})
			if err != nil {
				t.Fatal(err)
			}

			d2, err := Load(buf, nil)
			if err != nil {
				t.Fatal(err)
			}
			compareData(t, d1, d2)
		})
	}
}

func TestXRefStreamVersion(t *testing.T) {
	d := makeTestDocument(V1_4)
	_, err := d.Bytes(&WriterOptions{XRef: XRefStream})
	if err == nil {
		t.Error("xref stream accepted for PDF 1.4")
	}
}

func TestWriteMissingRoot(t *testing.T) {
	d := NewData(V1_7)
	d.Put(NewReference(1, 0), Integer(1))
	_, err := d.Bytes(nil)
	if err == nil {
		t.Error("document without catalog written")
	}
}

func TestStreamLength(t *testing.T) {
	d := makeTestDocument(V1_7)
	ref := NewReference(5, 0)
	d.Put(ref, &Stream{
		Dict: Dict{"Length": Integer(999)},
		Data: []byte("hello"),
	})
	buf, err := d.Bytes(&WriterOptions{XRef: XRefTable})
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Load(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := d2.Get(ref)
	stm, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", obj)
	}
	if stm.Dict["Length"] != Integer(5) || string(stm.Data) != "hello" {
		t.Errorf("wrong stream %v %q", stm.Dict, stm.Data)
	}
}

func TestIndirectLength(t *testing.T) {
	in := "%PDF-1.4\n" +
		"1 0 obj\n<</Type/Catalog/Pages 3 0 R>>\nendobj\n" +
		"2 0 obj\n<</Length 4 0 R>>\nstream\nabc\nendstream\nendobj\n" +
		"3 0 obj\n<</Type/Pages/Kids[]/Count 0>>\nendobj\n" +
		"4 0 obj\n3\nendobj\n"
	offsets := []int{
		bytes.Index([]byte(in), []byte("1 0 obj")),
		bytes.Index([]byte(in), []byte("2 0 obj")),
		bytes.Index([]byte(in), []byte("3 0 obj")),
		bytes.Index([]byte(in), []byte("4 0 obj")),
	}
	xrefPos := len(in)
	in += "xref\n0 5\n0000000000 65535 f\r\n"
	for _, offs := range offsets {
		in += formatXRefLine(offs)
	}
	in += "trailer\n<</Size 5/Root 1 0 R>>\nstartxref\n" + itoa(xrefPos) + "\n%%EOF\n"

	d, err := Load([]byte(in), nil)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := d.Get(NewReference(2, 0))
	stm, ok := obj.(*Stream)
	if !ok || string(stm.Data) != "abc" {
		t.Errorf("wrong stream %v", obj)
	}
	if d.Len() != 4 {
		t.Errorf("expected 4 objects, got %d", d.Len())
	}
}

func formatXRefLine(offs int) string {
	s := itoa(offs)
	for len(s) < 10 {
		s = "0" + s
	}
	return s + " 00000 n\r\n"
}

func itoa(x int) string {
	return Format(Integer(x))
}

func TestCatalogVersion(t *testing.T) {
	d := makeTestDocument(V1_4)
	catalog, _ := d.Catalog()
	catalog["Version"] = Name("1.6")
	buf, err := d.Bytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Load(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Version != V1_6 {
		t.Errorf("wrong version %s", d2.Version)
	}
}

func TestEncrypted(t *testing.T) {
	d := makeTestDocument(V1_4)
	buf, err := d.Bytes(&WriterOptions{XRef: XRefTable})
	if err != nil {
		t.Fatal(err)
	}
	buf = bytes.Replace(buf, []byte("trailer\n<<"), []byte("trailer\n<</Encrypt 6 0 R"), 1)

	for _, lenient := range []bool{false, true} {
		_, err = Load(buf, &ReaderOptions{Lenient: lenient})
		if !errors.Is(err, ErrEncrypted) {
			t.Errorf("lenient=%t: expected ErrEncrypted, got %v", lenient, err)
		}
	}
}

func TestLenientTruncated(t *testing.T) {
	d := makeTestDocument(V1_4)
	buf, err := d.Bytes(&WriterOptions{XRef: XRefTable})
	if err != nil {
		t.Fatal(err)
	}
	// cut off the cross-reference table and the trailer
	buf = buf[:bytes.LastIndex(buf, []byte("endobj"))+len("endobj\n")]

	_, err = Load(buf, nil)
	if err == nil {
		t.Fatal("truncated file accepted in strict mode")
	}

	d2, err := Load(buf, &ReaderOptions{Lenient: true})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(d.Refs(), d2.Refs()); d != "" {
		t.Errorf("unexpected references (-want +got):\n%s", d)
	}
	root, ok := d2.Root()
	if !ok || root != NewReference(1, 0) {
		t.Errorf("catalog not found, got %s", root)
	}
}

func TestLenientWrongOffsets(t *testing.T) {
	d := makeTestDocument(V1_4)
	buf, err := d.Bytes(&WriterOptions{XRef: XRefTable})
	if err != nil {
		t.Fatal(err)
	}
	// shift all objects by inserting a comment after the header
	k := bytes.Index(buf, []byte("1 0 obj"))
	broken := append([]byte{}, buf[:k]...)
	broken = append(broken, "% padding\n"...)
	broken = append(broken, buf[k:]...)

	_, err = Load(broken, nil)
	if err == nil {
		t.Fatal("broken file accepted in strict mode")
	}

	d2, err := Load(broken, &ReaderOptions{Lenient: true})
	if err != nil {
		t.Fatal(err)
	}
	compareData(t, d, d2)
}

func TestObjectStreamKept(t *testing.T) {
	d := makeTestDocument(V1_7)
	objStm := NewReference(7, 0)
	d.Put(objStm, &Stream{
		Dict: Dict{"Type": Name("ObjStm"), "N": Integer(0), "First": Integer(0)},
	})
	buf, err := d.Bytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Load(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := d2.Get(objStm)
	if stm, ok := obj.(*Stream); !ok || stm.Dict["Type"] != Name("ObjStm") {
		t.Errorf("object stream not loaded: %v", obj)
	}
}

func TestFindObjectHeaders(t *testing.T) {
	in := []byte("1 0 obj\nnull\nendobj\n12 3 obj<<>>endobj x4 0 obj 5 0 objx")
	got := findObjectHeaders(in)
	want := []int{0, 20}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected positions (-want +got):\n%s", d)
	}
}

func TestNotPDF(t *testing.T) {
	for _, in := range []string{"", "hello world", "%PDF-1.7\n"} {
		_, err := Load([]byte(in), &ReaderOptions{Lenient: true})
		if err == nil {
			t.Errorf("%q accepted", in)
		}
	}
}
