package pdf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlateRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("hello, world\n"), 100)
	compressed, err := flateEncode(in)
	if err != nil {
		t.Fatal(err)
	}
	stm := &Stream{
		Dict: Dict{"Filter": Name("FlateDecode")},
		Data: compressed,
	}
	out, err := stm.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out) {
		t.Error("data changed")
	}

	stm.Dict["Filter"] = Array{Name("Fl")}
	out, err = stm.Decode()
	if err != nil || !bytes.Equal(in, out) {
		t.Errorf("abbreviated filter name: %v", err)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	stm := &Stream{
		Dict: Dict{"Filter": Name("DCTDecode")},
		Data: []byte{1, 2, 3},
	}
	_, err := stm.Decode()
	if err == nil {
		t.Error("unsupported filter accepted")
	}
}

func TestPNGUnpredict(t *testing.T) {
	// two rows of three bytes each, using the "Up" and "Sub" predictors
	in := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
		1, 5, 1, 1,
	}
	got, err := pngUnpredict(in, 1, 8, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		1, 2, 3,
		2, 3, 4,
		5, 6, 7,
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected data (-want +got):\n%s", d)
	}

	_, err = pngUnpredict(in[:6], 1, 8, 3)
	if err == nil {
		t.Error("truncated data accepted")
	}
}
