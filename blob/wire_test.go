package blob

import (
	"bytes"
	"testing"

	"github.com/arctany/ember/asm"
)

func TestArtifactWireRoundTrip(t *testing.T) {
	art := buildTestArtifact(t, asm.Options{EmitComments: true})

	data, err := MarshalArtifact(art)
	if err != nil {
		t.Fatalf("MarshalArtifact: %v", err)
	}

	got, err := UnmarshalArtifact(data)
	if err != nil {
		t.Fatalf("UnmarshalArtifact: %v", err)
	}

	if got.ID != art.ID || got.Name != art.Name {
		t.Error("identity fields changed across the wire")
	}
	if !bytes.Equal(got.Instructions, art.Instructions) {
		t.Error("instructions changed across the wire")
	}
	if len(got.PointerOffsets) != len(art.PointerOffsets) {
		t.Error("pointer offsets changed across the wire")
	}
	if len(got.Pool) != len(art.Pool) {
		t.Fatal("pool changed across the wire")
	}
	if got.Pool[0].Value == nil || got.Pool[0].Value.Str != art.Pool[0].Value.Str {
		t.Error("tagged pool slot changed across the wire")
	}
	if len(got.Comments) != len(art.Comments) {
		t.Error("comments changed across the wire")
	}

	// Hash still verifies, so decoding preserved semantic content exactly.
	if err := got.Verify(); err != nil {
		t.Errorf("Verify after round trip: %v", err)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	art := buildTestArtifact(t, asm.Options{})
	a, err := MarshalArtifact(art)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalArtifact(art)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated marshal of one artifact differs")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := UnmarshalArtifact([]byte{0xFF, 0x00, 0x01}); err == nil {
		t.Error("garbage bytes should fail to unmarshal")
	}
}
