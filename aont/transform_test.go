package aont

import (
	"bytes"
	"testing"
)

func TestTransformInvertRoundTrip(t *testing.T) {
	blocks := [][]byte{
		bytes.Repeat([]byte{0x01}, 8),
		bytes.Repeat([]byte{0x02}, 8),
		bytes.Repeat([]byte{0x03}, 8),
		bytes.Repeat([]byte{0x04}, 8),
	}
	transformed := Transform(blocks)
	recovered, err := Invert(transformed)
	if err != nil {
		t.Fatal(err)
	}
	for i := range blocks {
		if !bytes.Equal(recovered[i], blocks[i]) {
			t.Fatalf("block %d mismatch:\ngot  %x\nwant %x", i, recovered[i], blocks[i])
		}
	}
}

func TestTransformChangesEveryBlock(t *testing.T) {
	blocks := [][]byte{
		{0xAA, 0xBB},
		{0xCC, 0xDD},
		{0xEE, 0xFF},
	}
	transformed := Transform(blocks)
	for i := range blocks {
		if bytes.Equal(transformed[i], blocks[i]) {
			t.Fatalf("block %d unchanged by transform", i)
		}
	}
}

func TestPassiveZeroizationDifferentSeeds(t *testing.T) {
	// spec.md §8 scenario 4: commit payload P under one key material,
	// drop the store, recreate with different material, recover at the
	// same slot must not yield P. Here the two stores have the same block
	// count and differ only in the protected first block: the transformed
	// block at the same slot must differ between them.
	p := bytes.Repeat([]byte{0x42}, 8)
	blocksS1 := [][]byte{p, bytes.Repeat([]byte{0x10}, 8), bytes.Repeat([]byte{0x20}, 8)}
	transformedS1 := Transform(blocksS1)

	blocksS2 := [][]byte{bytes.Repeat([]byte{0x99}, 8), bytes.Repeat([]byte{0x10}, 8), bytes.Repeat([]byte{0x20}, 8)}
	transformedS2 := Transform(blocksS2)

	if bytes.Equal(transformedS1[0], transformedS2[0]) {
		t.Fatal("transformed output should differ when the protected payload differs")
	}
}

func TestInvertRejectsEmpty(t *testing.T) {
	if _, err := Invert(nil); err == nil {
		t.Fatal("expected error inverting zero blocks")
	}
}
